// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	retryableFlag       = 1 << 16
	CanceledCode  int32 = 10000
	TimeoutCode   int32 = 10001
)

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// Service related
	ErrServiceInternal      = newFlowError("service internal error", 5, false) // Never return this error out of flow
	ErrServiceUnimplemented = newFlowError("service unimplemented", 10, false)

	// Parameter related
	ErrParameterInvalid = newFlowError("invalid parameter", 1100, false)

	// Expression related
	ErrFunctionReferenceNotFound = newFlowError("function reference not found", 2100, false)
	ErrUnsupportedFeature        = newFlowError("unsupported feature", 2101, false)
	ErrUnsupportedFunction       = newFlowError("unsupported function", 2102, false)
	ErrInvalidInput              = newFlowError("invalid input", 2103, false)
	ErrTypeMismatch              = newFlowError("type mismatch", 2104, false)
	ErrEvalFailed                = newFlowError("evaluation failed", 2105, false)

	// Plan related
	ErrInvalidPlan   = newFlowError("invalid plan", 2200, false)
	ErrTableNotFound = newFlowError("table not found", 2201, false)

	// Do NOT export this,
	// never allow programmer using this, keep only for converting unknown error to flowError
	errUnexpected = newFlowError("unexpected error", (1<<16)-1, false)
)

type flowError struct {
	msg     string
	errCode int32
}

func newFlowError(msg string, code int32, retriable bool) flowError {
	if retriable {
		code |= retryableFlag
	}
	return flowError{
		msg:     msg,
		errCode: code,
	}
}

func (e flowError) code() int32 {
	return e.errCode
}

func (e flowError) Error() string {
	return e.msg
}

func (e flowError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(flowError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

// joinedError reports every member to errors.Is. Its cause, and so its
// code, is the last member.
type joinedError struct {
	errs []error
}

func (e joinedError) Error() string {
	return strings.Join(lo.Map(e.errs, func(err error, _ int) string { return err.Error() }), ": ")
}

func (e joinedError) Cause() error {
	return e.errs[len(e.errs)-1]
}

func (e joinedError) Is(target error) bool {
	return lo.ContainsBy(e.errs, func(err error) bool { return errors.Is(err, target) })
}

// Combine joins the non-nil errors. It returns nil when there are none and the
// error itself when there is only one.
func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return joinedError{errs: errs}
}
