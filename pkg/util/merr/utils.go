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
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Code returns the error code of the given error,
// WARN: DO NOT use this for now
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	cause := errors.Cause(err)
	switch cause := cause.(type) {
	case flowError:
		return cause.code()

	default:
		if errors.Is(cause, context.Canceled) {
			return CanceledCode
		} else if errors.Is(cause, context.DeadlineExceeded) {
			return TimeoutCode
		} else {
			return errUnexpected.code()
		}
	}
}

// IsRetryableErr reports whether retrying could change the outcome.
// Translation errors are deterministic and never retryable.
func IsRetryableErr(err error) bool {
	return Code(err)&retryableFlag != 0
}

// Service related
func WrapErrServiceInternal(reason string, msg ...string) error {
	err := wrapFields(ErrServiceInternal, value("reason", reason))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Parameter related
func WrapErrParameterInvalid[T any](expected, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidMsg(fmt string, args ...any) error {
	return errors.Wrapf(ErrParameterInvalid, fmt, args...)
}

// Expression related
func WrapErrFunctionReferenceNotFound(reference uint32, msg ...string) error {
	err := wrapFields(ErrFunctionReferenceNotFound, value("functionReference", reference))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrUnsupportedFeature(fmt string, args ...any) error {
	return errors.Wrapf(ErrUnsupportedFeature, fmt, args...)
}

func WrapErrUnsupportedFunction(name string, msg ...string) error {
	err := wrapFields(ErrUnsupportedFunction, value("function", name))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrInvalidInput(fmt string, args ...any) error {
	return errors.Wrapf(ErrInvalidInput, fmt, args...)
}

func WrapErrTypeMismatch(from, to any, msg ...string) error {
	err := wrapFields(ErrTypeMismatch,
		value("from", from),
		value("to", to),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrEvalFailed(fmt string, args ...any) error {
	return errors.Wrapf(ErrEvalFailed, fmt, args...)
}

// Plan related
func WrapErrInvalidPlan(fmt string, args ...any) error {
	return errors.Wrapf(ErrInvalidPlan, fmt, args...)
}

func WrapErrTableNotFound(table any, msg ...string) error {
	err := wrapFields(ErrTableNotFound, value("table", table))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}

func wrapFields(err flowError, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	return err
}
