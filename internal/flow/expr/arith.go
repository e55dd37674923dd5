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

package expr

import (
	"math"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"

	"github.com/milvus-io/milvus-flow/internal/flow/repr"
	"github.com/milvus-io/milvus-flow/pkg/util/merr"
)

var (
	errOverflow     = errors.New("integer overflow")
	errDivideByZero = errors.New("division by zero")
)

func isSigned[T constraints.Integer]() bool {
	var zero T
	return ^zero < 0
}

// isMin reports whether x is the minimum of a signed integer type, the one
// value whose negation overflows.
func isMin[T constraints.Integer](x T) bool {
	return x < 0 && -x < 0
}

func checkedInt[T constraints.Integer](op BinaryOp, a, b T) (T, error) {
	signed := isSigned[T]()
	// -1 for signed types; only read when signed is true
	minusOne := ^T(0)
	switch op {
	case BinaryAdd:
		c := a + b
		if (signed && ((b > 0 && c < a) || (b < 0 && c > a))) || (!signed && c < a) {
			return 0, errOverflow
		}
		return c, nil
	case BinarySub:
		c := a - b
		if (signed && ((b > 0 && c > a) || (b < 0 && c < a))) || (!signed && a < b) {
			return 0, errOverflow
		}
		return c, nil
	case BinaryMul:
		if a == 0 || b == 0 {
			return 0, nil
		}
		if signed && ((a == minusOne && isMin(b)) || (b == minusOne && isMin(a))) {
			return 0, errOverflow
		}
		c := a * b
		if c/b != a {
			return 0, errOverflow
		}
		return c, nil
	case BinaryDiv:
		if b == 0 {
			return 0, errDivideByZero
		}
		if signed && b == minusOne && isMin(a) {
			return 0, errOverflow
		}
		return a / b, nil
	case BinaryMod:
		if b == 0 {
			return 0, errDivideByZero
		}
		if signed && b == minusOne {
			return 0, nil
		}
		return a % b, nil
	}
	return 0, errors.Newf("%s is not an arithmetic operator", op)
}

func floatOp[T constraints.Float](op BinaryOp, a, b T) (T, error) {
	switch op {
	case BinaryAdd:
		return a + b, nil
	case BinarySub:
		return a - b, nil
	case BinaryMul:
		return a * b, nil
	case BinaryDiv:
		return a / b, nil
	case BinaryMod:
		return T(math.Mod(float64(a), float64(b))), nil
	}
	return 0, errors.Newf("%s is not an arithmetic operator", op)
}

func evalInt[T constraints.Integer](f BinaryFunc, l, r repr.Value) (repr.Value, error) {
	a, okA := l.Any().(T)
	b, okB := r.Any().(T)
	if !okA || !okB {
		return repr.Value{}, merr.WrapErrEvalFailed("%s got operands %T and %T", f, l.Any(), r.Any())
	}
	c, err := checkedInt(f.Op, a, b)
	if err != nil {
		return repr.Value{}, merr.WrapErrEvalFailed("%s(%s, %s): %v", f, l, r, err)
	}
	return repr.NewValue(c), nil
}

func evalFloat[T constraints.Float](f BinaryFunc, l, r repr.Value) (repr.Value, error) {
	a, okA := l.Any().(T)
	b, okB := r.Any().(T)
	if !okA || !okB {
		return repr.Value{}, merr.WrapErrEvalFailed("%s got operands %T and %T", f, l.Any(), r.Any())
	}
	c, err := floatOp(f.Op, a, b)
	if err != nil {
		return repr.Value{}, merr.WrapErrEvalFailed("%s(%s, %s): %v", f, l, r, err)
	}
	return repr.NewValue(c), nil
}
