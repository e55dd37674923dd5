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
	"bytes"
	"cmp"
	"fmt"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/shopspring/decimal"

	"github.com/milvus-io/milvus-flow/internal/flow/repr"
	"github.com/milvus-io/milvus-flow/pkg/util/merr"
)

// Eval evaluates e against row. Translation only uses it to fold calls
// whose arguments are all literals, with an empty row.
func Eval(e ScalarExpr, row repr.Row) (repr.Value, error) {
	switch e := e.(type) {
	case *Column:
		v, ok := row.Get(e.Index)
		if !ok {
			return repr.Value{}, merr.WrapErrEvalFailed("column #%d out of range of row with %d columns", e.Index, row.Len())
		}
		return v, nil
	case *Literal:
		return e.Value, nil
	case *CallUnary:
		v, err := Eval(e.Expr, row)
		if err != nil {
			return repr.Value{}, err
		}
		var from arrow.DataType
		if lit, ok := e.Expr.(*Literal); ok {
			from = lit.Type
		}
		return e.Func.Eval(v, from)
	case *CallBinary:
		l, err := Eval(e.Left, row)
		if err != nil {
			return repr.Value{}, err
		}
		r, err := Eval(e.Right, row)
		if err != nil {
			return repr.Value{}, err
		}
		return e.Func.Eval(l, r)
	case *CallVariadic:
		return e.Func.Eval(e.Exprs, row)
	case *If:
		cond, err := Eval(e.Cond, row)
		if err != nil {
			return repr.Value{}, err
		}
		if b, ok := cond.AsBool(); ok && b {
			return Eval(e.Then, row)
		}
		return Eval(e.Else, row)
	case *CallUnmaterializable:
		return repr.Value{}, merr.WrapErrEvalFailed("%s can not be evaluated at plan time", e.Func)
	default:
		panic(fmt.Sprintf("unexpected scalar expression %T", e))
	}
}

// Eval applies f to v. from is the declared type of v when known and only
// matters for casts between time units.
func (f UnaryFunc) Eval(v repr.Value, from arrow.DataType) (repr.Value, error) {
	switch f.Op {
	case UnaryIsNull:
		return repr.NewValue(v.IsNull()), nil
	case UnaryIsNotNull:
		return repr.NewValue(!v.IsNull()), nil
	case UnaryIsTrue:
		b, ok := v.AsBool()
		return repr.NewValue(ok && b), nil
	case UnaryIsFalse:
		b, ok := v.AsBool()
		return repr.NewValue(ok && !b), nil
	case UnaryCast:
		out, err := repr.CastValue(v, from, f.CastTo)
		if err != nil {
			return repr.Value{}, merr.Combine(err, merr.WrapErrEvalFailed("%s(%s)", f, v))
		}
		return out, nil
	}

	if v.IsNull() {
		return repr.Null(), nil
	}
	switch f.Op {
	case UnaryNot:
		if b, ok := v.AsBool(); ok {
			return repr.NewValue(!b), nil
		}
	case UnaryStepTimestamp:
		if ts, ok := v.Any().(arrow.Timestamp); ok {
			if ts+1 < ts {
				return repr.Value{}, merr.WrapErrEvalFailed("%s(%s): %v", f, v, errOverflow)
			}
			return repr.NewValue(ts + 1), nil
		}
	}
	return repr.Value{}, merr.WrapErrEvalFailed("%s does not accept %T", f, v.Any())
}

// Eval applies f to two values. NULL operands yield NULL.
func (f BinaryFunc) Eval(l, r repr.Value) (repr.Value, error) {
	if l.IsNull() || r.IsNull() {
		return repr.Null(), nil
	}
	if f.Op.IsComparison() {
		c, err := compareValues(l, r)
		if err != nil {
			return repr.Value{}, merr.WrapErrEvalFailed("%s(%s, %s): %v", f, l, r, err)
		}
		switch f.Op {
		case BinaryEq:
			return repr.NewValue(c == 0), nil
		case BinaryNotEq:
			return repr.NewValue(c != 0), nil
		case BinaryLt:
			return repr.NewValue(c < 0), nil
		case BinaryLte:
			return repr.NewValue(c <= 0), nil
		case BinaryGt:
			return repr.NewValue(c > 0), nil
		default:
			return repr.NewValue(c >= 0), nil
		}
	}

	switch f.InputType {
	case arrow.INT8:
		return evalInt[int8](f, l, r)
	case arrow.INT16:
		return evalInt[int16](f, l, r)
	case arrow.INT32:
		return evalInt[int32](f, l, r)
	case arrow.INT64:
		return evalInt[int64](f, l, r)
	case arrow.UINT8:
		return evalInt[uint8](f, l, r)
	case arrow.UINT16:
		return evalInt[uint16](f, l, r)
	case arrow.UINT32:
		return evalInt[uint32](f, l, r)
	case arrow.UINT64:
		return evalInt[uint64](f, l, r)
	case arrow.FLOAT32:
		return evalFloat[float32](f, l, r)
	case arrow.FLOAT64:
		return evalFloat[float64](f, l, r)
	}
	return repr.Value{}, merr.WrapErrEvalFailed("%s has no implementation for non-null operands", f)
}

// Eval applies f with three-valued logic. Evaluation stops at the first
// operand that decides the result.
func (f VariadicFunc) Eval(exprs []ScalarExpr, row repr.Row) (repr.Value, error) {
	// and stops at false, or stops at true
	decisive := f == VariadicOr
	sawNull := false
	for _, e := range exprs {
		v, err := Eval(e, row)
		if err != nil {
			return repr.Value{}, err
		}
		if v.IsNull() {
			sawNull = true
			continue
		}
		b, ok := v.AsBool()
		if !ok {
			return repr.Value{}, merr.WrapErrEvalFailed("%s expects boolean operands, got %T", f, v.Any())
		}
		if b == decisive {
			return repr.NewValue(decisive), nil
		}
	}
	if sawNull {
		return repr.Null(), nil
	}
	return repr.NewValue(!decisive), nil
}

// compareValues orders two non-null values of compatible kinds.
func compareValues(l, r repr.Value) (int, error) {
	switch a := l.Any().(type) {
	case bool:
		if b, ok := r.Any().(bool); ok {
			return compareBool(a, b), nil
		}
	case string:
		if b, ok := r.Any().(string); ok {
			return cmp.Compare(a, b), nil
		}
	case []byte:
		if b, ok := r.Any().([]byte); ok {
			return bytes.Compare(a, b), nil
		}
	case decimal.Decimal:
		if b, ok := r.Any().(decimal.Decimal); ok {
			return a.Cmp(b), nil
		}
	case arrow.Date32:
		if b, ok := r.Any().(arrow.Date32); ok {
			return cmp.Compare(a, b), nil
		}
	case arrow.Time64:
		if b, ok := r.Any().(arrow.Time64); ok {
			return cmp.Compare(a, b), nil
		}
	case arrow.Timestamp:
		if b, ok := r.Any().(arrow.Timestamp); ok {
			return cmp.Compare(a, b), nil
		}
	default:
		if c, ok := compareNumeric(l.Any(), r.Any()); ok {
			return c, nil
		}
	}
	return 0, fmt.Errorf("can not compare %T with %T", l.Any(), r.Any())
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

type number struct {
	kind int // 1 signed, 2 unsigned, 3 float
	i    int64
	u    uint64
	f    float64
}

func toNumber(x any) (number, bool) {
	switch x := x.(type) {
	case int8:
		return number{kind: 1, i: int64(x)}, true
	case int16:
		return number{kind: 1, i: int64(x)}, true
	case int32:
		return number{kind: 1, i: int64(x)}, true
	case int64:
		return number{kind: 1, i: x}, true
	case uint8:
		return number{kind: 2, u: uint64(x)}, true
	case uint16:
		return number{kind: 2, u: uint64(x)}, true
	case uint32:
		return number{kind: 2, u: uint64(x)}, true
	case uint64:
		return number{kind: 2, u: x}, true
	case float32:
		return number{kind: 3, f: float64(x)}, true
	case float64:
		return number{kind: 3, f: x}, true
	}
	return number{}, false
}

func (n number) float() float64 {
	switch n.kind {
	case 1:
		return float64(n.i)
	case 2:
		return float64(n.u)
	}
	return n.f
}

func compareNumeric(l, r any) (int, bool) {
	a, okA := toNumber(l)
	b, okB := toNumber(r)
	if !okA || !okB {
		return 0, false
	}
	switch {
	case a.kind == 3 || b.kind == 3:
		return cmp.Compare(a.float(), b.float()), true
	case a.kind == 1 && b.kind == 1:
		return cmp.Compare(a.i, b.i), true
	case a.kind == 2 && b.kind == 2:
		return cmp.Compare(a.u, b.u), true
	case a.kind == 1:
		if a.i < 0 {
			return -1, true
		}
		return cmp.Compare(uint64(a.i), b.u), true
	default:
		if b.i < 0 {
			return 1, true
		}
		return cmp.Compare(a.u, uint64(b.i)), true
	}
}
