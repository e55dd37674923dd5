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
	"strings"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/samber/lo"

	"github.com/milvus-io/milvus-flow/internal/flow/repr"
)

// FuncClass is the calling convention of a function.
type FuncClass int

const (
	ClassUnary FuncClass = iota + 1
	ClassBinary
	ClassVariadic
	ClassUnmaterializable
)

func (c FuncClass) String() string {
	switch c {
	case ClassUnary:
		return "unary"
	case ClassBinary:
		return "binary"
	case ClassVariadic:
		return "variadic"
	case ClassUnmaterializable:
		return "unmaterializable"
	}
	return "unknown"
}

// Signature describes the argument and return types of a function. An
// untyped (null) input accepts any type; Generic names the type parameter
// such an input is bound to, if any.
type Signature struct {
	Input   []arrow.DataType
	Output  arrow.DataType
	Generic string
}

func (s Signature) String() string {
	in := strings.Join(lo.Map(s.Input, func(t arrow.DataType, _ int) string {
		return repr.TypeString(t)
	}), ", ")
	return "(" + in + ") -> " + repr.TypeString(s.Output)
}

type UnaryOp int

const (
	UnaryNot UnaryOp = iota + 1
	UnaryIsNull
	UnaryIsNotNull
	UnaryIsTrue
	UnaryIsFalse
	UnaryStepTimestamp
	UnaryCast
)

var unaryOpNames = map[UnaryOp]string{
	UnaryNot:           "not",
	UnaryIsNull:        "is_null",
	UnaryIsNotNull:     "is_not_null",
	UnaryIsTrue:        "is_true",
	UnaryIsFalse:       "is_false",
	UnaryStepTimestamp: "step_timestamp",
	UnaryCast:          "cast",
}

// UnaryFunc is a one-argument function. CastTo is only set for UnaryCast.
type UnaryFunc struct {
	Op     UnaryOp
	CastTo arrow.DataType
}

// NewCast returns the unary cast to typ.
func NewCast(typ arrow.DataType) UnaryFunc {
	return UnaryFunc{Op: UnaryCast, CastTo: typ}
}

func (f UnaryFunc) String() string {
	if f.Op == UnaryCast {
		return "cast<" + repr.TypeString(f.CastTo) + ">"
	}
	return unaryOpNames[f.Op]
}

func (f UnaryFunc) Signature() Signature {
	switch f.Op {
	case UnaryNot:
		return Signature{
			Input:  []arrow.DataType{arrow.FixedWidthTypes.Boolean},
			Output: arrow.FixedWidthTypes.Boolean,
		}
	case UnaryIsNull, UnaryIsNotNull:
		return Signature{
			Input:   []arrow.DataType{arrow.Null},
			Output:  arrow.FixedWidthTypes.Boolean,
			Generic: "T",
		}
	case UnaryIsTrue, UnaryIsFalse:
		return Signature{
			Input:  []arrow.DataType{arrow.FixedWidthTypes.Boolean},
			Output: arrow.FixedWidthTypes.Boolean,
		}
	case UnaryStepTimestamp:
		return Signature{
			Input:  []arrow.DataType{repr.TimestampMillisecond},
			Output: repr.TimestampMillisecond,
		}
	default:
		return Signature{
			Input:   []arrow.DataType{arrow.Null},
			Output:  f.CastTo,
			Generic: "T",
		}
	}
}

type BinaryOp int

const (
	BinaryEq BinaryOp = iota + 1
	BinaryNotEq
	BinaryLt
	BinaryLte
	BinaryGt
	BinaryGte
	BinaryAdd
	BinarySub
	BinaryMul
	BinaryDiv
	BinaryMod
)

var binaryOpNames = map[BinaryOp]string{
	BinaryEq:    "eq",
	BinaryNotEq: "not_eq",
	BinaryLt:    "lt",
	BinaryLte:   "lte",
	BinaryGt:    "gt",
	BinaryGte:   "gte",
	BinaryAdd:   "add",
	BinarySub:   "sub",
	BinaryMul:   "mul",
	BinaryDiv:   "div",
	BinaryMod:   "mod",
}

// IsComparison reports whether op yields a boolean from two operands of
// the same type.
func (op BinaryOp) IsComparison() bool {
	return op >= BinaryEq && op <= BinaryGte
}

func (op BinaryOp) String() string {
	return binaryOpNames[op]
}

// BinaryFunc is a two-argument function. Comparisons are generic and leave
// InputType as arrow.NULL; arithmetic is specialized per numeric type, so
// add over uint32 is {BinaryAdd, arrow.UINT32}.
type BinaryFunc struct {
	Op        BinaryOp
	InputType arrow.Type
}

func (f BinaryFunc) String() string {
	if f.Op.IsComparison() || f.InputType == arrow.NULL {
		return f.Op.String()
	}
	return f.Op.String() + "_" + strings.ToLower(f.InputType.String())
}

// Signature returns the declared signature. Comparisons report untyped
// inputs; resolution binds them to the query type.
func (f BinaryFunc) Signature() Signature {
	if f.Op.IsComparison() {
		return Signature{
			Input:   []arrow.DataType{arrow.Null, arrow.Null},
			Output:  arrow.FixedWidthTypes.Boolean,
			Generic: "T",
		}
	}
	t := numericTypes[f.InputType]
	if t == nil {
		t = arrow.Null
	}
	return Signature{
		Input:  []arrow.DataType{t, t},
		Output: t,
	}
}

type VariadicFunc int

const (
	VariadicAnd VariadicFunc = iota + 1
	VariadicOr
)

func (f VariadicFunc) String() string {
	if f == VariadicOr {
		return "or"
	}
	return "and"
}

func (f VariadicFunc) Signature() Signature {
	return Signature{
		Input:   []arrow.DataType{arrow.FixedWidthTypes.Boolean},
		Output:  arrow.FixedWidthTypes.Boolean,
		Generic: "variadic",
	}
}

type UnmaterializableFunc int

const (
	UnmaterializableNow UnmaterializableFunc = iota + 1
	UnmaterializableCurrentSchema
)

func (f UnmaterializableFunc) String() string {
	if f == UnmaterializableCurrentSchema {
		return "current_schema"
	}
	return "now"
}

func (f UnmaterializableFunc) Signature() Signature {
	if f == UnmaterializableCurrentSchema {
		return Signature{Input: []arrow.DataType{}, Output: arrow.BinaryTypes.String}
	}
	return Signature{Input: []arrow.DataType{}, Output: repr.TimestampMillisecond}
}
