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
	"github.com/milvus-io/milvus-flow/pkg/util/merr"
)

var (
	unaryFuncs = map[string]UnaryOp{
		"not":            UnaryNot,
		"is_null":        UnaryIsNull,
		"is_not_null":    UnaryIsNotNull,
		"is_true":        UnaryIsTrue,
		"is_false":       UnaryIsFalse,
		"step_timestamp": UnaryStepTimestamp,
		"cast":           UnaryCast,
	}

	binaryFuncs = map[string]BinaryOp{
		"eq":        BinaryEq,
		"equal":     BinaryEq,
		"not_eq":    BinaryNotEq,
		"not_equal": BinaryNotEq,
		"lt":        BinaryLt,
		"lte":       BinaryLte,
		"gt":        BinaryGt,
		"gte":       BinaryGte,
		"add":       BinaryAdd,
		"sub":       BinarySub,
		"subtract":  BinarySub,
		"mul":       BinaryMul,
		"multiply":  BinaryMul,
		"div":       BinaryDiv,
		"divide":    BinaryDiv,
		"mod":       BinaryMod,
		"modulus":   BinaryMod,
	}

	variadicFuncs = map[string]VariadicFunc{
		"and": VariadicAnd,
		"or":  VariadicOr,
	}

	unmaterializableFuncs = map[string]UnmaterializableFunc{
		"now":            UnmaterializableNow,
		"current_schema": UnmaterializableCurrentSchema,
	}

	// arithmetic is specialized on these input types
	numericTypes = map[arrow.Type]arrow.DataType{
		arrow.INT8:    arrow.PrimitiveTypes.Int8,
		arrow.INT16:   arrow.PrimitiveTypes.Int16,
		arrow.INT32:   arrow.PrimitiveTypes.Int32,
		arrow.INT64:   arrow.PrimitiveTypes.Int64,
		arrow.UINT8:   arrow.PrimitiveTypes.Uint8,
		arrow.UINT16:  arrow.PrimitiveTypes.Uint16,
		arrow.UINT32:  arrow.PrimitiveTypes.Uint32,
		arrow.UINT64:  arrow.PrimitiveTypes.Uint64,
		arrow.FLOAT32: arrow.PrimitiveTypes.Float32,
		arrow.FLOAT64: arrow.PrimitiveTypes.Float64,
	}
)

// NormalizeFuncName lower-cases name and drops a ":signature" suffix, so
// "gte:any_any" becomes "gte".
func NormalizeFuncName(name string) string {
	name, _, _ = strings.Cut(name, ":")
	return strings.ToLower(strings.TrimSpace(name))
}

// UnaryFromName looks up a unary function. castTo is required for "cast"
// and ignored otherwise.
func UnaryFromName(name string, castTo arrow.DataType) (UnaryFunc, error) {
	op, ok := unaryFuncs[NormalizeFuncName(name)]
	if !ok {
		return UnaryFunc{}, merr.WrapErrUnsupportedFunction(name, "unknown unary function")
	}
	if op != UnaryCast {
		return UnaryFunc{Op: op}, nil
	}
	if castTo == nil {
		return UnaryFunc{}, merr.WrapErrUnsupportedFunction(name, "cast requires a target type")
	}
	return NewCast(castTo), nil
}

// VariadicFromName looks up a variadic function.
func VariadicFromName(name string) (VariadicFunc, error) {
	f, ok := variadicFuncs[NormalizeFuncName(name)]
	if !ok {
		return 0, merr.WrapErrUnsupportedFunction(name, "unknown variadic function")
	}
	return f, nil
}

// UnmaterializableFromName looks up a function that depends on evaluation
// context.
func UnmaterializableFromName(name string) (UnmaterializableFunc, error) {
	f, ok := unmaterializableFuncs[NormalizeFuncName(name)]
	if !ok {
		return 0, merr.WrapErrUnsupportedFunction(name, "unknown unmaterializable function")
	}
	return f, nil
}

// BinaryFromName resolves a binary function against its arguments.
// argTypes[i] is nil when args[i] is a literal whose type can still be
// negotiated, otherwise it is the fixed type of the argument.
//
// The query type is the fixed type of the arguments (two different fixed
// types are a mismatch). Without one it is the widened numeric type of the
// non-null literals, so 1 = 1.5 and 1.5 = 1 both compare as float64, or the
// first literal type for non-numeric literals, else untyped. Arithmetic is
// specialized on it. The returned signature has both inputs set to the query
// type.
func BinaryFromName(name string, args []ScalarExpr, argTypes []arrow.DataType) (BinaryFunc, Signature, error) {
	op, ok := binaryFuncs[NormalizeFuncName(name)]
	if !ok {
		return BinaryFunc{}, Signature{}, merr.WrapErrUnsupportedFunction(name, "unknown binary function")
	}
	if len(args) != 2 || len(argTypes) != 2 {
		return BinaryFunc{}, Signature{}, merr.WrapErrInvalidInput("binary function %s expects 2 arguments, got %d", name, len(args))
	}
	query, err := queryType(name, args, argTypes)
	if err != nil {
		return BinaryFunc{}, Signature{}, err
	}

	if op.IsComparison() {
		return BinaryFunc{Op: op}, Signature{
			Input:   []arrow.DataType{query, query},
			Output:  arrow.FixedWidthTypes.Boolean,
			Generic: "T",
		}, nil
	}

	if repr.IsNullType(query) {
		return BinaryFunc{Op: op, InputType: arrow.NULL}, Signature{
			Input:  []arrow.DataType{arrow.Null, arrow.Null},
			Output: arrow.Null,
		}, nil
	}
	if _, ok := numericTypes[query.ID()]; !ok {
		return BinaryFunc{}, Signature{}, merr.WrapErrUnsupportedFunction(name,
			"no specialization for input type "+repr.TypeString(query))
	}
	f := BinaryFunc{Op: op, InputType: query.ID()}
	return f, Signature{
		Input:  []arrow.DataType{query, query},
		Output: query,
	}, nil
}

func queryType(name string, args []ScalarExpr, argTypes []arrow.DataType) (arrow.DataType, error) {
	fixed := lo.Filter(argTypes, func(t arrow.DataType, _ int) bool {
		return !repr.IsNullType(t)
	})
	if len(fixed) > 0 {
		for _, t := range fixed[1:] {
			if !repr.TypeEqual(fixed[0], t) {
				return nil, merr.WrapErrTypeMismatch(repr.TypeString(fixed[0]), repr.TypeString(t),
					"arguments of "+name+" have different types")
			}
		}
		return fixed[0], nil
	}
	var query arrow.DataType = arrow.Null
	for _, arg := range args {
		lit, ok := arg.(*Literal)
		if !ok || repr.IsNullType(lit.Type) {
			continue
		}
		if repr.IsNullType(query) {
			query = lit.Type
			continue
		}
		// non-numeric mixes keep the first type and fail in the literal cast
		if wide, ok := repr.WidenNumeric(query, lit.Type); ok {
			query = wide
		}
	}
	return query, nil
}

// ResolvedFunc is the outcome of Resolve: the class of the function, the
// function of that class and the signature to type the call with.
type ResolvedFunc struct {
	Class            FuncClass
	Unary            UnaryFunc
	Binary           BinaryFunc
	Variadic         VariadicFunc
	Unmaterializable UnmaterializableFunc
	Signature        Signature
}

// Resolve picks the function a call of name with the given arguments
// refers to. Variadic functions win ties because and/or may be called
// with one or two arguments:
//
//   - one argument: variadic, else unary;
//   - two arguments: variadic, else binary;
//   - otherwise: variadic, else unmaterializable.
func Resolve(name string, args []ScalarExpr, argTypes []arrow.DataType) (ResolvedFunc, error) {
	if f, err := VariadicFromName(name); err == nil {
		return ResolvedFunc{Class: ClassVariadic, Variadic: f, Signature: f.Signature()}, nil
	}

	switch len(args) {
	case 1:
		f, err := UnaryFromName(name, nil)
		if err != nil {
			return ResolvedFunc{}, err
		}
		return ResolvedFunc{Class: ClassUnary, Unary: f, Signature: f.Signature()}, nil
	case 2:
		f, sig, err := BinaryFromName(name, args, argTypes)
		if err != nil {
			return ResolvedFunc{}, err
		}
		return ResolvedFunc{Class: ClassBinary, Binary: f, Signature: sig}, nil
	default:
		f, err := UnmaterializableFromName(name)
		if err != nil {
			return ResolvedFunc{}, merr.Combine(err,
				merr.WrapErrUnsupportedFeature("unsupported function %s with %d arguments", name, len(args)))
		}
		return ResolvedFunc{Class: ClassUnmaterializable, Unmaterializable: f, Signature: f.Signature()}, nil
	}
}
