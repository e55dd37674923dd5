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

package transform

import (
	"github.com/apache/arrow/go/v12/arrow"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	pb "github.com/substrait-io/substrait-protobuf/go/substraitpb"
	"go.uber.org/zap"

	"github.com/milvus-io/milvus-flow/internal/flow/expr"
	"github.com/milvus-io/milvus-flow/internal/flow/repr"
	"github.com/milvus-io/milvus-flow/pkg/log"
	"github.com/milvus-io/milvus-flow/pkg/metrics"
	"github.com/milvus-io/milvus-flow/pkg/util/merr"
	"github.com/milvus-io/milvus-flow/pkg/util/paramtable"
)

// FromSubstraitRex translates a substrait expression evaluated against rows
// of schema. Function anchors are resolved through extensions.
func FromSubstraitRex(e *pb.Expression, schema repr.RelationType, extensions *FunctionExtensions) (expr.TypedExpr, error) {
	depth := paramtable.Get().FlowCfg.MaxExprDepth.GetAsInt()
	if depth <= 0 {
		depth = paramtable.DefaultMaxExprDepth
	}
	return newRexTranslator(schema, extensions, depth).translate(e, 1)
}

// FromSubstraitRex is the package level FromSubstraitRex bounded by the
// depth limit of c.
func (c *Context) FromSubstraitRex(e *pb.Expression, schema repr.RelationType, extensions *FunctionExtensions) (expr.TypedExpr, error) {
	return newRexTranslator(schema, extensions, c.maxDepth).translate(e, 1)
}

type rexTranslator struct {
	schema     repr.RelationType
	extensions *FunctionExtensions
	maxDepth   int
}

func newRexTranslator(schema repr.RelationType, extensions *FunctionExtensions, maxDepth int) *rexTranslator {
	return &rexTranslator{
		schema:     schema,
		extensions: extensions,
		maxDepth:   maxDepth,
	}
}

func (t *rexTranslator) translate(e *pb.Expression, depth int) (expr.TypedExpr, error) {
	if depth > t.maxDepth {
		return expr.TypedExpr{}, merr.WrapErrInvalidInput("expression nested deeper than %d", t.maxDepth)
	}
	if e == nil {
		return expr.TypedExpr{}, merr.WrapErrInvalidInput("missing expression")
	}

	switch {
	case e.GetLiteral() != nil:
		v, typ, err := FromSubstraitLiteral(e.GetLiteral())
		if err != nil {
			return expr.TypedExpr{}, err
		}
		return expr.NewTypedExpr(expr.NewLiteral(v, typ), repr.NewNullable(typ)), nil

	case e.GetSingularOrList() != nil:
		s := e.GetSingularOrList()
		if s.GetValue() == nil {
			return expr.TypedExpr{}, merr.WrapErrInvalidInput("SingularOrList expression without value")
		}
		if len(s.GetOptions()) > 0 {
			return expr.TypedExpr{}, merr.WrapErrUnsupportedFeature("IN list expression")
		}
		return t.translate(s.GetValue(), depth+1)

	case e.GetSelection() != nil:
		return t.fieldReference(e.GetSelection())

	case e.GetScalarFunction() != nil:
		return t.scalarFunction(e.GetScalarFunction(), depth)

	case e.GetIfThen() != nil:
		return t.ifThen(e.GetIfThen(), depth)

	case e.GetCast() != nil:
		return t.cast(e.GetCast(), depth)

	case e.GetWindowFunction() != nil:
		return expr.TypedExpr{}, merr.WrapErrUnsupportedFeature("window function is not supported yet, use aggregate functions instead")

	default:
		return expr.TypedExpr{}, merr.WrapErrUnsupportedFeature("expression of kind %T", e.GetRexType())
	}
}

func (t *rexTranslator) fieldReference(ref *pb.Expression_FieldReference) (expr.TypedExpr, error) {
	direct := ref.GetDirectReference()
	if direct == nil {
		return expr.TypedExpr{}, merr.WrapErrUnsupportedFeature("field reference of kind %T", ref.GetReferenceType())
	}
	field := direct.GetStructField()
	if field == nil {
		return expr.TypedExpr{}, merr.WrapErrUnsupportedFeature("direct reference of kind %T", direct.GetReferenceType())
	}
	if field.GetChild() != nil {
		return expr.TypedExpr{}, merr.WrapErrUnsupportedFeature("struct field reference with child")
	}
	index := int(field.GetField())
	typ, ok := t.schema.Column(index)
	if !ok {
		return expr.TypedExpr{}, merr.WrapErrInvalidInput("column #%d out of range, input has %d columns", index, t.schema.Len())
	}
	return expr.NewTypedExpr(expr.NewColumn(index), typ), nil
}

func (t *rexTranslator) scalarFunction(f *pb.Expression_ScalarFunction, depth int) (expr.TypedExpr, error) {
	name, err := t.extensions.Get(f.GetFunctionReference())
	if err != nil {
		return expr.TypedExpr{}, err
	}

	args := make([]expr.ScalarExpr, 0, len(f.GetArguments()))
	// nil marks a literal whose type is decided by the function
	argTypes := make([]arrow.DataType, 0, len(f.GetArguments()))
	for i, arg := range f.GetArguments() {
		if arg.GetValue() == nil {
			return expr.TypedExpr{}, merr.WrapErrUnsupportedFeature("argument %d of %s is not a value", i, name)
		}
		te, err := t.translate(arg.GetValue(), depth+1)
		if err != nil {
			return expr.TypedExpr{}, err
		}
		args = append(args, te.Expr)
		if expr.IsLiteral(te.Expr) {
			argTypes = append(argTypes, nil)
		} else {
			argTypes = append(argTypes, te.Typ.ScalarType)
		}
	}

	resolved, err := expr.Resolve(name, args, argTypes)
	if err != nil {
		return expr.TypedExpr{}, err
	}
	sig := resolved.Signature

	switch resolved.Class {
	case expr.ClassUnary:
		return expr.NewTypedExpr(expr.NewCallUnary(resolved.Unary, args[0]), repr.NewNullable(sig.Output)), nil
	case expr.ClassBinary:
		return t.binaryCall(resolved.Binary, sig, args)
	case expr.ClassVariadic:
		call := expr.FlattenVariadic(expr.NewCallVariadic(resolved.Variadic, args...))
		return expr.NewTypedExpr(call, repr.NewNullable(sig.Output)), nil
	case expr.ClassUnmaterializable:
		return expr.NewTypedExpr(expr.NewCallUnmaterializable(resolved.Unmaterializable), repr.NewNullable(sig.Output)), nil
	default:
		return expr.TypedExpr{}, merr.WrapErrServiceInternal("function resolved to class "+resolved.Class.String(), name)
	}
}

// binaryCall folds a call over two literals into a literal. Otherwise the
// literal arguments are cast to the input types of sig.
func (t *rexTranslator) binaryCall(f expr.BinaryFunc, sig expr.Signature, args []expr.ScalarExpr) (expr.TypedExpr, error) {
	if lo.EveryBy(args, expr.IsLiteral) {
		return foldBinary(f, sig, args)
	}

	args = append([]expr.ScalarExpr(nil), args...)
	for i, arg := range args {
		lit, ok := arg.(*expr.Literal)
		if !ok {
			continue
		}
		dest := sig.Input[i]
		v := lit.Value
		if !repr.IsNullType(dest) {
			var err error
			v, err = repr.ImplicitCastValue(lit.Value, lit.Type, dest)
			if err != nil {
				return expr.TypedExpr{}, errors.Wrapf(err, "failed to implicitly cast literal %s to %s", lit, repr.TypeString(dest))
			}
		}
		args[i] = expr.NewLiteral(v, dest)
	}
	return expr.NewTypedExpr(expr.NewCallBinary(f, args[0], args[1]), repr.NewNullable(f.Signature().Output)), nil
}

func foldBinary(f expr.BinaryFunc, sig expr.Signature, args []expr.ScalarExpr) (expr.TypedExpr, error) {
	values := make([]repr.Value, len(args))
	for i, arg := range args {
		lit := arg.(*expr.Literal)
		values[i] = lit.Value
		if dest := sig.Input[i]; !repr.IsNullType(dest) {
			v, err := repr.ImplicitCastValue(lit.Value, lit.Type, dest)
			if err != nil {
				return expr.TypedExpr{}, errors.Wrapf(err, "failed to implicitly cast literal %s to %s", lit, repr.TypeString(dest))
			}
			values[i] = v
		}
	}
	res, err := f.Eval(values[0], values[1])
	if err != nil {
		return expr.TypedExpr{}, err
	}
	typ := foldOutputType(sig, args)
	metrics.ConstantFoldTotal.Inc()
	log.Debug("constant folded binary call",
		zap.Stringer("func", f),
		zap.Stringer("result", res))
	return expr.NewTypedExpr(expr.NewLiteral(res, typ), repr.NewNullable(typ)), nil
}

// foldOutputType is the output type of sig, or when that is untyped the
// first typed input of sig, or the first typed literal argument.
func foldOutputType(sig expr.Signature, args []expr.ScalarExpr) arrow.DataType {
	if !repr.IsNullType(sig.Output) {
		return sig.Output
	}
	if t, ok := lo.Find(sig.Input, func(t arrow.DataType) bool { return !repr.IsNullType(t) }); ok {
		return t
	}
	for _, arg := range args {
		if lit, ok := arg.(*expr.Literal); ok && !repr.IsNullType(lit.Type) {
			return lit.Type
		}
	}
	return arrow.Null
}

type ifClause struct {
	cond expr.TypedExpr
	then expr.TypedExpr
}

// ifThen builds a right associated chain of If. A node takes the type of
// its then branch, or of the rest of the chain when that branch is an
// untyped NULL, and is nullable when either side is.
func (t *rexTranslator) ifThen(it *pb.Expression_IfThen, depth int) (expr.TypedExpr, error) {
	clauses := make([]ifClause, 0, len(it.GetIfs()))
	for i, clause := range it.GetIfs() {
		if clause.GetIf() == nil {
			return expr.TypedExpr{}, merr.WrapErrInvalidInput("IfThen clause %d without if", i)
		}
		if clause.GetThen() == nil {
			return expr.TypedExpr{}, merr.WrapErrInvalidInput("IfThen clause %d without then", i)
		}
		cond, err := t.translate(clause.GetIf(), depth+1)
		if err != nil {
			return expr.TypedExpr{}, err
		}
		then, err := t.translate(clause.GetThen(), depth+1)
		if err != nil {
			return expr.TypedExpr{}, err
		}
		clauses = append(clauses, ifClause{cond: cond, then: then})
	}

	els := expr.NewTypedExpr(expr.NullLiteral(), repr.NewNullable(arrow.Null))
	if it.GetElse() != nil {
		var err error
		els, err = t.translate(it.GetElse(), depth+1)
		if err != nil {
			return expr.TypedExpr{}, err
		}
	}

	chain := els
	for i := len(clauses) - 1; i >= 0; i-- {
		c := clauses[i]
		typ := c.then.Typ
		if repr.IsNullType(typ.ScalarType) {
			typ.ScalarType = chain.Typ.ScalarType
		}
		typ = typ.Union(chain.Typ)
		chain = expr.NewTypedExpr(expr.NewIf(c.cond.Expr, c.then.Expr, chain.Expr), typ)
	}
	return chain, nil
}

func (t *rexTranslator) cast(c *pb.Expression_Cast, depth int) (expr.TypedExpr, error) {
	if c.GetInput() == nil {
		return expr.TypedExpr{}, merr.WrapErrInvalidInput("Cast expression without input")
	}
	if c.GetType() == nil {
		return expr.TypedExpr{}, merr.WrapErrInvalidInput("Cast expression without type")
	}
	input, err := t.translate(c.GetInput(), depth+1)
	if err != nil {
		return expr.TypedExpr{}, err
	}
	target, err := FromSubstraitType(c.GetType())
	if err != nil {
		return expr.TypedExpr{}, err
	}
	f, err := expr.UnaryFromName("cast", target.ScalarType)
	if err != nil {
		return expr.TypedExpr{}, err
	}
	return expr.NewTypedExpr(expr.NewCallUnary(f, input.Expr), repr.NewNullable(target.ScalarType)), nil
}
