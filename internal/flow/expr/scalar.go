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
	"fmt"
	"strings"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/samber/lo"

	"github.com/milvus-io/milvus-flow/internal/flow/repr"
)

// ScalarExpr is a row-level expression. The set of implementations is
// closed: Column, Literal, CallUnary, CallBinary, CallVariadic, If and
// CallUnmaterializable. Expressions are trees and are not mutated once
// built.
type ScalarExpr interface {
	fmt.Stringer
	isScalarExpr()
}

// Column references the Index-th column of the input row.
type Column struct {
	Index int
}

// Literal is a constant value with its scalar type.
type Literal struct {
	Value repr.Value
	Type  arrow.DataType
}

type CallUnary struct {
	Func UnaryFunc
	Expr ScalarExpr
}

type CallBinary struct {
	Func  BinaryFunc
	Left  ScalarExpr
	Right ScalarExpr
}

type CallVariadic struct {
	Func  VariadicFunc
	Exprs []ScalarExpr
}

// If evaluates Then when Cond is true and Else when it is false or NULL.
type If struct {
	Cond ScalarExpr
	Then ScalarExpr
	Else ScalarExpr
}

// CallUnmaterializable is a call whose value depends on the evaluation
// context, so it can never be folded.
type CallUnmaterializable struct {
	Func UnmaterializableFunc
}

func (*Column) isScalarExpr()               {}
func (*Literal) isScalarExpr()              {}
func (*CallUnary) isScalarExpr()            {}
func (*CallBinary) isScalarExpr()           {}
func (*CallVariadic) isScalarExpr()         {}
func (*If) isScalarExpr()                   {}
func (*CallUnmaterializable) isScalarExpr() {}

func NewColumn(index int) *Column {
	return &Column{Index: index}
}

func NewLiteral(v repr.Value, typ arrow.DataType) *Literal {
	if typ == nil {
		typ = arrow.Null
	}
	return &Literal{Value: v, Type: typ}
}

// NullLiteral is the untyped NULL.
func NullLiteral() *Literal {
	return NewLiteral(repr.Null(), arrow.Null)
}

func NewCallUnary(f UnaryFunc, e ScalarExpr) *CallUnary {
	return &CallUnary{Func: f, Expr: e}
}

func NewCallBinary(f BinaryFunc, left, right ScalarExpr) *CallBinary {
	return &CallBinary{Func: f, Left: left, Right: right}
}

func NewCallVariadic(f VariadicFunc, exprs ...ScalarExpr) *CallVariadic {
	return &CallVariadic{Func: f, Exprs: exprs}
}

func NewIf(cond, then, els ScalarExpr) *If {
	return &If{Cond: cond, Then: then, Else: els}
}

func NewCallUnmaterializable(f UnmaterializableFunc) *CallUnmaterializable {
	return &CallUnmaterializable{Func: f}
}

func (e *Column) String() string {
	return fmt.Sprintf("#%d", e.Index)
}

func (e *Literal) String() string {
	if e.Value.IsNull() {
		return "NULL::" + repr.TypeString(e.Type)
	}
	return e.Value.String() + "::" + repr.TypeString(e.Type)
}

func (e *CallUnary) String() string {
	return fmt.Sprintf("%s(%s)", e.Func, e.Expr)
}

func (e *CallBinary) String() string {
	return fmt.Sprintf("%s(%s, %s)", e.Func, e.Left, e.Right)
}

func (e *CallVariadic) String() string {
	return fmt.Sprintf("%s(%s)", e.Func, joinExprs(e.Exprs))
}

func (e *If) String() string {
	return fmt.Sprintf("if(%s, %s, %s)", e.Cond, e.Then, e.Else)
}

func (e *CallUnmaterializable) String() string {
	return e.Func.String() + "()"
}

func joinExprs(exprs []ScalarExpr) string {
	return strings.Join(lo.Map(exprs, func(e ScalarExpr, _ int) string {
		return e.String()
	}), ", ")
}

// IsLiteral reports whether e is a Literal.
func IsLiteral(e ScalarExpr) bool {
	_, ok := e.(*Literal)
	return ok
}

// Children returns the direct sub-expressions of e in evaluation order.
func Children(e ScalarExpr) []ScalarExpr {
	switch e := e.(type) {
	case *Column, *Literal, *CallUnmaterializable:
		return nil
	case *CallUnary:
		return []ScalarExpr{e.Expr}
	case *CallBinary:
		return []ScalarExpr{e.Left, e.Right}
	case *CallVariadic:
		return e.Exprs
	case *If:
		return []ScalarExpr{e.Cond, e.Then, e.Else}
	default:
		panic(fmt.Sprintf("unexpected scalar expression %T", e))
	}
}

// Visit calls fn on e and every descendant, parents first.
func Visit(e ScalarExpr, fn func(ScalarExpr)) {
	fn(e)
	for _, child := range Children(e) {
		Visit(child, fn)
	}
}

// MaxColumn returns the largest column index referenced by e, or -1.
func MaxColumn(e ScalarExpr) int {
	maxCol := -1
	Visit(e, func(e ScalarExpr) {
		if c, ok := e.(*Column); ok && c.Index > maxCol {
			maxCol = c.Index
		}
	})
	return maxCol
}

// TypedExpr is a scalar expression together with its output column type.
type TypedExpr struct {
	Expr ScalarExpr
	Typ  repr.ColumnType
}

func NewTypedExpr(e ScalarExpr, typ repr.ColumnType) TypedExpr {
	return TypedExpr{Expr: e, Typ: typ}
}

func (t TypedExpr) String() string {
	return fmt.Sprintf("%s: %s", t.Expr, t.Typ)
}
