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
	"testing"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	pb "github.com/substrait-io/substrait-protobuf/go/substraitpb"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/milvus-io/milvus-flow/internal/flow/expr"
	"github.com/milvus-io/milvus-flow/internal/flow/repr"
	"github.com/milvus-io/milvus-flow/pkg/util/merr"
)

const (
	col0 = `{"selection":{"directReference":{"structField":{"field":0}},"rootReference":{}}}`
	col1 = `{"selection":{"directReference":{"structField":{"field":1}},"rootReference":{}}}`
	col2 = `{"selection":{"directReference":{"structField":{"field":2}},"rootReference":{}}}`
)

func rex(t *testing.T, s string) *pb.Expression {
	t.Helper()
	e := &pb.Expression{}
	require.NoError(t, protojson.Unmarshal([]byte(s), e))
	return e
}

func i64(v string) string {
	return `{"literal":{"i64":"` + v + `"}}`
}

func fp64(v string) string {
	return `{"literal":{"fp64":` + v + `}}`
}

func call(anchor string, args ...string) string {
	s := `{"scalarFunction":{"functionReference":` + anchor + `,"arguments":[`
	for i, a := range args {
		if i > 0 {
			s += ","
		}
		s += `{"value":` + a + `}`
	}
	return s + `]}}`
}

type ExprSuite struct {
	suite.Suite
	schema     repr.RelationType
	extensions *FunctionExtensions
	tctx       *Context
}

func (s *ExprSuite) SetupSuite() {
	s.schema = repr.NewRelationType(
		repr.NewColumnType(arrow.PrimitiveTypes.Uint32, false),
		repr.NewNullable(arrow.FixedWidthTypes.Boolean),
		repr.NewNullable(arrow.PrimitiveTypes.Int64),
	)
	s.extensions = NewFunctionExtensions(map[uint32]string{
		0: "and:bool",
		1: "or:bool",
		2: "not:bool",
		3: "add:i64_i64",
		4: "equal:any_any",
		5: "divide:i64_i64",
		6: "gte:any_any",
		7: "now",
		8: "coalesce:any",
		9: "is_null:any",
	})
	s.tctx = NewContext(nil, WithoutPlanCache())
}

func (s *ExprSuite) translate(e string) (expr.TypedExpr, error) {
	return s.tctx.FromSubstraitRex(rex(s.T(), e), s.schema, s.extensions)
}

func (s *ExprSuite) TestColumn() {
	te, err := s.translate(col2)
	s.Require().NoError(err)
	s.Equal(expr.NewTypedExpr(expr.NewColumn(2), repr.NewNullable(arrow.PrimitiveTypes.Int64)), te)

	_, err = s.translate(`{"selection":{"directReference":{"structField":{"field":3}},"rootReference":{}}}`)
	s.ErrorIs(err, merr.ErrInvalidInput)

	_, err = s.translate(`{"selection":{"directReference":{"structField":{"field":0,"child":{"structField":{"field":0}}}},"rootReference":{}}}`)
	s.ErrorIs(err, merr.ErrUnsupportedFeature)

	_, err = s.translate(`{"selection":{"directReference":{"listElement":{"offset":0}},"rootReference":{}}}`)
	s.ErrorIs(err, merr.ErrUnsupportedFeature)
}

func (s *ExprSuite) TestLiteral() {
	te, err := s.translate(i64("7"))
	s.Require().NoError(err)
	s.Equal(expr.NewTypedExpr(expr.NewLiteral(repr.NewValue(int64(7)), arrow.PrimitiveTypes.Int64),
		repr.NewNullable(arrow.PrimitiveTypes.Int64)), te)

	te, err = s.translate(`{"literal":{"null":{"string":{"nullability":"NULLABILITY_NULLABLE"}}}}`)
	s.Require().NoError(err)
	s.Equal("NULL::utf8", te.Expr.String())
}

func (s *ExprSuite) TestFlattenConjunction() {
	te, err := s.translate(call("0", call("0", col1, col1), call("0", call("2", col1), col1)))
	s.Require().NoError(err)
	s.Equal("and(#1, #1, not(#1), #1)", te.Expr.String())
	s.Equal(repr.NewNullable(arrow.FixedWidthTypes.Boolean), te.Typ)

	// different functions are not spliced
	te, err = s.translate(call("1", call("0", col1, col1), col1))
	s.Require().NoError(err)
	s.Equal("or(and(#1, #1), #1)", te.Expr.String())

	// and with a single argument is still variadic
	te, err = s.translate(call("0", col1))
	s.Require().NoError(err)
	s.IsType(&expr.CallVariadic{}, te.Expr)
}

func (s *ExprSuite) TestImplicitCast() {
	te, err := s.translate(call("3", col0, i64("1")))
	s.Require().NoError(err)
	s.Equal("add_uint32(#0, 1::uint32)", te.Expr.String())
	s.Equal(repr.NewNullable(arrow.PrimitiveTypes.Uint32), te.Typ)

	// literal on the left
	te, err = s.translate(call("6", i64("10"), col0))
	s.Require().NoError(err)
	s.Equal("gte(10::uint32, #0)", te.Expr.String())

	_, err = s.translate(call("6", col0, i64("-1")))
	s.ErrorIs(err, merr.ErrTypeMismatch)

	_, err = s.translate(call("4", col0, col2))
	s.ErrorIs(err, merr.ErrTypeMismatch)
}

func (s *ExprSuite) TestNonLiteralNotFolded() {
	te, err := s.translate(call("3", col2, col2))
	s.Require().NoError(err)
	s.Equal(expr.NewCallBinary(expr.BinaryFunc{Op: expr.BinaryAdd, InputType: arrow.INT64}, expr.NewColumn(2), expr.NewColumn(2)), te.Expr)
}

func (s *ExprSuite) TestConstantFolding() {
	te, err := s.translate(call("4", call("3", i64("1"), i64("2")), i64("3")))
	s.Require().NoError(err)
	s.Equal(expr.NewTypedExpr(expr.NewLiteral(repr.NewValue(true), arrow.FixedWidthTypes.Boolean),
		repr.NewNullable(arrow.FixedWidthTypes.Boolean)), te)

	te, err = s.translate(call("3", `{"literal":{"null":{"i64":{}}}}`, i64("1")))
	s.Require().NoError(err)
	s.Equal("NULL::int64", te.Expr.String())

	_, err = s.translate(call("5", i64("1"), i64("0")))
	s.ErrorIs(err, merr.ErrEvalFailed)

	_, err = s.translate(call("3", i64("9223372036854775807"), i64("1")))
	s.ErrorIs(err, merr.ErrEvalFailed)
}

func (s *ExprSuite) TestMixedNumericLiterals() {
	for _, args := range [][2]string{{i64("1"), fp64("1.5")}, {fp64("1.5"), i64("1")}} {
		te, err := s.translate(call("4", args[0], args[1]))
		s.Require().NoError(err)
		s.Equal(expr.NewLiteral(repr.NewValue(false), arrow.FixedWidthTypes.Boolean), te.Expr)
	}

	te, err := s.translate(call("4", i64("2"), fp64("2")))
	s.Require().NoError(err)
	s.Equal(expr.NewLiteral(repr.NewValue(true), arrow.FixedWidthTypes.Boolean), te.Expr)

	te, err = s.translate(call("3", i64("1"), fp64("1.5")))
	s.Require().NoError(err)
	s.Equal(expr.NewLiteral(repr.NewValue(2.5), arrow.PrimitiveTypes.Float64), te.Expr)
	s.Equal(repr.NewNullable(arrow.PrimitiveTypes.Float64), te.Typ)

	// a fractional literal never narrows to an integer column
	_, err = s.translate(call("4", col0, fp64("1.5")))
	s.ErrorIs(err, merr.ErrTypeMismatch)
	_, err = s.translate(call("4", fp64("1.5"), col0))
	s.ErrorIs(err, merr.ErrTypeMismatch)

	te, err = s.translate(call("4", col0, fp64("2")))
	s.Require().NoError(err)
	s.Equal("eq(#0, 2::uint32)", te.Expr.String())
}

func (s *ExprSuite) TestFoldOutputType() {
	untyped := expr.Signature{Input: []arrow.DataType{arrow.Null, arrow.Null}, Output: arrow.Null}
	args := []expr.ScalarExpr{expr.NullLiteral(), expr.NewLiteral(repr.Null(), arrow.PrimitiveTypes.Int8)}
	s.Equal(arrow.PrimitiveTypes.Int8, foldOutputType(untyped, args))
	s.True(repr.IsNullType(foldOutputType(untyped, []expr.ScalarExpr{expr.NullLiteral(), expr.NullLiteral()})))

	typedInput := expr.Signature{Input: []arrow.DataType{arrow.Null, arrow.PrimitiveTypes.Int16}, Output: arrow.Null}
	s.Equal(arrow.PrimitiveTypes.Int16, foldOutputType(typedInput, args))

	s.Equal(arrow.FixedWidthTypes.Boolean, foldOutputType(expr.Signature{Output: arrow.FixedWidthTypes.Boolean}, args))
}

func (s *ExprSuite) TestUnaryAndUnmaterializable() {
	te, err := s.translate(call("9", col2))
	s.Require().NoError(err)
	s.Equal("is_null(#2)", te.Expr.String())
	s.Equal(repr.NewNullable(arrow.FixedWidthTypes.Boolean), te.Typ)

	te, err = s.translate(call("7"))
	s.Require().NoError(err)
	s.Equal(expr.NewCallUnmaterializable(expr.UnmaterializableNow), te.Expr)
	s.Equal(repr.NewNullable(repr.TimestampMillisecond), te.Typ)

	_, err = s.translate(call("8", col0, col0, col0))
	s.ErrorIs(err, merr.ErrUnsupportedFeature)

	_, err = s.translate(call("8", col0))
	s.ErrorIs(err, merr.ErrUnsupportedFunction)
}

func (s *ExprSuite) TestFunctionReference() {
	_, err := s.translate(call("99", col0))
	s.ErrorIs(err, merr.ErrFunctionReferenceNotFound)

	_, err = s.translate(`{"scalarFunction":{"functionReference":3,"arguments":[{"enum":"x"},{"value":` + col0 + `}]}}`)
	s.ErrorIs(err, merr.ErrUnsupportedFeature)
}

func (s *ExprSuite) TestIfThen() {
	te, err := s.translate(`{"ifThen":{"ifs":[{"if":` + col1 + `,"then":` + col0 + `}]}}`)
	s.Require().NoError(err)
	s.Equal("if(#1, #0, NULL::null)", te.Expr.String())
	// non-null then branch, NULL else branch
	s.Equal(repr.NewNullable(arrow.PrimitiveTypes.Uint32), te.Typ)

	te, err = s.translate(`{"ifThen":{"ifs":[{"if":` + col1 + `,"then":` + col0 + `},{"if":` + col1 + `,"then":` + col0 + `}],"else":` + col0 + `}}`)
	s.Require().NoError(err)
	s.Equal("if(#1, #0, if(#1, #0, #0))", te.Expr.String())
	s.Equal(repr.NewColumnType(arrow.PrimitiveTypes.Uint32, false), te.Typ)

	// an untyped then branch takes the type of the rest of the chain
	te, err = s.translate(`{"ifThen":{"ifs":[{"if":` + col1 + `,"then":{"ifThen":{}}}],"else":` + col2 + `}}`)
	s.Require().NoError(err)
	s.Equal(repr.NewNullable(arrow.PrimitiveTypes.Int64), te.Typ)

	_, err = s.translate(`{"ifThen":{"ifs":[{"then":` + col0 + `}]}}`)
	s.ErrorIs(err, merr.ErrInvalidInput)
	_, err = s.translate(`{"ifThen":{"ifs":[{"if":` + col1 + `}]}}`)
	s.ErrorIs(err, merr.ErrInvalidInput)
}

func (s *ExprSuite) TestCast() {
	te, err := s.translate(`{"cast":{"type":{"i16":{"nullability":"NULLABILITY_REQUIRED"}},"input":` + i64("1") + `}}`)
	s.Require().NoError(err)
	s.Equal("cast<int16>(1::int64)", te.Expr.String())
	s.Equal(repr.NewNullable(arrow.PrimitiveTypes.Int16), te.Typ)

	_, err = s.translate(`{"cast":{"type":{"i16":{}}}}`)
	s.ErrorIs(err, merr.ErrInvalidInput)
	_, err = s.translate(`{"cast":{"input":` + i64("1") + `}}`)
	s.ErrorIs(err, merr.ErrInvalidInput)
}

func (s *ExprSuite) TestSingularOrList() {
	te, err := s.translate(`{"singularOrList":{"value":` + col0 + `}}`)
	s.Require().NoError(err)
	s.Equal(expr.NewColumn(0), te.Expr)

	_, err = s.translate(`{"singularOrList":{"value":` + col0 + `,"options":[` + i64("1") + `]}}`)
	s.ErrorIs(err, merr.ErrUnsupportedFeature)

	_, err = s.translate(`{"singularOrList":{}}`)
	s.ErrorIs(err, merr.ErrInvalidInput)
}

func (s *ExprSuite) TestUnsupported() {
	_, err := s.translate(`{"windowFunction":{"functionReference":0}}`)
	s.ErrorIs(err, merr.ErrUnsupportedFeature)
	s.Contains(err.Error(), "aggregate")

	_, err = s.translate(`{}`)
	s.ErrorIs(err, merr.ErrUnsupportedFeature)
}

func (s *ExprSuite) TestDepthGuard() {
	nested := call("2", call("2", call("2", col1)))

	shallow := NewContext(nil, WithoutPlanCache(), WithMaxDepth(3))
	_, err := shallow.FromSubstraitRex(rex(s.T(), nested), s.schema, s.extensions)
	s.ErrorIs(err, merr.ErrInvalidInput)

	deep := NewContext(nil, WithoutPlanCache(), WithMaxDepth(4))
	te, err := deep.FromSubstraitRex(rex(s.T(), nested), s.schema, s.extensions)
	s.Require().NoError(err)
	s.Equal("not(not(not(#1)))", te.Expr.String())
}

func (s *ExprSuite) TestPackageLevel() {
	te, err := FromSubstraitRex(rex(s.T(), call("3", col0, col0)), s.schema, s.extensions)
	s.Require().NoError(err)
	s.Equal("add_uint32(#0, #0)", te.Expr.String())
}

func TestExpr(t *testing.T) {
	suite.Run(t, new(ExprSuite))
}

func TestFromSubstraitType(t *testing.T) {
	cases := []struct {
		json string
		want repr.ColumnType
	}{
		{`{"bool":{"nullability":"NULLABILITY_REQUIRED"}}`, repr.NewColumnType(arrow.FixedWidthTypes.Boolean, false)},
		{`{"i32":{"nullability":"NULLABILITY_NULLABLE"}}`, repr.NewNullable(arrow.PrimitiveTypes.Int32)},
		{`{"fp64":{}}`, repr.NewNullable(arrow.PrimitiveTypes.Float64)},
		{`{"varchar":{"length":10,"nullability":"NULLABILITY_REQUIRED"}}`, repr.NewColumnType(arrow.BinaryTypes.String, false)},
		{`{"fixedBinary":{"length":4}}`, repr.NewNullable(arrow.BinaryTypes.Binary)},
		{`{"date":{}}`, repr.NewNullable(arrow.FixedWidthTypes.Date32)},
		{`{"decimal":{"precision":10,"scale":2}}`, repr.NewNullable(&arrow.Decimal128Type{Precision: 10, Scale: 2})},
	}
	for _, c := range cases {
		typ := &pb.Type{}
		require.NoError(t, protojson.Unmarshal([]byte(c.json), typ))
		got, err := FromSubstraitType(typ)
		require.NoError(t, err, c.json)
		assert.True(t, c.want.Equal(got), "%s: got %s", c.json, got)
	}

	_, err := FromSubstraitType(nil)
	assert.ErrorIs(t, err, merr.ErrInvalidInput)

	typ := &pb.Type{}
	require.NoError(t, protojson.Unmarshal([]byte(`{"decimal":{"precision":50,"scale":2}}`), typ))
	_, err = FromSubstraitType(typ)
	assert.ErrorIs(t, err, merr.ErrInvalidInput)

	require.NoError(t, protojson.Unmarshal([]byte(`{"list":{"type":{"i32":{}}}}`), typ))
	_, err = FromSubstraitType(typ)
	assert.ErrorIs(t, err, merr.ErrUnsupportedFeature)
}

func TestFromSubstraitLiteral(t *testing.T) {
	decode := func(s string) (repr.Value, arrow.DataType, error) {
		lit := &pb.Expression_Literal{}
		require.NoError(t, protojson.Unmarshal([]byte(s), lit))
		return FromSubstraitLiteral(lit)
	}

	v, typ, err := decode(`{"decimal":{"value":"g////////////////////w==","precision":10,"scale":2}}`)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("-1.25").Equal(v.Any().(decimal.Decimal)))
	assert.Equal(t, &arrow.Decimal128Type{Precision: 10, Scale: 2}, typ)

	v, _, err = decode(`{"decimal":{"value":"OTAAAAAAAAAAAAAAAAAAAA==","precision":10,"scale":2}}`)
	require.NoError(t, err)
	assert.Equal(t, "123.45", v.String())

	_, _, err = decode(`{"decimal":{"value":"AAA=","precision":10,"scale":2}}`)
	assert.ErrorIs(t, err, merr.ErrInvalidInput)

	v, typ, err = decode(`{"string":"flow"}`)
	require.NoError(t, err)
	assert.Equal(t, repr.NewValue("flow"), v)
	assert.Equal(t, arrow.BinaryTypes.String, typ)

	v, typ, err = decode(`{"i8":-3}`)
	require.NoError(t, err)
	assert.Equal(t, repr.NewValue(int8(-3)), v)
	assert.Equal(t, arrow.PrimitiveTypes.Int8, typ)

	v, typ, err = decode(`{"date":19000}`)
	require.NoError(t, err)
	assert.Equal(t, repr.NewValue(arrow.Date32(19000)), v)
	assert.Equal(t, arrow.FixedWidthTypes.Date32, typ)

	v, typ, err = decode(`{"null":{"fp32":{}}}`)
	require.NoError(t, err)
	assert.True(t, v.IsNull())
	assert.Equal(t, arrow.PrimitiveTypes.Float32, typ)

	_, _, err = decode(`{}`)
	assert.ErrorIs(t, err, merr.ErrInvalidInput)

	_, _, err = decode(`{"uuid":"AAAAAAAAAAAAAAAAAAAAAA=="}`)
	assert.ErrorIs(t, err, merr.ErrUnsupportedFeature)
}

func TestFunctionExtensions(t *testing.T) {
	p := &pb.Plan{}
	require.NoError(t, protojson.Unmarshal([]byte(`{"extensions":[
		{"extensionFunction":{"functionAnchor":1,"name":"GTE:any_any"}},
		{"extensionType":{"typeAnchor":2,"name":"point"}}
	]}`), p))
	ext := FunctionExtensionsFromPlan(p)
	assert.Equal(t, 1, ext.Len())
	name, err := ext.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "gte", name)

	_, err = ext.Get(2)
	assert.ErrorIs(t, err, merr.ErrFunctionReferenceNotFound)

	var empty *FunctionExtensions
	_, err = empty.Get(0)
	assert.ErrorIs(t, err, merr.ErrFunctionReferenceNotFound)
}
