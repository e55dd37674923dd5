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

package plan

import (
	"testing"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/milvus-io/milvus-flow/internal/flow/expr"
	"github.com/milvus-io/milvus-flow/internal/flow/repr"
	"github.com/milvus-io/milvus-flow/pkg/util/merr"
)

func TestPrintAsTree(t *testing.T) {
	u32 := arrow.PrimitiveTypes.Uint32
	mfp, err := expr.NewMapFilterProject(1).Map([]expr.ScalarExpr{
		expr.NewCallBinary(expr.BinaryFunc{Op: expr.BinaryAdd, InputType: arrow.UINT32},
			expr.NewColumn(0), expr.NewLiteral(repr.NewValue(uint32(1)), u32)),
	})
	require.NoError(t, err)
	mfp, err = mfp.Project([]int{1})
	require.NoError(t, err)

	tp := NewTypedPlan(repr.NewRelationType(repr.NewNullable(u32)), NewMfp(NewGet(repr.NewUserID(0)), mfp))
	assert.Equal(t, "TypedPlan (uint32?)\n"+
		"  Mfp arity=1\n"+
		"    map add_uint32(#0, 1::uint32)\n"+
		"    project [1]\n"+
		"    Get u0\n", PrintAsTree(tp))
	assert.Equal(t, []Plan{tp.Plan.(*Mfp).Input}, Children(tp.Plan))
	assert.Empty(t, Children(NewGet(repr.NewSystemID(1))))

	constant := NewTypedPlan(repr.NewRelationType(repr.NewNullable(arrow.FixedWidthTypes.Boolean)),
		NewConstant(repr.NewRow(repr.NewValue(true))))
	assert.Contains(t, PrintAsTree(constant), "(true) @-9223372036854775808 +1")
	assert.Equal(t, "Constant(rows=1): (bool?)", constant.String())
}

func TestNewConstant(t *testing.T) {
	c := NewConstant(repr.NewRow(repr.NewValue(int64(1))), repr.NewRow(repr.Null()))
	require.Len(t, c.Rows, 2)
	for _, r := range c.Rows {
		assert.Equal(t, repr.MinTimestamp, r.Time)
		assert.Equal(t, repr.Diff(1), r.Diff)
	}
}

type RecordSuite struct {
	suite.Suite
	mem *memory.CheckedAllocator
}

func (s *RecordSuite) SetupTest() {
	s.mem = memory.NewCheckedAllocator(memory.NewGoAllocator())
}

func (s *RecordSuite) TearDownTest() {
	s.mem.AssertSize(s.T(), 0)
}

func (s *RecordSuite) TestMaterialize() {
	typ := repr.NewRelationType(
		repr.NewColumnType(arrow.PrimitiveTypes.Int64, false),
		repr.NewNullable(arrow.BinaryTypes.String),
		repr.NewNullable(&arrow.Decimal128Type{Precision: 10, Scale: 2}),
		repr.NewNullable(arrow.PrimitiveTypes.Uint32),
	)
	c := &Constant{Rows: []ConstantRow{
		{Row: repr.NewRow(repr.NewValue(int64(7)), repr.NewValue("a"), repr.NewValue(decimal.RequireFromString("1.25")), repr.NewValue(int64(3))), Diff: 2},
		{Row: repr.NewRow(repr.NewValue(int64(8)), repr.Null(), repr.Null(), repr.Null()), Diff: 1},
		{Row: repr.NewRow(repr.NewValue(int64(9)), repr.NewValue("z"), repr.Null(), repr.Null()), Diff: 0},
	}}

	rec, err := c.ToRecord(s.mem, typ)
	s.Require().NoError(err)
	defer rec.Release()

	s.EqualValues(3, rec.NumRows())
	s.EqualValues(4, rec.NumCols())
	s.Equal("col_0", rec.ColumnName(0))

	ints := rec.Column(0).(*array.Int64)
	s.Equal([]int64{7, 7, 8}, ints.Int64Values())

	strs := rec.Column(1).(*array.String)
	s.Equal("a", strs.Value(1))
	s.True(strs.IsNull(2))

	decs := rec.Column(2).(*array.Decimal128)
	s.Equal(uint64(125), decs.Value(0).LowBits())

	// int64 payload cast to the column type
	s.Equal(uint32(3), rec.Column(3).(*array.Uint32).Value(0))
}

func (s *RecordSuite) TestInvalid() {
	typ := repr.NewRelationType(repr.NewColumnType(arrow.PrimitiveTypes.Int8, false))

	_, err := NewConstant(repr.NewRow(repr.Null())).ToRecord(s.mem, typ)
	s.ErrorIs(err, merr.ErrInvalidPlan)

	_, err = NewConstant(repr.NewRow(repr.NewValue(int64(1)), repr.NewValue(int64(2)))).ToRecord(s.mem, typ)
	s.ErrorIs(err, merr.ErrInvalidPlan)

	_, err = NewConstant(repr.NewRow(repr.NewValue(int64(1000)))).ToRecord(s.mem, typ)
	s.ErrorIs(err, merr.ErrTypeMismatch)

	_, err = (&Constant{Rows: []ConstantRow{{Row: repr.NewRow(repr.NewValue(int64(1))), Diff: -1}}}).ToRecord(s.mem, typ)
	s.ErrorIs(err, merr.ErrInvalidPlan)
}

func TestRecord(t *testing.T) {
	suite.Run(t, new(RecordSuite))
}
