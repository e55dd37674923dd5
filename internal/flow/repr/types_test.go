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

package repr

import (
	"math"
	"testing"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeFromName(t *testing.T) {
	cases := []struct {
		name string
		want arrow.DataType
	}{
		{"uint32", arrow.PrimitiveTypes.Uint32},
		{" Boolean ", arrow.FixedWidthTypes.Boolean},
		{"string", arrow.BinaryTypes.String},
		{"timestamp[ms]", TimestampMillisecond},
		{"decimal(10,2)", &arrow.Decimal128Type{Precision: 10, Scale: 2}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := TypeFromName(c.name)
			require.NoError(t, err)
			assert.True(t, TypeEqual(c.want, got), "want %s, got %s", c.want, got)
		})
	}

	_, err := TypeFromName("decimal(40,2)")
	assert.Error(t, err)
	_, err = TypeFromName("varchar")
	assert.ErrorContains(t, err, "unknown type name")
	_, err = TypeFromName("decimal(50,2)")
	assert.Error(t, err)
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, IsNullType(nil))
	assert.True(t, IsNullType(arrow.Null))
	assert.False(t, IsNullType(arrow.PrimitiveTypes.Int8))

	assert.True(t, TypeEqual(nil, arrow.Null))
	assert.False(t, TypeEqual(nil, arrow.PrimitiveTypes.Int64))

	assert.True(t, IsNumeric(arrow.PrimitiveTypes.Uint16))
	assert.True(t, IsNumeric(arrow.PrimitiveTypes.Float32))
	assert.False(t, IsNumeric(arrow.BinaryTypes.String))
	assert.True(t, IsSignedInteger(arrow.PrimitiveTypes.Int32))
	assert.False(t, IsSignedInteger(arrow.PrimitiveTypes.Uint32))
	assert.Equal(t, "null", TypeString(nil))
}

func TestColumnType(t *testing.T) {
	nn := NewColumnType(arrow.PrimitiveTypes.Uint32, false)
	n := NewNullable(arrow.PrimitiveTypes.Int64)

	assert.Equal(t, "uint32", nn.String())
	assert.Equal(t, "int64?", n.String())

	u := nn.Union(n)
	assert.True(t, u.Nullable)
	assert.True(t, TypeEqual(arrow.PrimitiveTypes.Uint32, u.ScalarType))
	assert.False(t, nn.Equal(u))
	assert.True(t, NewColumnType(nil, true).Equal(NewNullable(arrow.Null)))
	assert.Equal(t, "null", NewColumnType(nil, false).String())

	rel := NewRelationType(nn, n)
	assert.Equal(t, 2, rel.Len())
	assert.Equal(t, "(uint32, int64?)", rel.String())
	c, ok := rel.Column(1)
	assert.True(t, ok)
	assert.True(t, c.Equal(n))
	_, ok = rel.Column(2)
	assert.False(t, ok)
	_, ok = rel.Column(-1)
	assert.False(t, ok)

	assert.True(t, rel.Equal(NewRelationType(nn, NewNullable(arrow.PrimitiveTypes.Int64))))
	assert.False(t, rel.Equal(NewRelationType(n, nn)))
	assert.False(t, rel.Equal(NewRelationType(nn)))
}

func TestValue(t *testing.T) {
	assert.True(t, Null().IsNull())
	assert.True(t, NewValue(nil).IsNull())
	assert.Equal(t, int64(3), NewValue(3).Any())
	assert.Equal(t, uint64(3), NewValue(uint(3)).Any())

	b, ok := NewValue(true).AsBool()
	assert.True(t, ok)
	assert.True(t, b)
	_, ok = NewValue(int64(1)).AsBool()
	assert.False(t, ok)

	d := decimal.RequireFromString("1.25")
	cases := []struct {
		v    Value
		typ  arrow.DataType
		text string
	}{
		{Null(), arrow.Null, "NULL"},
		{NewValue(int64(-4)), arrow.PrimitiveTypes.Int64, "-4"},
		{NewValue(uint32(7)), arrow.PrimitiveTypes.Uint32, "7"},
		{NewValue(1.5), arrow.PrimitiveTypes.Float64, "1.5"},
		{NewValue(false), arrow.FixedWidthTypes.Boolean, "false"},
		{NewValue("a"), arrow.BinaryTypes.String, `"a"`},
		{NewValue([]byte{0xab}), arrow.BinaryTypes.Binary, "0xab"},
		{NewValue(d), &arrow.Decimal128Type{Precision: 38, Scale: 2}, "1.25"},
		{NewValue(arrow.Date32(0)), arrow.FixedWidthTypes.Date32, "1970-01-01"},
		{NewValue(arrow.Timestamp(12)), TimestampMicrosecond, "12"},
	}
	for _, c := range cases {
		assert.True(t, TypeEqual(c.typ, c.v.DefaultType()), "%s: got %s", c.text, c.v.DefaultType())
		assert.Equal(t, c.text, c.v.String())
	}
}

func TestValueEqual(t *testing.T) {
	assert.True(t, Null().Equal(Null()))
	assert.False(t, Null().Equal(NewValue(int64(0))))
	assert.False(t, NewValue(int64(1)).Equal(NewValue(int32(1))))
	assert.True(t, NewValue([]byte("x")).Equal(NewValue([]byte("x"))))
	assert.True(t, NewValue(decimal.RequireFromString("1.50")).Equal(NewValue(decimal.RequireFromString("1.5"))))

	assert.True(t, NewValue(math.NaN()).Equal(NewValue(math.NaN())))
}

func TestRow(t *testing.T) {
	r := NewRow(NewValue(int64(1)), Null(), NewValue("x"))
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, `(1, NULL, "x")`, r.String())

	v, ok := r.Get(1)
	assert.True(t, ok)
	assert.True(t, v.IsNull())
	_, ok = r.Get(3)
	assert.False(t, ok)

	assert.True(t, r.Equal(NewRow(NewValue(int64(1)), Null(), NewValue("x"))))
	assert.False(t, r.Equal(r[:2]))
}

func TestGlobalID(t *testing.T) {
	assert.Equal(t, "u0", NewUserID(0).String())
	assert.Equal(t, "s12", NewSystemID(12).String())
	assert.NotEqual(t, NewUserID(1), NewSystemID(1))
}

func TestWidenNumeric(t *testing.T) {
	p := arrow.PrimitiveTypes
	cases := []struct {
		a, b arrow.DataType
		want arrow.DataType
	}{
		{p.Int64, p.Int64, p.Int64},
		{p.Int64, p.Float64, p.Float64},
		{p.Float32, p.Int8, p.Float64},
		{p.Float32, p.Float64, p.Float64},
		{p.Int8, p.Int32, p.Int32},
		{p.Uint64, p.Uint16, p.Uint64},
		{p.Int8, p.Uint8, p.Int16},
		{p.Uint16, p.Int64, p.Int64},
		{p.Uint32, p.Int16, p.Int64},
		{p.Uint64, p.Int32, p.Int64},
	}
	for _, c := range cases {
		got, ok := WidenNumeric(c.a, c.b)
		require.True(t, ok)
		assert.True(t, TypeEqual(c.want, got), "%s, %s: got %s", c.a, c.b, got)
		got, _ = WidenNumeric(c.b, c.a)
		assert.True(t, TypeEqual(c.want, got), "%s, %s: got %s", c.b, c.a, got)
	}

	_, ok := WidenNumeric(p.Int64, arrow.BinaryTypes.String)
	assert.False(t, ok)
	_, ok = WidenNumeric(arrow.Null, p.Int64)
	assert.False(t, ok)
}
