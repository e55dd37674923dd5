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

	"github.com/milvus-io/milvus-flow/pkg/util/merr"
)

func TestCastValue(t *testing.T) {
	cases := []struct {
		name string
		in   Value
		from arrow.DataType
		to   arrow.DataType
		want Value
	}{
		{"int64 to uint32", NewValue(int64(1)), arrow.PrimitiveTypes.Int64, arrow.PrimitiveTypes.Uint32, NewValue(uint32(1))},
		{"int64 to int16", NewValue(int64(-7)), arrow.PrimitiveTypes.Int64, arrow.PrimitiveTypes.Int16, NewValue(int16(-7))},
		{"float truncates", NewValue(2.9), arrow.PrimitiveTypes.Float64, arrow.PrimitiveTypes.Int32, NewValue(int32(2))},
		{"negative float truncates", NewValue(-2.9), arrow.PrimitiveTypes.Float64, arrow.PrimitiveTypes.Int64, NewValue(int64(-2))},
		{"int to float", NewValue(int32(3)), arrow.PrimitiveTypes.Int32, arrow.PrimitiveTypes.Float64, NewValue(3.0)},
		{"int to bool", NewValue(int64(2)), arrow.PrimitiveTypes.Int64, arrow.FixedWidthTypes.Boolean, NewValue(true)},
		{"bool to int", NewValue(true), arrow.FixedWidthTypes.Boolean, arrow.PrimitiveTypes.Int8, NewValue(int8(1))},
		{"int to string", NewValue(int64(42)), arrow.PrimitiveTypes.Int64, arrow.BinaryTypes.String, NewValue("42")},
		{"string to int", NewValue(" 42 "), arrow.BinaryTypes.String, arrow.PrimitiveTypes.Uint64, NewValue(uint64(42))},
		{"string to bool", NewValue("true"), arrow.BinaryTypes.String, arrow.FixedWidthTypes.Boolean, NewValue(true)},
		{"string to binary", NewValue("ab"), arrow.BinaryTypes.String, arrow.BinaryTypes.Binary, NewValue([]byte("ab"))},
		{"string to date", NewValue("1970-01-11"), arrow.BinaryTypes.String, arrow.FixedWidthTypes.Date32, NewValue(arrow.Date32(10))},
		{"int to date", NewValue(int64(3)), arrow.PrimitiveTypes.Int64, arrow.FixedWidthTypes.Date32, NewValue(arrow.Date32(3))},
		{"date to timestamp ms", NewValue(arrow.Date32(1)), arrow.FixedWidthTypes.Date32, TimestampMillisecond, NewValue(arrow.Timestamp(86_400_000))},
		{"timestamp us to ms", NewValue(arrow.Timestamp(1_500)), TimestampMicrosecond, TimestampMillisecond, NewValue(arrow.Timestamp(1))},
		{"timestamp us to ms floors", NewValue(arrow.Timestamp(-1_500)), TimestampMicrosecond, TimestampMillisecond, NewValue(arrow.Timestamp(-2))},
		{"timestamp ms to us", NewValue(arrow.Timestamp(2)), TimestampMillisecond, TimestampMicrosecond, NewValue(arrow.Timestamp(2_000))},
		{"timestamp to date", NewValue(arrow.Timestamp(86_400_000_001)), TimestampMicrosecond, arrow.FixedWidthTypes.Date32, NewValue(arrow.Date32(1))},
		{"int to timestamp", NewValue(int64(5)), arrow.PrimitiveTypes.Int64, TimestampMillisecond, NewValue(arrow.Timestamp(5))},
		{"string to timestamp", NewValue("1970-01-01 00:00:01"), arrow.BinaryTypes.String, TimestampMillisecond, NewValue(arrow.Timestamp(1_000))},
		{"string to time", NewValue("00:00:01.5"), arrow.BinaryTypes.String, arrow.FixedWidthTypes.Time64us, NewValue(arrow.Time64(1_500_000))},
		{"date to string", NewValue(arrow.Date32(0)), arrow.FixedWidthTypes.Date32, arrow.BinaryTypes.String, NewValue("1970-01-01")},
		{"null to anything", Null(), arrow.Null, arrow.PrimitiveTypes.Int8, Null()},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := CastValue(c.in, c.from, c.to)
			require.NoError(t, err)
			assert.True(t, c.want.Equal(got), "want %s, got %s", c.want, got)
			assert.Equal(t, c.want.Any(), got.Any())
		})
	}
}

func TestCastDecimal(t *testing.T) {
	dec := &arrow.Decimal128Type{Precision: 5, Scale: 2}

	got, err := CastValue(NewValue("123.456"), arrow.BinaryTypes.String, dec)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("123.46").Equal(got.Any().(decimal.Decimal)))

	got, err = CastValue(NewValue(int64(7)), arrow.PrimitiveTypes.Int64, dec)
	require.NoError(t, err)
	assert.Equal(t, "7", got.Any().(decimal.Decimal).String())

	_, err = CastValue(NewValue(int64(1234)), arrow.PrimitiveTypes.Int64, dec)
	assert.ErrorIs(t, err, merr.ErrTypeMismatch)

	got, err = CastValue(NewValue(decimal.RequireFromString("-9.99")), dec, arrow.PrimitiveTypes.Int32)
	require.NoError(t, err)
	assert.Equal(t, int32(-9), got.Any())
}

func TestCastFailures(t *testing.T) {
	cases := []struct {
		name string
		in   Value
		to   arrow.DataType
	}{
		{"int overflow", NewValue(int64(300)), arrow.PrimitiveTypes.Int8},
		{"negative to unsigned", NewValue(int64(-1)), arrow.PrimitiveTypes.Uint64},
		{"unsigned to signed overflow", NewValue(uint64(math.MaxUint64)), arrow.PrimitiveTypes.Int64},
		{"nan to int", NewValue(math.NaN()), arrow.PrimitiveTypes.Int32},
		{"huge float to int", NewValue(1e30), arrow.PrimitiveTypes.Int64},
		{"float64 to float32 overflow", NewValue(1e300), arrow.PrimitiveTypes.Float32},
		{"bad string to int", NewValue("abc"), arrow.PrimitiveTypes.Int32},
		{"bad string to bool", NewValue("maybe"), arrow.FixedWidthTypes.Boolean},
		{"bad date", NewValue("2024-13-40"), arrow.FixedWidthTypes.Date32},
		{"value to null type", NewValue(int64(1)), arrow.Null},
		{"int to binary", NewValue(int64(1)), arrow.BinaryTypes.Binary},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := CastValue(c.in, nil, c.to)
			assert.ErrorIs(t, err, merr.ErrTypeMismatch)
		})
	}
}

func TestImplicitCastValue(t *testing.T) {
	dec := &arrow.Decimal128Type{Precision: 10, Scale: 1}

	v, err := ImplicitCastValue(NewValue(2.0), arrow.PrimitiveTypes.Float64, arrow.PrimitiveTypes.Uint32)
	require.NoError(t, err)
	assert.Equal(t, NewValue(uint32(2)), v)

	v, err = ImplicitCastValue(NewValue(1.5), arrow.PrimitiveTypes.Float64, dec)
	require.NoError(t, err)
	assert.True(t, v.Equal(NewValue(decimal.RequireFromString("1.5"))))

	v, err = ImplicitCastValue(Null(), arrow.PrimitiveTypes.Float64, arrow.PrimitiveTypes.Int8)
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	lossy := []struct {
		name string
		in   Value
		to   arrow.DataType
	}{
		{"fractional float to int", NewValue(1.5), arrow.PrimitiveTypes.Int64},
		{"negative fractional float to int", NewValue(float32(-0.25)), arrow.PrimitiveTypes.Int32},
		{"fractional decimal to int", NewValue(decimal.RequireFromString("2.5")), arrow.PrimitiveTypes.Int64},
		{"decimal losing scale", NewValue(decimal.RequireFromString("1.25")), dec},
		{"float losing scale", NewValue(0.125), dec},
	}
	for _, c := range lossy {
		t.Run(c.name, func(t *testing.T) {
			_, err := ImplicitCastValue(c.in, nil, c.to)
			assert.ErrorIs(t, err, merr.ErrTypeMismatch)

			// explicit casts still truncate or round
			_, err = CastValue(c.in, nil, c.to)
			assert.NoError(t, err)
		})
	}
}
