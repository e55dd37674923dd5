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
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Value is a single datum. The zero Value is NULL.
//
// Non-null payloads are one of bool, int8..int64, uint8..uint64, float32,
// float64, string, []byte, decimal.Decimal, arrow.Date32, arrow.Time64 and
// arrow.Timestamp.
type Value struct {
	v any
}

// Null returns the NULL value.
func Null() Value {
	return Value{}
}

// NewValue wraps a Go value. Untyped ints are stored as int64 and nil as NULL.
func NewValue(x any) Value {
	switch x := x.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case int:
		return Value{v: int64(x)}
	case uint:
		return Value{v: uint64(x)}
	case *decimal.Decimal:
		if x == nil {
			return Value{}
		}
		return Value{v: *x}
	case time.Time:
		return Value{v: arrow.Timestamp(x.UnixMicro())}
	}
	return Value{v: x}
}

func (v Value) IsNull() bool {
	return v.v == nil
}

// Any returns the payload, nil for NULL.
func (v Value) Any() any {
	return v.v
}

// AsBool returns the payload if it is a bool.
func (v Value) AsBool() (bool, bool) {
	b, ok := v.v.(bool)
	return b, ok
}

// DefaultType returns the scalar type a payload maps to when no type is
// declared for it. Timestamps default to microseconds.
func (v Value) DefaultType() arrow.DataType {
	switch x := v.v.(type) {
	case nil:
		return arrow.Null
	case bool:
		return arrow.FixedWidthTypes.Boolean
	case int8:
		return arrow.PrimitiveTypes.Int8
	case int16:
		return arrow.PrimitiveTypes.Int16
	case int32:
		return arrow.PrimitiveTypes.Int32
	case int64:
		return arrow.PrimitiveTypes.Int64
	case uint8:
		return arrow.PrimitiveTypes.Uint8
	case uint16:
		return arrow.PrimitiveTypes.Uint16
	case uint32:
		return arrow.PrimitiveTypes.Uint32
	case uint64:
		return arrow.PrimitiveTypes.Uint64
	case float32:
		return arrow.PrimitiveTypes.Float32
	case float64:
		return arrow.PrimitiveTypes.Float64
	case string:
		return arrow.BinaryTypes.String
	case []byte:
		return arrow.BinaryTypes.Binary
	case decimal.Decimal:
		return &arrow.Decimal128Type{Precision: 38, Scale: -x.Exponent()}
	case arrow.Date32:
		return arrow.FixedWidthTypes.Date32
	case arrow.Time64:
		return arrow.FixedWidthTypes.Time64us
	case arrow.Timestamp:
		return TimestampMicrosecond
	}
	return arrow.Null
}

func (v Value) String() string {
	switch x := v.v.(type) {
	case nil:
		return "NULL"
	case string:
		return strconv.Quote(x)
	case []byte:
		return fmt.Sprintf("0x%x", x)
	case decimal.Decimal:
		return x.String()
	case arrow.Date32:
		return x.ToTime().Format("2006-01-02")
	case arrow.Time64:
		return x.ToTime(arrow.Microsecond).Format("15:04:05.999999")
	case arrow.Timestamp:
		return strconv.FormatInt(int64(x), 10)
	}
	if s, err := cast.ToStringE(v.v); err == nil {
		return s
	}
	return fmt.Sprintf("%v", v.v)
}

// Equal reports whether both values hold the same payload kind and datum.
// NULL equals NULL here; SQL comparison semantics live in the evaluator.
func (v Value) Equal(o Value) bool {
	if v.IsNull() || o.IsNull() {
		return v.IsNull() && o.IsNull()
	}
	switch x := v.v.(type) {
	case []byte:
		y, ok := o.v.([]byte)
		return ok && bytes.Equal(x, y)
	case decimal.Decimal:
		y, ok := o.v.(decimal.Decimal)
		return ok && x.Equal(y)
	case float64:
		y, ok := o.v.(float64)
		return ok && (x == y || (math.IsNaN(x) && math.IsNaN(y)))
	case float32:
		y, ok := o.v.(float32)
		return ok && (x == y || (math.IsNaN(float64(x)) && math.IsNaN(float64(y))))
	}
	return v.v == o.v
}
