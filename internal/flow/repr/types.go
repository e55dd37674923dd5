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
	"fmt"
	"slices"
	"strings"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/samber/lo"
)

// Timestamp types are built here instead of taken from arrow.FixedWidthTypes
// so they carry no time zone.
var (
	TimestampMicrosecond   arrow.DataType = &arrow.TimestampType{Unit: arrow.Microsecond}
	TimestampMillisecond   arrow.DataType = &arrow.TimestampType{Unit: arrow.Millisecond}
	TimestampMicrosecondTz arrow.DataType = &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
)

// IsNullType reports whether t is the untyped (null) scalar type.
func IsNullType(t arrow.DataType) bool {
	return t == nil || t.ID() == arrow.NULL
}

// TypeEqual is arrow.TypeEqual with nil treated as the null type.
func TypeEqual(a, b arrow.DataType) bool {
	if IsNullType(a) || IsNullType(b) {
		return IsNullType(a) && IsNullType(b)
	}
	return arrow.TypeEqual(a, b)
}

func IsSignedInteger(t arrow.DataType) bool {
	if t == nil {
		return false
	}
	switch t.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64:
		return true
	}
	return false
}

func IsUnsignedInteger(t arrow.DataType) bool {
	if t == nil {
		return false
	}
	switch t.ID() {
	case arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return true
	}
	return false
}

func IsFloating(t arrow.DataType) bool {
	return t != nil && (t.ID() == arrow.FLOAT32 || t.ID() == arrow.FLOAT64)
}

// IsNumeric reports whether t is an integer or floating point type.
func IsNumeric(t arrow.DataType) bool {
	return IsSignedInteger(t) || IsUnsignedInteger(t) || IsFloating(t)
}

var signedByWidth = map[int]arrow.DataType{
	8:  arrow.PrimitiveTypes.Int8,
	16: arrow.PrimitiveTypes.Int16,
	32: arrow.PrimitiveTypes.Int32,
	64: arrow.PrimitiveTypes.Int64,
}

func bitWidth(t arrow.DataType) int {
	if fw, ok := t.(arrow.FixedWidthDataType); ok {
		return fw.BitWidth()
	}
	return 0
}

// WidenNumeric returns the narrowest numeric type that holds values of both
// a and b. Integers mixed with floats widen to float64. Signed mixed with
// unsigned widens to a signed type wider than the unsigned one, capped at
// int64. ok is false unless both types are numeric.
func WidenNumeric(a, b arrow.DataType) (arrow.DataType, bool) {
	if !IsNumeric(a) || !IsNumeric(b) {
		return nil, false
	}
	switch {
	case TypeEqual(a, b):
		return a, true
	case IsFloating(a) || IsFloating(b):
		return arrow.PrimitiveTypes.Float64, true
	case IsSignedInteger(a) == IsSignedInteger(b):
		if bitWidth(a) >= bitWidth(b) {
			return a, true
		}
		return b, true
	}
	signed, unsigned := a, b
	if IsUnsignedInteger(a) {
		signed, unsigned = b, a
	}
	width := max(bitWidth(signed), 2*bitWidth(unsigned))
	return signedByWidth[min(width, 64)], true
}

// TypeString renders t, "null" for the untyped type.
func TypeString(t arrow.DataType) string {
	if IsNullType(t) {
		return "null"
	}
	return t.String()
}

var namedTypes = map[string]arrow.DataType{
	"null":          arrow.Null,
	"bool":          arrow.FixedWidthTypes.Boolean,
	"boolean":       arrow.FixedWidthTypes.Boolean,
	"int8":          arrow.PrimitiveTypes.Int8,
	"int16":         arrow.PrimitiveTypes.Int16,
	"int32":         arrow.PrimitiveTypes.Int32,
	"int64":         arrow.PrimitiveTypes.Int64,
	"uint8":         arrow.PrimitiveTypes.Uint8,
	"uint16":        arrow.PrimitiveTypes.Uint16,
	"uint32":        arrow.PrimitiveTypes.Uint32,
	"uint64":        arrow.PrimitiveTypes.Uint64,
	"float32":       arrow.PrimitiveTypes.Float32,
	"float64":       arrow.PrimitiveTypes.Float64,
	"utf8":          arrow.BinaryTypes.String,
	"string":        arrow.BinaryTypes.String,
	"binary":        arrow.BinaryTypes.Binary,
	"date32":        arrow.FixedWidthTypes.Date32,
	"time64[us]":    arrow.FixedWidthTypes.Time64us,
	"timestamp":     TimestampMicrosecond,
	"timestamp[us]": TimestampMicrosecond,
	"timestamp[ms]": TimestampMillisecond,
}

// TypeFromName parses the names used by tools and configs, e.g. "uint32",
// "timestamp[ms]" or "decimal(10,2)".
func TypeFromName(name string) (arrow.DataType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if t, ok := namedTypes[name]; ok {
		return t, nil
	}
	var precision, scale int32
	if _, err := fmt.Sscanf(name, "decimal(%d,%d)", &precision, &scale); err == nil {
		if precision <= 0 || precision > 38 || scale < 0 || scale > precision {
			return nil, fmt.Errorf("invalid decimal type %q", name)
		}
		return &arrow.Decimal128Type{Precision: precision, Scale: scale}, nil
	}
	return nil, fmt.Errorf("unknown type name %q, expect one of %s", name, strings.Join(lo.Keys(namedTypes), ","))
}

// ColumnType is the scalar type of a column together with its nullability.
type ColumnType struct {
	ScalarType arrow.DataType
	Nullable   bool
}

func NewColumnType(t arrow.DataType, nullable bool) ColumnType {
	if t == nil {
		t = arrow.Null
	}
	return ColumnType{ScalarType: t, Nullable: nullable}
}

// NewNullable returns the nullable column type of t.
func NewNullable(t arrow.DataType) ColumnType {
	return NewColumnType(t, true)
}

// Union keeps the scalar type of c and ORs the nullability with o.
func (c ColumnType) Union(o ColumnType) ColumnType {
	return ColumnType{ScalarType: c.ScalarType, Nullable: c.Nullable || o.Nullable}
}

func (c ColumnType) Equal(o ColumnType) bool {
	return c.Nullable == o.Nullable && TypeEqual(c.ScalarType, o.ScalarType)
}

func (c ColumnType) String() string {
	if c.Nullable {
		return TypeString(c.ScalarType) + "?"
	}
	return TypeString(c.ScalarType)
}

// RelationType is the ordered list of column types of a relation.
type RelationType struct {
	ColumnTypes []ColumnType
}

func NewRelationType(columns ...ColumnType) RelationType {
	return RelationType{ColumnTypes: columns}
}

func (r RelationType) Len() int {
	return len(r.ColumnTypes)
}

// Column returns the i-th column type; ok is false when i is out of range.
func (r RelationType) Column(i int) (ColumnType, bool) {
	if i < 0 || i >= len(r.ColumnTypes) {
		return ColumnType{}, false
	}
	return r.ColumnTypes[i], true
}

// Equal reports whether r and o have the same columns in the same order.
func (r RelationType) Equal(o RelationType) bool {
	return slices.EqualFunc(r.ColumnTypes, o.ColumnTypes, ColumnType.Equal)
}

func (r RelationType) String() string {
	return "(" + strings.Join(lo.Map(r.ColumnTypes, func(c ColumnType, _ int) string {
		return c.String()
	}), ", ") + ")"
}
