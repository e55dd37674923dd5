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
	"math/big"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/shopspring/decimal"
	pb "github.com/substrait-io/substrait-protobuf/go/substraitpb"

	"github.com/milvus-io/milvus-flow/internal/flow/repr"
	"github.com/milvus-io/milvus-flow/pkg/util/merr"
)

const decimalBytes = 16

// FromSubstraitLiteral decodes a literal into a value and its scalar type.
// Timestamps are microseconds since the epoch, times are microseconds
// since midnight and dates are days since the epoch.
func FromSubstraitLiteral(lit *pb.Expression_Literal) (repr.Value, arrow.DataType, error) {
	if lit == nil {
		return repr.Null(), nil, merr.WrapErrInvalidInput("missing literal")
	}
	switch l := lit.GetLiteralType().(type) {
	case *pb.Expression_Literal_Boolean:
		return repr.NewValue(l.Boolean), arrow.FixedWidthTypes.Boolean, nil
	case *pb.Expression_Literal_I8:
		return repr.NewValue(int8(l.I8)), arrow.PrimitiveTypes.Int8, nil
	case *pb.Expression_Literal_I16:
		return repr.NewValue(int16(l.I16)), arrow.PrimitiveTypes.Int16, nil
	case *pb.Expression_Literal_I32:
		return repr.NewValue(l.I32), arrow.PrimitiveTypes.Int32, nil
	case *pb.Expression_Literal_I64:
		return repr.NewValue(l.I64), arrow.PrimitiveTypes.Int64, nil
	case *pb.Expression_Literal_Fp32:
		return repr.NewValue(l.Fp32), arrow.PrimitiveTypes.Float32, nil
	case *pb.Expression_Literal_Fp64:
		return repr.NewValue(l.Fp64), arrow.PrimitiveTypes.Float64, nil
	case *pb.Expression_Literal_String_:
		return repr.NewValue(l.String_), arrow.BinaryTypes.String, nil
	case *pb.Expression_Literal_FixedChar:
		return repr.NewValue(l.FixedChar), arrow.BinaryTypes.String, nil
	case *pb.Expression_Literal_VarChar_:
		return repr.NewValue(l.VarChar.GetValue()), arrow.BinaryTypes.String, nil
	case *pb.Expression_Literal_Binary:
		return repr.NewValue(l.Binary), arrow.BinaryTypes.Binary, nil
	case *pb.Expression_Literal_FixedBinary:
		return repr.NewValue(l.FixedBinary), arrow.BinaryTypes.Binary, nil
	case *pb.Expression_Literal_Timestamp:
		return repr.NewValue(arrow.Timestamp(l.Timestamp)), repr.TimestampMicrosecond, nil
	case *pb.Expression_Literal_TimestampTz:
		return repr.NewValue(arrow.Timestamp(l.TimestampTz)), repr.TimestampMicrosecondTz, nil
	case *pb.Expression_Literal_Date:
		return repr.NewValue(arrow.Date32(l.Date)), arrow.FixedWidthTypes.Date32, nil
	case *pb.Expression_Literal_Time:
		return repr.NewValue(arrow.Time64(l.Time)), arrow.FixedWidthTypes.Time64us, nil
	case *pb.Expression_Literal_Decimal_:
		d, typ, err := decodeDecimal(l.Decimal)
		if err != nil {
			return repr.Null(), nil, err
		}
		return repr.NewValue(d), typ, nil
	case *pb.Expression_Literal_Null:
		typ, err := FromSubstraitType(l.Null)
		if err != nil {
			return repr.Null(), nil, err
		}
		return repr.Null(), typ.ScalarType, nil
	case nil:
		return repr.Null(), nil, merr.WrapErrInvalidInput("literal without value")
	default:
		return repr.Null(), nil, merr.WrapErrUnsupportedFeature("literal of kind %T", l)
	}
}

// decodeDecimal reads the 16 byte little-endian two's complement unscaled
// value of a decimal literal.
func decodeDecimal(d *pb.Expression_Literal_Decimal) (decimal.Decimal, arrow.DataType, error) {
	raw := d.GetValue()
	if len(raw) != decimalBytes {
		return decimal.Decimal{}, nil, merr.WrapErrInvalidInput("decimal literal has %d bytes, expect %d", len(raw), decimalBytes)
	}
	if d.GetPrecision() <= 0 || d.GetPrecision() > 38 || d.GetScale() < 0 || d.GetScale() > d.GetPrecision() {
		return decimal.Decimal{}, nil, merr.WrapErrInvalidInput("invalid decimal(%d,%d) literal", d.GetPrecision(), d.GetScale())
	}
	be := make([]byte, decimalBytes)
	for i, b := range raw {
		be[decimalBytes-1-i] = b
	}
	unscaled := new(big.Int).SetBytes(be)
	if be[0]&0x80 != 0 {
		unscaled.Sub(unscaled, new(big.Int).Lsh(big.NewInt(1), 8*decimalBytes))
	}
	typ := &arrow.Decimal128Type{Precision: d.GetPrecision(), Scale: d.GetScale()}
	return decimal.NewFromBigInt(unscaled, -d.GetScale()), typ, nil
}

type nullabilityGetter interface {
	GetNullability() pb.Type_Nullability
}

// FromSubstraitType decodes a type. Unspecified nullability is nullable.
func FromSubstraitType(t *pb.Type) (repr.ColumnType, error) {
	if t == nil {
		return repr.ColumnType{}, merr.WrapErrInvalidInput("missing type")
	}
	var (
		scalar arrow.DataType
		n      nullabilityGetter
	)
	switch {
	case t.GetBool() != nil:
		scalar, n = arrow.FixedWidthTypes.Boolean, t.GetBool()
	case t.GetI8() != nil:
		scalar, n = arrow.PrimitiveTypes.Int8, t.GetI8()
	case t.GetI16() != nil:
		scalar, n = arrow.PrimitiveTypes.Int16, t.GetI16()
	case t.GetI32() != nil:
		scalar, n = arrow.PrimitiveTypes.Int32, t.GetI32()
	case t.GetI64() != nil:
		scalar, n = arrow.PrimitiveTypes.Int64, t.GetI64()
	case t.GetFp32() != nil:
		scalar, n = arrow.PrimitiveTypes.Float32, t.GetFp32()
	case t.GetFp64() != nil:
		scalar, n = arrow.PrimitiveTypes.Float64, t.GetFp64()
	case t.GetString_() != nil:
		scalar, n = arrow.BinaryTypes.String, t.GetString_()
	case t.GetVarchar() != nil:
		scalar, n = arrow.BinaryTypes.String, t.GetVarchar()
	case t.GetFixedChar() != nil:
		scalar, n = arrow.BinaryTypes.String, t.GetFixedChar()
	case t.GetBinary() != nil:
		scalar, n = arrow.BinaryTypes.Binary, t.GetBinary()
	case t.GetFixedBinary() != nil:
		scalar, n = arrow.BinaryTypes.Binary, t.GetFixedBinary()
	case t.GetTimestamp() != nil:
		scalar, n = repr.TimestampMicrosecond, t.GetTimestamp()
	case t.GetTimestampTz() != nil:
		scalar, n = repr.TimestampMicrosecondTz, t.GetTimestampTz()
	case t.GetDate() != nil:
		scalar, n = arrow.FixedWidthTypes.Date32, t.GetDate()
	case t.GetTime() != nil:
		scalar, n = arrow.FixedWidthTypes.Time64us, t.GetTime()
	case t.GetDecimal() != nil:
		d := t.GetDecimal()
		if d.GetPrecision() <= 0 || d.GetPrecision() > 38 || d.GetScale() < 0 || d.GetScale() > d.GetPrecision() {
			return repr.ColumnType{}, merr.WrapErrInvalidInput("invalid decimal(%d,%d) type", d.GetPrecision(), d.GetScale())
		}
		scalar, n = &arrow.Decimal128Type{Precision: d.GetPrecision(), Scale: d.GetScale()}, d
	default:
		return repr.ColumnType{}, merr.WrapErrUnsupportedFeature("type of kind %T", t.GetKind())
	}
	return repr.NewColumnType(scalar, n.GetNullability() != pb.Type_NULLABILITY_REQUIRED), nil
}
