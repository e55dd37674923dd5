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
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"golang.org/x/exp/constraints"

	"github.com/milvus-io/milvus-flow/pkg/util/merr"
)

const (
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04:05.999999"
	timestampLayout = "2006-01-02 15:04:05.999999"
	secondsPerDay   = 86400
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	dateLayout,
}

var errOutOfRange = errors.New("value out of range")

// CastValue converts v, declared as type from, into type to. A nil from
// means the payload's own kind is trusted; timestamps then keep their unit.
// NULL casts to every type.
func CastValue(v Value, from, to arrow.DataType) (Value, error) {
	if v.IsNull() {
		return Null(), nil
	}
	if IsNullType(to) {
		return Value{}, merr.WrapErrTypeMismatch(TypeString(from), "null", "only NULL can be cast to null type")
	}
	out, err := castValue(v.v, from, to)
	if err != nil {
		return Value{}, merr.WrapErrTypeMismatch(v.String(), TypeString(to), err.Error())
	}
	return Value{v: out}, nil
}

// ImplicitCastValue is CastValue for casts that do not appear in the query.
// Conversions that drop digits are refused: a fractional float or decimal
// going to an integer, or a decimal losing scale.
func ImplicitCastValue(v Value, from, to arrow.DataType) (Value, error) {
	out, err := CastValue(v, from, to)
	if err != nil || v.IsNull() {
		return out, err
	}
	if dropsDigits(v.v, out.v) {
		return Value{}, merr.WrapErrTypeMismatch(v.String(), TypeString(to), "implicit cast loses precision")
	}
	return out, nil
}

func dropsDigits(in, out any) bool {
	outKind, _, _, _ := numeric(out)
	toInteger := outKind == signedKind || outKind == unsignedKind
	switch x := in.(type) {
	case float32:
		if d, ok := out.(decimal.Decimal); ok {
			return !d.Equal(decimal.NewFromFloat32(x))
		}
		return toInteger && float64(x) != math.Trunc(float64(x))
	case float64:
		if d, ok := out.(decimal.Decimal); ok {
			return !d.Equal(decimal.NewFromFloat(x))
		}
		return toInteger && x != math.Trunc(x)
	case decimal.Decimal:
		if d, ok := out.(decimal.Decimal); ok {
			return !d.Equal(x)
		}
		return toInteger && !x.Equal(x.Truncate(0))
	}
	return false
}

func castValue(x any, from, to arrow.DataType) (any, error) {
	switch to.ID() {
	case arrow.BOOL:
		return toBool(x)
	case arrow.INT8:
		return toInteger[int8](x)
	case arrow.INT16:
		return toInteger[int16](x)
	case arrow.INT32:
		return toInteger[int32](x)
	case arrow.INT64:
		return toInteger[int64](x)
	case arrow.UINT8:
		return toInteger[uint8](x)
	case arrow.UINT16:
		return toInteger[uint16](x)
	case arrow.UINT32:
		return toInteger[uint32](x)
	case arrow.UINT64:
		return toInteger[uint64](x)
	case arrow.FLOAT32:
		f, err := toFloat(x, 32)
		return float32(f), err
	case arrow.FLOAT64:
		return toFloat(x, 64)
	case arrow.STRING:
		return toString(x, from)
	case arrow.BINARY:
		switch x := x.(type) {
		case []byte:
			return x, nil
		case string:
			return []byte(x), nil
		}
	case arrow.DECIMAL128:
		return toDecimal(x, to.(*arrow.Decimal128Type))
	case arrow.DATE32:
		return toDate(x, from)
	case arrow.TIME64:
		return toTime(x, from, to.(*arrow.Time64Type).Unit)
	case arrow.TIMESTAMP:
		return toTimestamp(x, from, to.(*arrow.TimestampType).Unit)
	}
	return nil, errors.Newf("unsupported cast from %T", x)
}

type numKind int

const (
	notNumeric numKind = iota
	signedKind
	unsignedKind
	floatKind
)

func numeric(x any) (numKind, int64, uint64, float64) {
	switch x := x.(type) {
	case int8:
		return signedKind, int64(x), 0, 0
	case int16:
		return signedKind, int64(x), 0, 0
	case int32:
		return signedKind, int64(x), 0, 0
	case int64:
		return signedKind, x, 0, 0
	case uint8:
		return unsignedKind, 0, uint64(x), 0
	case uint16:
		return unsignedKind, 0, uint64(x), 0
	case uint32:
		return unsignedKind, 0, uint64(x), 0
	case uint64:
		return unsignedKind, 0, x, 0
	case float32:
		return floatKind, 0, 0, float64(x)
	case float64:
		return floatKind, 0, 0, x
	}
	return notNumeric, 0, 0, 0
}

func signedInto[T constraints.Integer](i int64) (T, error) {
	t := T(i)
	if int64(t) != i || (t < 0) != (i < 0) {
		return 0, errOutOfRange
	}
	return t, nil
}

func unsignedInto[T constraints.Integer](u uint64) (T, error) {
	t := T(u)
	if uint64(t) != u || t < 0 {
		return 0, errOutOfRange
	}
	return t, nil
}

func toInteger[T constraints.Integer](x any) (T, error) {
	switch k, i, u, f := numeric(x); k {
	case signedKind:
		return signedInto[T](i)
	case unsignedKind:
		return unsignedInto[T](u)
	case floatKind:
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, errOutOfRange
		}
		f = math.Trunc(f)
		if f < 0 {
			if f < math.MinInt64 {
				return 0, errOutOfRange
			}
			return signedInto[T](int64(f))
		}
		if f >= math.MaxUint64 {
			return 0, errOutOfRange
		}
		return unsignedInto[T](uint64(f))
	}

	switch x := x.(type) {
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case decimal.Decimal:
		return bigInto[T](x.Truncate(0).BigInt())
	case arrow.Date32:
		return signedInto[T](int64(x))
	case arrow.Time64:
		return signedInto[T](int64(x))
	case arrow.Timestamp:
		return signedInto[T](int64(x))
	case string:
		s := strings.TrimSpace(x)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return signedInto[T](i)
		}
		u, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, err
		}
		return unsignedInto[T](u)
	}
	return 0, errors.Newf("cannot cast %T to integer", x)
}

func bigInto[T constraints.Integer](b *big.Int) (T, error) {
	if b.IsInt64() {
		return signedInto[T](b.Int64())
	}
	if b.IsUint64() {
		return unsignedInto[T](b.Uint64())
	}
	return 0, errOutOfRange
}

func toFloat(x any, bitSize int) (float64, error) {
	var f float64
	switch k, i, u, fv := numeric(x); k {
	case signedKind:
		f = float64(i)
	case unsignedKind:
		f = float64(u)
	case floatKind:
		f = fv
	default:
		switch x := x.(type) {
		case bool:
			if x {
				f = 1
			}
		case decimal.Decimal:
			f = x.InexactFloat64()
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(x), bitSize)
			if err != nil {
				return 0, err
			}
			f = parsed
		default:
			return 0, errors.Newf("cannot cast %T to float", x)
		}
	}
	if bitSize == 32 && !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
		return 0, errOutOfRange
	}
	return f, nil
}

func toBool(x any) (bool, error) {
	switch k, i, u, f := numeric(x); k {
	case signedKind:
		return i != 0, nil
	case unsignedKind:
		return u != 0, nil
	case floatKind:
		return f != 0, nil
	}
	switch x := x.(type) {
	case bool:
		return x, nil
	case decimal.Decimal:
		return !x.IsZero(), nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(x))
	}
	return false, errors.Newf("cannot cast %T to boolean", x)
}

func toString(x any, from arrow.DataType) (string, error) {
	switch x := x.(type) {
	case string:
		return x, nil
	case []byte:
		if !utf8.Valid(x) {
			return "", errors.New("binary is not valid utf8")
		}
		return string(x), nil
	case decimal.Decimal:
		return x.String(), nil
	case arrow.Date32:
		return x.ToTime().Format(dateLayout), nil
	case arrow.Time64:
		return x.ToTime(timeUnitOf(from, arrow.Microsecond)).Format(timeLayout), nil
	case arrow.Timestamp:
		return x.ToTime(timeUnitOf(from, arrow.Microsecond)).UTC().Format(timestampLayout), nil
	}
	return cast.ToStringE(x)
}

func toDecimal(x any, to *arrow.Decimal128Type) (decimal.Decimal, error) {
	var d decimal.Decimal
	switch k, i, u, f := numeric(x); k {
	case signedKind:
		d = decimal.NewFromInt(i)
	case unsignedKind:
		d = decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0)
	case floatKind:
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, errOutOfRange
		}
		d = decimal.NewFromFloat(f)
	default:
		switch x := x.(type) {
		case decimal.Decimal:
			d = x
		case bool:
			if x {
				d = decimal.NewFromInt(1)
			} else {
				d = decimal.NewFromInt(0)
			}
		case string:
			parsed, err := decimal.NewFromString(strings.TrimSpace(x))
			if err != nil {
				return decimal.Decimal{}, err
			}
			d = parsed
		default:
			return decimal.Decimal{}, errors.Newf("cannot cast %T to decimal", x)
		}
	}
	d = d.Round(to.Scale)
	if !fitsPrecision(d, to.Precision, to.Scale) {
		return decimal.Decimal{}, errOutOfRange
	}
	return d, nil
}

// fitsPrecision reports whether d, already rounded to scale, has at most
// precision significant digits.
func fitsPrecision(d decimal.Decimal, precision, scale int32) bool {
	unscaled := d.Abs().Shift(scale).Truncate(0).BigInt()
	if unscaled.Sign() == 0 {
		return true
	}
	return int32(len(unscaled.String())) <= precision
}

func timeUnitOf(t arrow.DataType, fallback arrow.TimeUnit) arrow.TimeUnit {
	switch t := t.(type) {
	case *arrow.TimestampType:
		return t.Unit
	case *arrow.Time64Type:
		return t.Unit
	case *arrow.Time32Type:
		return t.Unit
	}
	return fallback
}

func unitsPerSecond(u arrow.TimeUnit) int64 {
	switch u {
	case arrow.Second:
		return 1
	case arrow.Millisecond:
		return 1_000
	case arrow.Microsecond:
		return 1_000_000
	default:
		return 1_000_000_000
	}
}

// convertUnit rescales v from one time unit to another, flooring when
// precision is lost.
func convertUnit(v int64, from, to arrow.TimeUnit) (int64, error) {
	fromN, toN := unitsPerSecond(from), unitsPerSecond(to)
	switch {
	case fromN == toN:
		return v, nil
	case fromN > toN:
		factor := fromN / toN
		q := v / factor
		if v%factor != 0 && v < 0 {
			q--
		}
		return q, nil
	default:
		factor := toN / fromN
		r := v * factor
		if r/factor != v {
			return 0, errOutOfRange
		}
		return r, nil
	}
}

func toDate(x any, from arrow.DataType) (arrow.Date32, error) {
	switch x := x.(type) {
	case arrow.Date32:
		return x, nil
	case arrow.Timestamp:
		days, err := convertUnit(int64(x), timeUnitOf(from, arrow.Microsecond), arrow.Second)
		if err != nil {
			return 0, err
		}
		days = floorDiv(days, secondsPerDay)
		return signedInto[arrow.Date32](days)
	case string:
		t, err := time.Parse(dateLayout, strings.TrimSpace(x))
		if err != nil {
			return 0, err
		}
		return arrow.Date32FromTime(t), nil
	}
	return toInteger[arrow.Date32](x)
}

func toTime(x any, from arrow.DataType, unit arrow.TimeUnit) (arrow.Time64, error) {
	switch x := x.(type) {
	case arrow.Time64:
		v, err := convertUnit(int64(x), timeUnitOf(from, unit), unit)
		return arrow.Time64(v), err
	case string:
		t, err := time.Parse(timeLayout, strings.TrimSpace(x))
		if err != nil {
			return 0, err
		}
		sinceMidnight := t.Sub(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()))
		v, err := convertUnit(sinceMidnight.Nanoseconds(), arrow.Nanosecond, unit)
		return arrow.Time64(v), err
	}
	return toInteger[arrow.Time64](x)
}

func toTimestamp(x any, from arrow.DataType, unit arrow.TimeUnit) (arrow.Timestamp, error) {
	switch x := x.(type) {
	case arrow.Timestamp:
		v, err := convertUnit(int64(x), timeUnitOf(from, unit), unit)
		return arrow.Timestamp(v), err
	case arrow.Date32:
		v, err := convertUnit(int64(x)*secondsPerDay, arrow.Second, unit)
		return arrow.Timestamp(v), err
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range timestampLayouts {
			t, err := time.Parse(layout, s)
			if err != nil {
				continue
			}
			v, err := convertUnit(t.UnixNano(), arrow.Nanosecond, unit)
			return arrow.Timestamp(v), err
		}
		return 0, errors.Newf("cannot parse %q as timestamp", s)
	}
	return toInteger[arrow.Timestamp](x)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
