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
	"fmt"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/decimal128"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/milvus-io/milvus-flow/internal/flow/repr"
	"github.com/milvus-io/milvus-flow/pkg/util/merr"
)

// Schema returns the arrow schema of a relation. Columns are named by
// position since relations carry no names.
func Schema(typ repr.RelationType) *arrow.Schema {
	fields := lo.Map(typ.ColumnTypes, func(c repr.ColumnType, i int) arrow.Field {
		return arrow.Field{Name: fmt.Sprintf("col_%d", i), Type: c.ScalarType, Nullable: c.Nullable}
	})
	return arrow.NewSchema(fields, nil)
}

// ToRecord materializes the rows of c as one arrow record of type typ.
// Times and diffs are dropped; a row with diff n appears n times and
// negative diffs are rejected.
func (c *Constant) ToRecord(mem memory.Allocator, typ repr.RelationType) (arrow.Record, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	builder := array.NewRecordBuilder(mem, Schema(typ))
	defer builder.Release()

	for i, r := range c.Rows {
		if r.Row.Len() != typ.Len() {
			return nil, merr.WrapErrInvalidPlan("constant row %d has %d columns, expect %d", i, r.Row.Len(), typ.Len())
		}
		if r.Diff < 0 {
			return nil, merr.WrapErrInvalidPlan("constant row %d has negative diff %d", i, r.Diff)
		}
		for n := int64(0); n < r.Diff; n++ {
			for col, v := range r.Row {
				colType := typ.ColumnTypes[col]
				if err := appendValue(builder.Field(col), v, colType); err != nil {
					return nil, errors.Wrapf(err, "constant row %d column %d", i, col)
				}
			}
		}
	}
	return builder.NewRecord(), nil
}

func appendValue(b array.Builder, v repr.Value, typ repr.ColumnType) error {
	if v.IsNull() {
		if !typ.Nullable {
			return merr.WrapErrInvalidPlan("NULL in non-nullable column of type %s", typ)
		}
		b.AppendNull()
		return nil
	}
	v, err := repr.CastValue(v, nil, typ.ScalarType)
	if err != nil {
		return err
	}
	switch b := b.(type) {
	case *array.BooleanBuilder:
		b.Append(v.Any().(bool))
	case *array.Int8Builder:
		b.Append(v.Any().(int8))
	case *array.Int16Builder:
		b.Append(v.Any().(int16))
	case *array.Int32Builder:
		b.Append(v.Any().(int32))
	case *array.Int64Builder:
		b.Append(v.Any().(int64))
	case *array.Uint8Builder:
		b.Append(v.Any().(uint8))
	case *array.Uint16Builder:
		b.Append(v.Any().(uint16))
	case *array.Uint32Builder:
		b.Append(v.Any().(uint32))
	case *array.Uint64Builder:
		b.Append(v.Any().(uint64))
	case *array.Float32Builder:
		b.Append(v.Any().(float32))
	case *array.Float64Builder:
		b.Append(v.Any().(float64))
	case *array.StringBuilder:
		b.Append(v.Any().(string))
	case *array.BinaryBuilder:
		b.Append(v.Any().([]byte))
	case *array.Decimal128Builder:
		scale := typ.ScalarType.(*arrow.Decimal128Type).Scale
		d := v.Any().(decimal.Decimal)
		b.Append(decimal128.FromBigInt(d.Shift(scale).BigInt()))
	case *array.Date32Builder:
		b.Append(v.Any().(arrow.Date32))
	case *array.Time64Builder:
		b.Append(v.Any().(arrow.Time64))
	case *array.TimestampBuilder:
		b.Append(v.Any().(arrow.Timestamp))
	default:
		return merr.WrapErrUnsupportedFeature("materializing %s columns", repr.TypeString(typ.ScalarType))
	}
	return nil
}
