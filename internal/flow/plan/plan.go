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

	"github.com/milvus-io/milvus-flow/internal/flow/expr"
	"github.com/milvus-io/milvus-flow/internal/flow/repr"
)

// Plan is a dataflow operator tree. The variant set is closed:
// *Get, *Constant and *Mfp.
type Plan interface {
	fmt.Stringer
	isPlan()
}

// Get reads a source collection.
type Get struct {
	ID repr.GlobalID
}

// ConstantRow is one update of a constant collection.
type ConstantRow struct {
	Row  repr.Row
	Time repr.Timestamp
	Diff repr.Diff
}

// Constant is a fixed collection of rows.
type Constant struct {
	Rows []ConstantRow
}

// Mfp applies a MapFilterProject to every row of Input.
type Mfp struct {
	Input Plan
	Mfp   *expr.MapFilterProject
}

func (*Get) isPlan()      {}
func (*Constant) isPlan() {}
func (*Mfp) isPlan()      {}

func NewGet(id repr.GlobalID) *Get {
	return &Get{ID: id}
}

// NewConstant returns a constant collection holding each row once at
// MinTimestamp.
func NewConstant(rows ...repr.Row) *Constant {
	c := &Constant{Rows: make([]ConstantRow, 0, len(rows))}
	for _, row := range rows {
		c.Rows = append(c.Rows, ConstantRow{Row: row, Time: repr.MinTimestamp, Diff: 1})
	}
	return c
}

func NewMfp(input Plan, mfp *expr.MapFilterProject) *Mfp {
	return &Mfp{Input: input, Mfp: mfp}
}

func (g *Get) String() string {
	return fmt.Sprintf("Get(%s)", g.ID)
}

func (c *Constant) String() string {
	return fmt.Sprintf("Constant(rows=%d)", len(c.Rows))
}

func (m *Mfp) String() string {
	return fmt.Sprintf("Mfp(%s)", m.Mfp)
}

// Children returns the direct inputs of p.
func Children(p Plan) []Plan {
	switch p := p.(type) {
	case *Get, *Constant:
		return nil
	case *Mfp:
		return []Plan{p.Input}
	default:
		panic(fmt.Sprintf("unknown plan type %T", p))
	}
}

// TypedPlan is a plan together with the type of the relation it produces.
type TypedPlan struct {
	Typ  repr.RelationType
	Plan Plan
}

func NewTypedPlan(typ repr.RelationType, p Plan) *TypedPlan {
	return &TypedPlan{Typ: typ, Plan: p}
}

func (t *TypedPlan) String() string {
	return fmt.Sprintf("%s: %s", t.Plan, t.Typ)
}
