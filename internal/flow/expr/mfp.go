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

package expr

import (
	"fmt"
	"strings"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/samber/lo"

	"github.com/milvus-io/milvus-flow/internal/flow/repr"
	"github.com/milvus-io/milvus-flow/pkg/util/merr"
)

type mfpStage int

const (
	stageMap mfpStage = iota
	stageFilter
	stageProject
)

func (s mfpStage) String() string {
	switch s {
	case stageFilter:
		return "filter"
	case stageProject:
		return "project"
	}
	return "map"
}

// MapFilterProject is a fused row operator: it appends the values of
// Expressions to each input row, drops rows for which any predicate is not
// true, then keeps the columns listed in Projection.
//
// Builders are applied in the order map, filter, project; every method
// returns a new value and leaves the receiver untouched.
type MapFilterProject struct {
	inputArity  int
	expressions []ScalarExpr
	predicates  []ScalarExpr
	projection  []int
	stage       mfpStage
}

// NewMapFilterProject returns the identity operator over rows of
// inputArity columns.
func NewMapFilterProject(inputArity int) *MapFilterProject {
	return &MapFilterProject{
		inputArity: inputArity,
		projection: lo.Range(inputArity),
	}
}

func (m *MapFilterProject) clone() *MapFilterProject {
	return &MapFilterProject{
		inputArity:  m.inputArity,
		expressions: append([]ScalarExpr(nil), m.expressions...),
		predicates:  append([]ScalarExpr(nil), m.predicates...),
		projection:  append([]int(nil), m.projection...),
		stage:       m.stage,
	}
}

func (m *MapFilterProject) checkStage(next mfpStage) error {
	// project is the single final stage
	if next < m.stage || (next == stageProject && m.stage == stageProject) {
		return merr.WrapErrInvalidPlan("%s after %s", next, m.stage)
	}
	return nil
}

// InputArity is the number of columns of an input row.
func (m *MapFilterProject) InputArity() int {
	return m.inputArity
}

// OutputArity is the number of columns of an output row.
func (m *MapFilterProject) OutputArity() int {
	return len(m.projection)
}

// Expressions are the mapped expressions, in the order of their columns.
func (m *MapFilterProject) Expressions() []ScalarExpr {
	return m.expressions
}

func (m *MapFilterProject) Predicates() []ScalarExpr {
	return m.predicates
}

func (m *MapFilterProject) Projection() []int {
	return m.projection
}

// IsIdentity reports whether the operator passes rows through unchanged.
func (m *MapFilterProject) IsIdentity() bool {
	if len(m.expressions) > 0 || len(m.predicates) > 0 || len(m.projection) != m.inputArity {
		return false
	}
	for i, c := range m.projection {
		if c != i {
			return false
		}
	}
	return true
}

// HasProjection reports whether Project was applied.
func (m *MapFilterProject) HasProjection() bool {
	return m.stage == stageProject
}

// Map appends one column per expression. Each expression may reference
// input columns and the columns mapped before it.
func (m *MapFilterProject) Map(exprs []ScalarExpr) (*MapFilterProject, error) {
	if err := m.checkStage(stageMap); err != nil {
		return nil, err
	}
	out := m.clone()
	for _, e := range exprs {
		arity := out.inputArity + len(out.expressions)
		if col := MaxColumn(e); col >= arity {
			return nil, merr.WrapErrInvalidPlan("map expression %s references column #%d, only %d columns available", e, col, arity)
		}
		out.expressions = append(out.expressions, e)
		out.projection = append(out.projection, arity)
	}
	return out, nil
}

// Filter adds predicates. Each must be boolean, or untyped NULL which
// never passes, and may reference any input or mapped column.
func (m *MapFilterProject) Filter(predicates []TypedExpr) (*MapFilterProject, error) {
	if err := m.checkStage(stageFilter); err != nil {
		return nil, err
	}
	out := m.clone()
	out.stage = stageFilter
	arity := out.inputArity + len(out.expressions)
	for _, p := range predicates {
		if t := p.Typ.ScalarType; !repr.IsNullType(t) && t.ID() != arrow.BOOL {
			return nil, merr.WrapErrInvalidPlan("filter predicate %s has type %s, expect boolean", p.Expr, repr.TypeString(t))
		}
		if col := MaxColumn(p.Expr); col >= arity {
			return nil, merr.WrapErrInvalidPlan("filter predicate %s references column #%d, only %d columns available", p.Expr, col, arity)
		}
		out.predicates = append(out.predicates, p.Expr)
	}
	return out, nil
}

// Project keeps the listed columns of the current output, in order. It can
// be applied once.
func (m *MapFilterProject) Project(columns []int) (*MapFilterProject, error) {
	if err := m.checkStage(stageProject); err != nil {
		return nil, err
	}
	out := m.clone()
	out.stage = stageProject
	projection := make([]int, 0, len(columns))
	for _, c := range columns {
		if c < 0 || c >= len(m.projection) {
			return nil, merr.WrapErrInvalidPlan("project column #%d out of range, only %d columns available", c, len(m.projection))
		}
		projection = append(projection, m.projection[c])
	}
	out.projection = projection
	return out, nil
}

func (m *MapFilterProject) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "mfp(arity=%d", m.inputArity)
	if len(m.expressions) > 0 {
		fmt.Fprintf(&sb, ", map=[%s]", joinExprs(m.expressions))
	}
	if len(m.predicates) > 0 {
		fmt.Fprintf(&sb, ", filter=[%s]", joinExprs(m.predicates))
	}
	fmt.Fprintf(&sb, ", project=%v)", m.projection)
	return sb.String()
}
