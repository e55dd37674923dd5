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
	"context"
	"slices"
	"time"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	pb "github.com/substrait-io/substrait-protobuf/go/substraitpb"
	"go.uber.org/zap"

	"github.com/milvus-io/milvus-flow/internal/flow/expr"
	"github.com/milvus-io/milvus-flow/internal/flow/plan"
	"github.com/milvus-io/milvus-flow/internal/flow/repr"
	"github.com/milvus-io/milvus-flow/pkg/log"
	"github.com/milvus-io/milvus-flow/pkg/metrics"
	"github.com/milvus-io/milvus-flow/pkg/util/merr"
)

// FromSubstraitPlan translates the first relation of a substrait plan.
// When tctx has a plan cache, outcomes are cached by plan digest together
// with the tables they resolved, and reused only while those tables resolve
// to the same id and type. Failed table lookups are never cached. Cached
// plans are shared and must not be modified.
func FromSubstraitPlan(ctx context.Context, tctx *Context, p *pb.Plan) (tp *plan.TypedPlan, err error) {
	start := time.Now()
	defer func() {
		metrics.PlanTranslateLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.PlanTranslateTotal.WithLabelValues(metrics.FailLabel).Inc()
		} else {
			metrics.PlanTranslateTotal.WithLabelValues(metrics.SuccessLabel).Inc()
		}
	}()

	if p == nil {
		return nil, merr.WrapErrInvalidPlan("missing plan")
	}
	key, err := digest(p)
	if err != nil {
		return nil, err
	}
	logger := log.Ctx(ctx).With(log.FieldDigest(key))

	if tctx.cache != nil {
		if entry, ok := tctx.cached(ctx, key); ok {
			metrics.PlanCacheTotal.WithLabelValues(metrics.HitLabel).Inc()
			return entry.plan, entry.err
		}
		metrics.PlanCacheTotal.WithLabelValues(metrics.MissLabel).Inc()
	}

	t := newPlanTranslator(tctx, FunctionExtensionsFromPlan(p))
	tp, err = t.fromPlan(ctx, p)
	if tctx.cache != nil && t.cacheable(ctx) {
		tctx.cache.Add(key, &cacheEntry{plan: tp, err: err, tables: t.tables})
	}
	if err != nil {
		logger.Warn("failed to translate substrait plan", zap.Error(err))
		return nil, err
	}
	logger.Debug("translated substrait plan", zap.Stringer("plan", tp))
	return tp, nil
}

type planTranslator struct {
	tctx       *Context
	extensions *FunctionExtensions

	// tables lists the lookups the translation depends on.
	tables        []resolvedTable
	resolveFailed bool
}

func newPlanTranslator(tctx *Context, extensions *FunctionExtensions) *planTranslator {
	return &planTranslator{tctx: tctx, extensions: extensions}
}

// cacheable reports whether the outcome depends only on the plan and the
// recorded tables. Cancellation and failed lookups are not.
func (t *planTranslator) cacheable(ctx context.Context) bool {
	return ctx.Err() == nil && !t.resolveFailed
}

func (t *planTranslator) fromPlan(ctx context.Context, p *pb.Plan) (*plan.TypedPlan, error) {
	relations := p.GetRelations()
	if len(relations) == 0 {
		return nil, merr.WrapErrInvalidPlan("plan has no relation")
	}
	if len(relations) > 1 {
		log.Ctx(ctx).Debug("only the first relation of the plan is translated", zap.Int("relations", len(relations)))
	}
	rel := relations[0].GetRel()
	if root := relations[0].GetRoot(); root != nil {
		rel = root.GetInput()
	}
	if rel == nil {
		return nil, merr.WrapErrInvalidPlan("plan relation without input")
	}
	return t.fromRel(ctx, rel, 1)
}

func (t *planTranslator) rex(e *pb.Expression, schema repr.RelationType) (expr.TypedExpr, error) {
	return t.tctx.FromSubstraitRex(e, schema, t.extensions)
}

// fromRel translates rel found depth relations below the plan root. Relation
// nesting shares the expression depth limit.
func (t *planTranslator) fromRel(ctx context.Context, rel *pb.Rel, depth int) (*plan.TypedPlan, error) {
	if rel == nil {
		return nil, merr.WrapErrInvalidPlan("missing relation input")
	}
	if depth > t.tctx.maxDepth {
		return nil, merr.WrapErrInvalidInput("relation nested deeper than %d", t.tctx.maxDepth)
	}
	switch {
	case rel.GetRead() != nil:
		return t.fromRead(ctx, rel.GetRead())
	case rel.GetFilter() != nil:
		return t.fromFilter(ctx, rel.GetFilter(), depth)
	case rel.GetProject() != nil:
		return t.fromProject(ctx, rel.GetProject(), depth)
	default:
		return nil, merr.WrapErrUnsupportedFeature("relation of kind %T", rel.GetRelType())
	}
}

// fromRead resolves a named table to a Get. A filter and a column mask on
// the read are applied on top of it.
func (t *planTranslator) fromRead(ctx context.Context, read *pb.ReadRel) (*plan.TypedPlan, error) {
	named := read.GetNamedTable()
	if named == nil {
		if read.GetVirtualTable() != nil {
			return nil, merr.WrapErrUnsupportedFeature("read from virtual table")
		}
		return nil, merr.WrapErrUnsupportedFeature("read of kind %T", read.GetReadType())
	}
	if t.tctx.resolver == nil {
		return nil, merr.WrapErrServiceInternal("no table resolver configured")
	}
	id, typ, err := t.tctx.resolver.ResolveTable(ctx, named.GetNames())
	if err != nil {
		t.resolveFailed = true
		return nil, errors.Wrapf(err, "failed to resolve table %v", named.GetNames())
	}
	t.tables = append(t.tables, resolvedTable{names: slices.Clone(named.GetNames()), id: id, typ: typ})
	tp := plan.NewTypedPlan(typ, plan.NewGet(id))

	if cond := read.GetFilter(); cond != nil {
		if tp, err = t.filter(tp, cond); err != nil {
			return nil, err
		}
	}

	items := read.GetProjection().GetSelect().GetStructItems()
	if len(items) == 0 {
		return tp, nil
	}
	columns := make([]int, 0, len(items))
	for _, item := range items {
		if item.GetChild() != nil {
			return nil, merr.WrapErrUnsupportedFeature("nested column mask on read")
		}
		columns = append(columns, int(item.GetField()))
	}
	if slices.Equal(columns, lo.Range(typ.Len())) {
		return tp, nil
	}
	return t.project(tp, columns)
}

func (t *planTranslator) fromFilter(ctx context.Context, filter *pb.FilterRel, depth int) (*plan.TypedPlan, error) {
	input, err := t.fromRel(ctx, filter.GetInput(), depth+1)
	if err != nil {
		return nil, err
	}
	if filter.GetCondition() == nil {
		return nil, merr.WrapErrInvalidInput("filter without condition")
	}
	return t.filter(input, filter.GetCondition())
}

// filter adds cond to input, merging it into an input Mfp that has not
// projected yet.
func (t *planTranslator) filter(input *plan.TypedPlan, cond *pb.Expression) (*plan.TypedPlan, error) {
	predicate, err := t.rex(cond, input.Typ)
	if err != nil {
		return nil, err
	}
	if m, ok := input.Plan.(*plan.Mfp); ok && !m.Mfp.HasProjection() {
		mfp, err := m.Mfp.Filter([]expr.TypedExpr{predicate})
		if err != nil {
			return nil, err
		}
		return plan.NewTypedPlan(input.Typ, plan.NewMfp(m.Input, mfp)), nil
	}
	mfp, err := expr.NewMapFilterProject(input.Typ.Len()).Filter([]expr.TypedExpr{predicate})
	if err != nil {
		return nil, err
	}
	return plan.NewTypedPlan(input.Typ, plan.NewMfp(input.Plan, mfp)), nil
}

// project keeps the given columns of input.
func (t *planTranslator) project(input *plan.TypedPlan, columns []int) (*plan.TypedPlan, error) {
	mfp, err := expr.NewMapFilterProject(input.Typ.Len()).Project(columns)
	if err != nil {
		return nil, err
	}
	return plan.NewTypedPlan(repr.NewRelationType(lo.Map(columns, func(c int, _ int) repr.ColumnType {
		return input.Typ.ColumnTypes[c]
	})...), plan.NewMfp(input.Plan, mfp)), nil
}

// fromProject maps the project expressions after the input columns and
// keeps the emitted columns, all of them when there is no emit mapping.
//
// Literal-only output over a plain table read becomes a single row
// Constant. A filter-only input Mfp is fused into one map, filter, project
// operator.
func (t *planTranslator) fromProject(ctx context.Context, project *pb.ProjectRel, depth int) (*plan.TypedPlan, error) {
	input, err := t.fromRel(ctx, project.GetInput(), depth+1)
	if err != nil {
		return nil, err
	}

	exprs := make([]expr.TypedExpr, 0, len(project.GetExpressions()))
	for _, e := range project.GetExpressions() {
		te, err := t.rex(e, input.Typ)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, te)
	}

	arity := input.Typ.Len()
	columnTypes := append(append([]repr.ColumnType(nil), input.Typ.ColumnTypes...),
		lo.Map(exprs, func(e expr.TypedExpr, _ int) repr.ColumnType { return e.Typ })...)
	emit := lo.Range(len(columnTypes))
	if mapping := project.GetCommon().GetEmit().GetOutputMapping(); mapping != nil {
		emit = lo.Map(mapping, func(c int32, _ int) int { return int(c) })
	}
	outTypes := make([]repr.ColumnType, 0, len(emit))
	for _, c := range emit {
		if c < 0 || c >= len(columnTypes) {
			return nil, merr.WrapErrInvalidPlan("emit column #%d out of range, project has %d columns", c, len(columnTypes))
		}
		outTypes = append(outTypes, columnTypes[c])
	}
	typ := repr.NewRelationType(outTypes...)

	if _, ok := input.Plan.(*plan.Get); ok {
		if row, ok := literalRow(exprs, arity, emit); ok {
			return plan.NewTypedPlan(typ, plan.NewConstant(row)), nil
		}
	}

	scalars := lo.Map(exprs, func(e expr.TypedExpr, _ int) expr.ScalarExpr { return e.Expr })
	source := input.Plan
	mfp := expr.NewMapFilterProject(arity)
	if m, ok := input.Plan.(*plan.Mfp); ok && len(m.Mfp.Expressions()) == 0 && !m.Mfp.HasProjection() {
		source = m.Input
		if mfp, err = mfp.Map(scalars); err != nil {
			return nil, err
		}
		predicates := lo.Map(m.Mfp.Predicates(), func(p expr.ScalarExpr, _ int) expr.TypedExpr {
			return expr.NewTypedExpr(p, repr.NewNullable(arrow.FixedWidthTypes.Boolean))
		})
		if mfp, err = mfp.Filter(predicates); err != nil {
			return nil, err
		}
	} else if mfp, err = mfp.Map(scalars); err != nil {
		return nil, err
	}
	if mfp, err = mfp.Project(emit); err != nil {
		return nil, err
	}
	return plan.NewTypedPlan(typ, plan.NewMfp(source, mfp)), nil
}

// literalRow returns the emitted values when every emitted column is a
// literal project expression.
func literalRow(exprs []expr.TypedExpr, arity int, emit []int) (repr.Row, bool) {
	if len(emit) == 0 {
		return nil, false
	}
	row := make(repr.Row, 0, len(emit))
	for _, c := range emit {
		if c < arity {
			return nil, false
		}
		lit, ok := exprs[c-arity].Expr.(*expr.Literal)
		if !ok {
			return nil, false
		}
		row = append(row, lit.Value)
	}
	return row, true
}
