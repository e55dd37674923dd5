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
	"strings"

	"github.com/milvus-io/milvus-flow/internal/flow/expr"
)

// PrintAsTree renders a typed plan one operator per line, inputs indented
// below the operator that consumes them.
func PrintAsTree(tp *TypedPlan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "TypedPlan %s\n", tp.Typ)
	printPlan(&sb, tp.Plan, 1)
	return sb.String()
}

func printPlan(sb *strings.Builder, p Plan, depth int) {
	indent := strings.Repeat("  ", depth)
	switch p := p.(type) {
	case *Get:
		fmt.Fprintf(sb, "%sGet %s\n", indent, p.ID)
	case *Constant:
		fmt.Fprintf(sb, "%sConstant\n", indent)
		for _, r := range p.Rows {
			fmt.Fprintf(sb, "%s  %s @%d %+d\n", indent, r.Row, r.Time, r.Diff)
		}
	case *Mfp:
		fmt.Fprintf(sb, "%sMfp arity=%d\n", indent, p.Mfp.InputArity())
		printExprs(sb, indent+"  map", p.Mfp.Expressions())
		printExprs(sb, indent+"  filter", p.Mfp.Predicates())
		fmt.Fprintf(sb, "%s  project %v\n", indent, p.Mfp.Projection())
		printPlan(sb, p.Input, depth+1)
	default:
		panic(fmt.Sprintf("unknown plan type %T", p))
	}
}

func printExprs(sb *strings.Builder, prefix string, exprs []expr.ScalarExpr) {
	for _, e := range exprs {
		fmt.Fprintf(sb, "%s %s\n", prefix, e)
	}
}
