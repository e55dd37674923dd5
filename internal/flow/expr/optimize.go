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

// FlattenVariadic splices the arguments of nested calls to the same
// variadic function into their parent, keeping argument order, so
// and(and(a, b), c) becomes and(a, b, c). Other expressions are returned
// unchanged. Only the chain of direct children is flattened.
func FlattenVariadic(e ScalarExpr) ScalarExpr {
	call, ok := e.(*CallVariadic)
	if !ok {
		return e
	}
	flat := make([]ScalarExpr, 0, len(call.Exprs))
	for _, child := range call.Exprs {
		if nested, ok := child.(*CallVariadic); ok && nested.Func == call.Func {
			flat = append(flat, FlattenVariadic(nested).(*CallVariadic).Exprs...)
			continue
		}
		flat = append(flat, child)
	}
	return NewCallVariadic(call.Func, flat...)
}
