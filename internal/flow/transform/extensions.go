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
	"fmt"

	"github.com/samber/lo"
	pb "github.com/substrait-io/substrait-protobuf/go/substraitpb"

	"github.com/milvus-io/milvus-flow/internal/flow/expr"
	"github.com/milvus-io/milvus-flow/pkg/util/merr"
)

// FunctionExtensions maps the function anchors used by scalar function
// calls to function names. Names are stored without their signature
// suffix, "add:i64_i64" is kept as "add".
type FunctionExtensions struct {
	names map[uint32]string
}

// NewFunctionExtensions builds the mapping from anchor to name.
func NewFunctionExtensions(names map[uint32]string) *FunctionExtensions {
	return &FunctionExtensions{
		names: lo.MapValues(names, func(name string, _ uint32) string {
			return expr.NormalizeFuncName(name)
		}),
	}
}

// FunctionExtensionsFromPlan collects the extension function declarations
// of a plan. Type and type variation declarations are ignored.
func FunctionExtensionsFromPlan(p *pb.Plan) *FunctionExtensions {
	names := make(map[uint32]string)
	for _, ext := range p.GetExtensions() {
		if f := ext.GetExtensionFunction(); f != nil {
			names[f.GetFunctionAnchor()] = f.GetName()
		}
	}
	return NewFunctionExtensions(names)
}

// Get returns the name of the function registered under anchor.
func (e *FunctionExtensions) Get(anchor uint32) (string, error) {
	if e != nil {
		if name, ok := e.names[anchor]; ok {
			return name, nil
		}
	}
	return "", merr.WrapErrFunctionReferenceNotFound(anchor, "scalar function")
}

func (e *FunctionExtensions) Len() int {
	if e == nil {
		return 0
	}
	return len(e.names)
}

func (e *FunctionExtensions) String() string {
	if e == nil {
		return "{}"
	}
	return fmt.Sprintf("%v", e.names)
}
