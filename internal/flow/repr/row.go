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
	"strings"

	"github.com/samber/lo"
)

// Timestamp is the logical time of an update.
type Timestamp = int64

// Diff is the multiplicity change of an update.
type Diff = int64

// MinTimestamp is the earliest representable logical time.
const MinTimestamp Timestamp = math.MinInt64

// Row is an ordered list of values.
type Row []Value

func NewRow(values ...Value) Row {
	return values
}

func (r Row) Len() int {
	return len(r)
}

func (r Row) Get(i int) (Value, bool) {
	if i < 0 || i >= len(r) {
		return Value{}, false
	}
	return r[i], true
}

func (r Row) Equal(o Row) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if !r[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

func (r Row) String() string {
	return "(" + strings.Join(lo.Map(r, func(v Value, _ int) string {
		return v.String()
	}), ", ") + ")"
}
