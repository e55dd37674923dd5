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

import "fmt"

type GlobalIDKind int

const (
	UserID GlobalIDKind = iota
	SystemID
)

// GlobalID identifies a source relation: a user table or a system
// collection.
type GlobalID struct {
	Kind  GlobalIDKind
	Value uint64
}

func NewUserID(id uint64) GlobalID {
	return GlobalID{Kind: UserID, Value: id}
}

func NewSystemID(id uint64) GlobalID {
	return GlobalID{Kind: SystemID, Value: id}
}

func (id GlobalID) String() string {
	if id.Kind == SystemID {
		return fmt.Sprintf("s%d", id.Value)
	}
	return fmt.Sprintf("u%d", id.Value)
}
