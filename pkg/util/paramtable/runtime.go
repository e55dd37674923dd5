// Copyright (C) 2019-2020 Zilliz. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License
// is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express
// or implied. See the License for the specific language governing permissions and limitations under the License.

package paramtable

import (
	"sync"

	"go.uber.org/atomic"
)

var (
	once        sync.Once
	params      ComponentParam
	initialized = atomic.NewBool(false)
)

// Init loads the global params from the default base table. Later calls are
// no-ops.
func Init() {
	once.Do(func() {
		params.Init(NewBaseTable())
		initialized.Store(true)
	})
}

// Get returns the global params, loading them on first use.
func Get() *ComponentParam {
	if !initialized.Load() {
		Init()
	}
	return &params
}
