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

package config

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/spf13/cast"
)

var (
	ErrNotInitial   = errors.New("config is not initialized")
	ErrKeyNotFound  = errors.New("key not found")
	ErrDupSource    = errors.New("duplicated source")
	ErrInvalidValue = errors.New("invalid config value")
)

// Init builds a Manager with the sources selected by opts. Without options
// the manager only serves values set through SetConfig.
func Init(opts ...Option) (*Manager, error) {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	var sources []Source
	if o.FileInfo != nil {
		sources = append(sources, NewFileSource(o.FileInfo))
	}
	if o.EnvKeyFormatter != nil {
		sources = append(sources, NewEnvSource(o.EnvKeyFormatter))
	}
	mgr := NewManager()
	for _, source := range sources {
		if err := mgr.AddSource(source); err != nil {
			return nil, err
		}
	}
	return mgr, nil
}

var formattedKeys sync.Map

func lowerKey(key string) string {
	return strings.ToLower(key)
}

// FormatKey normalizes a key so that "flow.transform.maxExprDepth",
// "FLOW_TRANSFORM_MAXEXPRDEPTH" and "flow/transform/maxexprdepth" collide.
func FormatKey(key string) string {
	if cached, ok := formattedKeys.Load(key); ok {
		return cached.(string)
	}
	result := strings.NewReplacer("/", "", "_", "", ".", "").Replace(strings.ToLower(key))
	formattedKeys.Store(key, result)
	return result
}

// flattenAndMergeMap writes every leaf of m into result under both its dotted
// lower-case path and its formatted key. Lists become comma-joined strings.
func flattenAndMergeMap(prefix string, m map[string]any, result map[string]string) {
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenAndMergeMap(path, nested, result)
			continue
		}
		str, ok := leafString(v)
		if !ok {
			continue
		}
		result[lowerKey(path)] = str
		result[FormatKey(path)] = str
	}
}

func leafString(v any) (string, bool) {
	if list, ok := v.([]any); ok {
		items := lo.FilterMap(list, func(item any, _ int) (string, bool) {
			str, err := cast.ToStringE(item)
			return str, err == nil
		})
		return strings.Join(items, ","), true
	}
	str, err := cast.ToStringE(v)
	return str, err == nil
}
