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
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/milvus-io/milvus-flow/pkg/config"
)

// ParamItem is a single configuration entry. The value is looked up by Key,
// then FallbackKeys, and DefaultValue is used when none of them is set.
type ParamItem struct {
	Key          string
	Version      string
	Doc          string
	DefaultValue string
	FallbackKeys []string
	Export       bool
	Formatter    func(originValue string) string

	manager *config.Manager
}

func (pi *ParamItem) Init(manager *config.Manager) {
	pi.manager = manager
}

// GetValue returns the formatted value of the item.
func (pi *ParamItem) GetValue() string {
	v, _ := pi.get()
	return v
}

func (pi *ParamItem) get() (string, error) {
	if pi.manager == nil {
		return pi.format(pi.DefaultValue), nil
	}
	ret, err := pi.manager.GetConfig(pi.Key)
	if err != nil {
		for _, key := range pi.FallbackKeys {
			ret, err = pi.manager.GetConfig(key)
			if err == nil {
				break
			}
		}
	}
	if err != nil {
		ret = pi.DefaultValue
	}
	return pi.format(ret), err
}

func (pi *ParamItem) format(v string) string {
	if pi.Formatter == nil {
		return v
	}
	return pi.Formatter(v)
}

func (pi *ParamItem) GetAsStrings() []string {
	v := pi.GetValue()
	if v == "" {
		return []string{}
	}
	return strings.Split(v, ",")
}

func (pi *ParamItem) GetAsBool() bool {
	return getAndConvert(pi.GetValue(), strconv.ParseBool, false)
}

func (pi *ParamItem) GetAsInt() int {
	return getAndConvert(pi.GetValue(), strconv.Atoi, 0)
}

func (pi *ParamItem) GetAsInt64() int64 {
	return getAndConvert(pi.GetValue(), func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	}, 0)
}

func (pi *ParamItem) GetAsFloat() float64 {
	return getAndConvert(pi.GetValue(), func(s string) (float64, error) {
		return cast.ToFloat64E(s)
	}, 0.0)
}

// GetAsDuration interprets a bare number as a count of unit, anything else
// as a Go duration string.
func (pi *ParamItem) GetAsDuration(unit time.Duration) time.Duration {
	v := strings.TrimSpace(pi.GetValue())
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(n * float64(unit))
	}
	return getAndConvert(v, time.ParseDuration, 0)
}

func getAndConvert[T any](v string, converter func(input string) (T, error), defaultValue T) T {
	t, err := converter(strings.TrimSpace(v))
	if err != nil {
		return defaultValue
	}
	return t
}
