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
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// Manager resolves keys across prioritized sources. Values set through
// SetConfig override every source.
type Manager struct {
	sync.RWMutex
	sources  map[string]Source
	overlays map[string]string
}

func NewManager() *Manager {
	return &Manager{
		sources:  make(map[string]Source),
		overlays: make(map[string]string),
	}
}

func (m *Manager) AddSource(source Source) error {
	m.Lock()
	defer m.Unlock()
	sourceName := source.GetSourceName()
	if _, ok := m.sources[sourceName]; ok {
		return errors.Wrap(ErrDupSource, sourceName)
	}
	if _, err := source.GetConfigurations(); err != nil {
		return errors.Wrapf(err, "pull configs from %s", sourceName)
	}
	m.sources[sourceName] = source
	return nil
}

// GetConfig returns the value of key from the overlay or the source with
// the highest priority that holds it.
func (m *Manager) GetConfig(key string) (string, error) {
	m.RLock()
	defer m.RUnlock()
	realKey := FormatKey(key)
	if v, ok := m.overlays[realKey]; ok {
		return v, nil
	}
	for _, source := range m.sortedSources() {
		v, err := source.GetConfigurationByKey(realKey)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrKeyNotFound) {
			return "", err
		}
	}
	return "", errors.Wrap(ErrKeyNotFound, key)
}

// GetConfigs returns every configuration, merged by source priority.
func (m *Manager) GetConfigs() map[string]string {
	m.RLock()
	defer m.RUnlock()
	result := make(map[string]string)
	sources := m.sortedSources()
	for i := len(sources) - 1; i >= 0; i-- {
		configs, err := sources[i].GetConfigurations()
		if err != nil {
			continue
		}
		for k, v := range configs {
			result[k] = v
		}
	}
	for k, v := range m.overlays {
		result[k] = v
	}
	return result
}

func (m *Manager) SetConfig(key, value string) {
	m.Lock()
	defer m.Unlock()
	m.overlays[FormatKey(key)] = value
}

func (m *Manager) ResetConfig(key string) {
	m.Lock()
	defer m.Unlock()
	delete(m.overlays, FormatKey(key))
}

func (m *Manager) Close() {
	m.Lock()
	defer m.Unlock()
	for _, s := range m.sources {
		s.Close()
	}
}

func (m *Manager) sortedSources() []Source {
	sources := lo.Values(m.sources)
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].GetPriority() < sources[j].GetPriority()
	})
	return sources
}
