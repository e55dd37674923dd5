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
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

type FileSource struct {
	sync.RWMutex
	files   []string
	configs map[string]string
	loaded  bool
}

func NewFileSource(fileInfo *FileInfo) *FileSource {
	return &FileSource{
		files:   fileInfo.Files,
		configs: make(map[string]string),
	}
}

// GetConfigurationByKey implements Source
func (fs *FileSource) GetConfigurationByKey(key string) (string, error) {
	if err := fs.loadOnce(); err != nil {
		return "", err
	}
	fs.RLock()
	v, ok := fs.configs[key]
	fs.RUnlock()
	if !ok {
		return "", errors.Wrap(ErrKeyNotFound, key)
	}
	return v, nil
}

// GetConfigurations implements Source
func (fs *FileSource) GetConfigurations() (map[string]string, error) {
	if err := fs.loadOnce(); err != nil {
		return nil, err
	}
	configMap := make(map[string]string)
	fs.RLock()
	for k, v := range fs.configs {
		configMap[k] = v
	}
	fs.RUnlock()
	return configMap, nil
}

// GetPriority implements Source
func (fs *FileSource) GetPriority() int {
	return LowPriority
}

// GetSourceName implements Source
func (fs *FileSource) GetSourceName() string {
	return "FileSource"
}

func (fs *FileSource) Close() {}

func (fs *FileSource) loadOnce() error {
	fs.RLock()
	loaded := fs.loaded
	fs.RUnlock()
	if loaded {
		return nil
	}
	return fs.loadFromFile()
}

func (fs *FileSource) loadFromFile() error {
	newConfig := make(map[string]string)
	for _, configFile := range fs.files {
		if _, err := os.Stat(configFile); errors.Is(err, os.ErrNotExist) {
			continue
		}

		data, err := os.ReadFile(configFile)
		if err != nil {
			return errors.Wrapf(err, "read config file %s", configFile)
		}

		raw := make(map[string]interface{})
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return errors.Wrapf(err, "unmarshal yaml file %s", configFile)
		}
		flattenAndMergeMap("", raw, newConfig)
	}

	fs.Lock()
	fs.configs = newConfig
	fs.loaded = true
	fs.Unlock()
	return nil
}
