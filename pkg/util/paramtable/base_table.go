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
	"os"
	"path"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/milvus-io/milvus-flow/pkg/config"
	"github.com/milvus-io/milvus-flow/pkg/log"
)

const (
	// FlowConfEnv points at the directory holding flow.yaml.
	FlowConfEnv = "FLOWCONF"

	DefaultLogFormat = "text"
	DefaultLogLevel  = "info"
)

var defaultYaml = []string{"flow.yaml", "user.yaml"}

// BaseTable resolves raw keys. Overrides set with Save win over the
// environment, which wins over the yaml files of the config dir.
type BaseTable struct {
	mgr *config.Manager

	configDir string
	YamlFiles []string
}

// NewBaseTable reads defaultYaml from $FLOWCONF, or ./configs, and the
// environment.
func NewBaseTable() *BaseTable {
	bt := &BaseTable{configDir: confDir(), YamlFiles: defaultYaml}
	files := lo.Map(bt.YamlFiles, func(file string, _ int) string {
		return path.Join(bt.configDir, file)
	})
	bt.mgr = newManager(files, config.WithFilesSource(&config.FileInfo{Files: files}), config.WithEnvSource(config.FormatKey))
	return bt
}

// NewBaseTableFromYamlOnly builds a table backed by a single yaml file.
func NewBaseTableFromYamlOnly(yaml string) *BaseTable {
	return &BaseTable{
		mgr:       newManager([]string{yaml}, config.WithFilesSource(&config.FileInfo{Files: []string{yaml}})),
		configDir: path.Dir(yaml),
		YamlFiles: []string{yaml},
	}
}

// newManager falls back to an empty manager, so a broken file leaves every
// param at its default.
func newManager(files []string, opts ...config.Option) *config.Manager {
	mgr, err := config.Init(opts...)
	if err != nil {
		log.Warn("failed to load config, using defaults", zap.Strings("configFiles", files), zap.Error(err))
		return config.NewManager()
	}
	return mgr
}

func confDir() string {
	if dir, ok := os.LookupEnv(FlowConfEnv); ok {
		return dir
	}
	if wd, err := os.Getwd(); err == nil {
		return path.Join(wd, "configs")
	}
	return "configs"
}

func (bt *BaseTable) GetConfigDir() string {
	return bt.configDir
}

func (bt *BaseTable) Load(key string) (string, error) {
	return bt.mgr.GetConfig(key)
}

// GetWithDefault returns defaultValue when key is set nowhere.
func (bt *BaseTable) GetWithDefault(key, defaultValue string) string {
	if v, err := bt.mgr.GetConfig(key); err == nil {
		return v
	}
	return defaultValue
}

func (bt *BaseTable) Save(key, value string) error {
	bt.mgr.SetConfig(key, value)
	return nil
}

func (bt *BaseTable) Reset(key string) error {
	bt.mgr.ResetConfig(key)
	return nil
}
