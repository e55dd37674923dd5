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
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/milvus-io/milvus-flow/pkg/log"
)

const (
	DefaultMaxExprDepth  = 1024
	DefaultPlanCacheSize = 1024
	DefaultPlanCacheTTL  = 600 * time.Second
)

// ComponentParam is used to quickly and easily access all components' configurations.
type ComponentParam struct {
	once      sync.Once
	baseTable *BaseTable

	LogCfg  logConfig
	FlowCfg flowConfig
}

// Init initialize once
func (p *ComponentParam) Init(bt *BaseTable) {
	p.once.Do(func() {
		p.init(bt)
	})
}

func (p *ComponentParam) init(bt *BaseTable) {
	p.baseTable = bt
	p.LogCfg.init(bt)
	p.FlowCfg.init(bt)
}

func (p *ComponentParam) Save(key string, value string) error {
	return p.baseTable.Save(key, value)
}

func (p *ComponentParam) Reset(key string) error {
	return p.baseTable.Reset(key)
}

// /////////////////////////////////////////////////////////////////////////////
// --- log ---
type logConfig struct {
	Level    ParamItem `refreshable:"false"`
	Format   ParamItem `refreshable:"false"`
	Filename ParamItem `refreshable:"false"`
	MaxSize  ParamItem `refreshable:"false"`
}

func (l *logConfig) init(base *BaseTable) {
	l.Level = ParamItem{
		Key:          "log.level",
		DefaultValue: DefaultLogLevel,
		Version:      "1.0.0",
		Doc:          "Only supports debug, info, warn, error, panic, or fatal. Default 'info'.",
		Export:       true,
	}
	l.Level.Init(base.mgr)

	l.Format = ParamItem{
		Key:          "log.format",
		DefaultValue: DefaultLogFormat,
		Version:      "1.0.0",
		Doc:          "text or json",
		Export:       true,
	}
	l.Format.Init(base.mgr)

	l.Filename = ParamItem{
		Key:     "log.file.filename",
		Version: "1.0.0",
		Doc:     "log file path, empty means stdout",
		Export:  true,
	}
	l.Filename.Init(base.mgr)

	l.MaxSize = ParamItem{
		Key:          "log.file.maxSize",
		DefaultValue: "300",
		Version:      "1.0.0",
		Doc:          "The maximum size of a log file before it gets rotated, unit: MB",
		Export:       true,
	}
	l.MaxSize.Init(base.mgr)
}

// LogConfig converts the params into a log.Config.
func (l *logConfig) LogConfig() *log.Config {
	return &log.Config{
		Level:  l.Level.GetValue(),
		Format: l.Format.GetValue(),
		File: log.FileLogConfig{
			Filename: l.Filename.GetValue(),
			MaxSize:  l.MaxSize.GetAsInt(),
		},
	}
}

// ZapLevel returns the configured level, falling back to info.
func (l *logConfig) ZapLevel() zapcore.Level {
	lvl, err := zapcore.ParseLevel(l.Level.GetValue())
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// /////////////////////////////////////////////////////////////////////////////
// --- flow transform ---
type flowConfig struct {
	MaxExprDepth     ParamItem `refreshable:"true"`
	PlanCacheEnabled ParamItem `refreshable:"false"`
	PlanCacheSize    ParamItem `refreshable:"false"`
	PlanCacheTTL     ParamItem `refreshable:"false"`
}

func (f *flowConfig) init(base *BaseTable) {
	f.MaxExprDepth = ParamItem{
		Key:          "flow.transform.maxExprDepth",
		DefaultValue: "1024",
		Version:      "1.0.0",
		Doc:          "Maximum nesting depth of a substrait expression accepted by the translator",
		Export:       true,
	}
	f.MaxExprDepth.Init(base.mgr)

	f.PlanCacheEnabled = ParamItem{
		Key:          "flow.transform.planCache.enabled",
		DefaultValue: "true",
		Version:      "1.0.0",
		Doc:          "Cache translated plans by plan digest",
		Export:       true,
	}
	f.PlanCacheEnabled.Init(base.mgr)

	f.PlanCacheSize = ParamItem{
		Key:          "flow.transform.planCache.size",
		DefaultValue: "1024",
		Version:      "1.0.0",
		Doc:          "Maximum number of cached plans",
		Export:       true,
	}
	f.PlanCacheSize.Init(base.mgr)

	f.PlanCacheTTL = ParamItem{
		Key:          "flow.transform.planCache.ttl",
		DefaultValue: "600",
		Version:      "1.0.0",
		Doc:          "Time to live of a cached plan, unit: second",
		Export:       true,
	}
	f.PlanCacheTTL.Init(base.mgr)
}
