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

package log

import (
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLogMaxSize = 300 // MB

	FormatText = "text"
	FormatJSON = "json"
)

// FileLogConfig configures the rotated log file.
type FileLogConfig struct {
	Filename   string `yaml:"filename"`
	MaxSize    int    `yaml:"maxSize"` // MB
	MaxDays    int    `yaml:"maxAge"`
	MaxBackups int    `yaml:"maxBackups"`
}

// Config mirrors the log.* keys of the parameter table.
type Config struct {
	Level  string        `yaml:"level"`
	Format string        `yaml:"format"` // text or json
	File   FileLogConfig `yaml:"file"`

	DisableTimestamp  bool `yaml:"-"`
	DisableCaller     bool `yaml:"-"`
	DisableStacktrace bool `yaml:"-"`
	Development       bool `yaml:"-"`
}

// ZapProperties keeps the pieces of a built logger that are adjusted at
// runtime.
type ZapProperties struct {
	Core   zapcore.Core
	Syncer zapcore.WriteSyncer
	Level  zap.AtomicLevel
}

func (cfg *Config) output() (zapcore.WriteSyncer, error) {
	if cfg.File.Filename == "" {
		return zapcore.Lock(os.Stdout), nil
	}
	if st, err := os.Stat(cfg.File.Filename); err == nil && st.IsDir() {
		return nil, errors.Newf("log file %s is a directory", cfg.File.Filename)
	}
	if cfg.File.MaxSize == 0 {
		cfg.File.MaxSize = defaultLogMaxSize
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File.Filename,
		MaxSize:    cfg.File.MaxSize,
		MaxAge:     cfg.File.MaxDays,
		MaxBackups: cfg.File.MaxBackups,
		LocalTime:  true,
	}), nil
}

func (cfg *Config) buildOptions(errSink zapcore.WriteSyncer) []zap.Option {
	opts := []zap.Option{zap.ErrorOutput(errSink)}
	if !cfg.DisableCaller {
		opts = append(opts, zap.AddCaller())
	}
	stackLevel := zap.ErrorLevel
	if cfg.Development {
		opts = append(opts, zap.Development())
		stackLevel = zap.WarnLevel
	}
	if !cfg.DisableStacktrace {
		opts = append(opts, zap.AddStacktrace(stackLevel))
	}
	return opts
}

func (cfg *Config) encoder() zapcore.Encoder {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if cfg.DisableTimestamp {
		encCfg.TimeKey = zapcore.OmitKey
	}
	if cfg.Format == FormatJSON {
		return zapcore.NewJSONEncoder(encCfg)
	}
	return zapcore.NewConsoleEncoder(encCfg)
}
