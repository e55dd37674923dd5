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
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// globals is swapped as a whole so L, S and the level always agree.
type globals struct {
	logger *zap.Logger
	sugar  *zap.SugaredLogger
	props  *ZapProperties
}

var current atomic.Pointer[globals]

func init() {
	lg, props, err := InitLoggerWithWriteSyncer(&Config{Level: "info"}, zapcore.Lock(os.Stdout))
	if err != nil {
		panic(err)
	}
	ReplaceGlobals(lg, props)
}

// InitLogger builds a logger that writes to cfg.File, or to stdout when no
// file name is configured.
func InitLogger(cfg *Config, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	output, err := cfg.output()
	if err != nil {
		return nil, nil, err
	}
	return InitLoggerWithWriteSyncer(cfg, output, opts...)
}

// InitLoggerWithWriteSyncer builds a logger on top of output.
func InitLoggerWithWriteSyncer(cfg *Config, output zapcore.WriteSyncer, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "invalid log level %q", cfg.Level)
	}
	props := &ZapProperties{
		Core:   zapcore.NewCore(cfg.encoder(), output, level),
		Syncer: output,
		Level:  level,
	}
	return zap.New(props.Core, append(cfg.buildOptions(output), opts...)...), props, nil
}

// L returns the global logger. It's safe for concurrent use.
func L() *zap.Logger {
	return current.Load().logger
}

// S returns the sugared form of L.
func S() *zap.SugaredLogger {
	return current.Load().sugar
}

func properties() *ZapProperties {
	return current.Load().props
}

// ReplaceGlobals installs logger as the global logger. props may be nil when
// the level is not adjustable.
func ReplaceGlobals(logger *zap.Logger, props *ZapProperties) {
	current.Store(&globals{logger: logger, sugar: logger.Sugar(), props: props})
}

// Sync flushes buffered entries of the global logger.
func Sync() error {
	return L().Sync()
}
