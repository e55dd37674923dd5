// Copyright 2019 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxLogKeyType struct{}

var ctxLogKey = ctxLogKeyType{}

// Debug, Info, Warn and Error log through the global logger, reporting the
// caller of the package function.
func Debug(msg string, fields ...zap.Field) {
	L().WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	L().WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	L().WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	L().WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...)
}

// Fatal logs a message at FatalLevel, then calls os.Exit(1).
func Fatal(msg string, fields ...zap.Field) {
	L().WithOptions(zap.AddCallerSkip(1)).Fatal(msg, fields...)
}

// With creates a child logger and adds structured context to it.
// Fields added to the child don't affect the parent, and vice versa.
func With(fields ...zap.Field) *zap.Logger {
	return L().WithOptions(zap.AddCallerSkip(1)).With(fields...)
}

// SetLevel alters the logging level.
func SetLevel(l zapcore.Level) {
	if p := properties(); p != nil {
		p.Level.SetLevel(l)
	}
}

// GetLevel gets the logging level.
func GetLevel() zapcore.Level {
	if p := properties(); p != nil {
		return p.Level.Level()
	}
	return zapcore.InfoLevel
}

// WithFields returns a context carrying a logger with the given fields
// appended to whatever the context already holds.
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxLogKey, Ctx(ctx).With(fields...))
}

// WithModule is a shorthand for WithFields(ctx, FieldModule(module)).
func WithModule(ctx context.Context, module string) context.Context {
	return WithFields(ctx, FieldModule(module))
}

// Ctx returns the logger stored in ctx, or the global logger.
func Ctx(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return L()
	}
	if lg, ok := ctx.Value(ctxLogKey).(*zap.Logger); ok {
		return lg
	}
	return L()
}
