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

const (
	HighPriority   = 1
	NormalPriority = HighPriority + 10
	LowPriority    = NormalPriority + 10
)

// Source provides flattened key/value configurations. Sources with a
// lower priority value win.
type Source interface {
	GetConfigurations() (map[string]string, error)
	GetConfigurationByKey(string) (string, error)
	GetPriority() int
	GetSourceName() string
	Close()
}

// FileInfo lists the yaml files of a FileSource. Missing files are skipped.
type FileInfo struct {
	Files []string
}

type Options struct {
	FileInfo        *FileInfo
	EnvKeyFormatter func(string) string
}

type Option func(options *Options)

// WithFilesSource adds yaml files, later files override earlier ones.
func WithFilesSource(fi *FileInfo) Option {
	return func(options *Options) {
		options.FileInfo = fi
	}
}

// WithEnvSource exposes the process environment. Each variable is also
// stored under keyFormatter(name).
func WithEnvSource(keyFormatter func(string) string) Option {
	return func(options *Options) {
		options.EnvKeyFormatter = keyFormatter
	}
}
