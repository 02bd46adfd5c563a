// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package offline

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the subset of Options that can be checked into a YAML file
// next to a deployment's binary. The collaborators (Store, Transport,
// Codec, ShouldStore, Metrics) are still wired in Go; FileConfig only
// covers the scalar knobs, mirroring how cmd/offline-demo's flags map onto
// the same fields.
type FileConfig struct {
	FlushAtStartup bool   `yaml:"flush_at_startup"`
	FullOffline    bool   `yaml:"full_offline"`
	DBName         string `yaml:"db_name"`
	StoreName      string `yaml:"store_name"`
	MaxQueueSize   int    `yaml:"max_queue_size"`

	Backend struct {
		Kind        string `yaml:"kind"` // "sqlite", "postgres", or "redis"
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
		RedisAddr   string `yaml:"redis_addr"`
	} `yaml:"backend"`

	StatsInterval time.Duration `yaml:"stats_interval"`
}

// LoadFileConfig reads and parses a FileConfig from path.
func LoadFileConfig(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("offline: read config %s: %w", path, err)
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("offline: parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyTo copies the scalar knobs in cfg onto opts, leaving opts'
// collaborators (Store, Transport, Codec, ShouldStore, Metrics) untouched.
func (cfg FileConfig) ApplyTo(opts Options) Options {
	opts.FlushAtStartup = cfg.FlushAtStartup
	opts.FullOffline = cfg.FullOffline
	if cfg.DBName != "" {
		opts.DBName = cfg.DBName
	}
	if cfg.StoreName != "" {
		opts.StoreName = cfg.StoreName
	}
	if cfg.MaxQueueSize > 0 {
		opts.MaxQueueSize = cfg.MaxQueueSize
	}
	return opts
}
