/*
 * Copyright 2024 The Previewd Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"os"
	"strconv"
)

// Environment variables consulted by Load
const (
	evLogLevel   = "PREVIEWD_LOG_LEVEL"
	evListenPort = "PREVIEWD_LISTEN_PORT"
	evCachePath  = "PREVIEWD_CACHE_PATH"
)

// Load returns the application configuration, starting with a default
// config, then overriding with any provided config file, then env vars, and
// finally flags
func Load(applicationName string, arguments []string) (*Config, error) {
	c := NewConfig()
	flags, err := parseFlags(applicationName, arguments)
	if err != nil {
		return nil, err
	}
	if flags.PrintVersion {
		c.Flags = flags
		return c, nil
	}
	if flags.customPath {
		if err := c.loadFile(flags.ConfigPath); err != nil {
			return nil, err
		}
	}
	c.loadEnvVars()
	c.loadFlags(flags)
	return c, nil
}

// loadEnvVars overlays configuration values from the environment
func (c *Config) loadEnvVars() {
	if v := os.Getenv(evLogLevel); v != "" {
		c.Logging.LogLevel = v
	}
	if v := os.Getenv(evListenPort); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Frontend.ListenPort = p
		}
	}
	if v := os.Getenv(evCachePath); v != "" {
		c.Cache.Filesystem.CachePath = v
	}
}
