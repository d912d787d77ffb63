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

// Package config provides previewd configuration abilities, including
// parsing and printing configuration files, command line parameters, and
// environment variables, as well as default values and state.
package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/previewcache/previewd/pkg/admission"
	cache "github.com/previewcache/previewd/pkg/cache/options"
	"github.com/previewcache/previewd/pkg/observability/logging"
	"github.com/previewcache/previewd/pkg/policy"
	render "github.com/previewcache/previewd/pkg/render/options"
)

const (
	// DefaultListenAddress is the default IP for the frontend listener
	DefaultListenAddress = ""
	// DefaultListenPort is the default TCP port for the frontend listener
	DefaultListenPort = 8480
	// DefaultMetricsListenPort is the default TCP port for the metrics listener
	DefaultMetricsListenPort = 8481
	// DefaultPingHandlerPath is the default path of the liveness handler
	DefaultPingHandlerPath = "/ping"
	// DefaultCardHandlerPath is the default path of the preview-card handler
	DefaultCardHandlerPath = "/"
)

// Config is the main configuration object
type Config struct {
	// Main is the primary MainConfig section
	Main *MainConfig `yaml:"main,omitempty"`
	// Frontend provides configurations for the front-end HTTP listener
	Frontend *FrontendConfig `yaml:"frontend,omitempty"`
	// Renderer provides configurations for the render collaborator
	Renderer *render.Options `yaml:"renderer,omitempty"`
	// Cache provides configurations for the two-tier preview cache
	Cache *cache.Options `yaml:"cache,omitempty"`
	// Admission provides configurations for render admission control
	Admission *AdmissionConfig `yaml:"admission,omitempty"`
	// Policy provides target allow/deny configurations
	Policy *policy.Options `yaml:"policy,omitempty"`
	// Logging provides configurations that affect logging behavior
	Logging *logging.Options `yaml:"logging,omitempty"`
	// Metrics provides configurations for the metrics listener
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`

	// Flags carries the parsed command-line state
	Flags *Flags `yaml:"-"`
}

// MainConfig is a collection of general configuration values
type MainConfig struct {
	// InstanceID represents a unique ID for the current instance, when
	// multiple instances run on the same host
	InstanceID int `yaml:"instance_id,omitempty"`
	// PingHandlerPath provides the path of the liveness handler
	PingHandlerPath string `yaml:"ping_handler_path,omitempty"`
	// CardHandlerPath provides the path of the preview-card handler
	CardHandlerPath string `yaml:"card_handler_path,omitempty"`
	// ServerName is conveyed in response headers; defaults to os.Hostname
	ServerName string `yaml:"server_name,omitempty"`
}

// FrontendConfig is a collection of configurations for the front-end HTTP listener
type FrontendConfig struct {
	// ListenAddress is the IP address for the front-end HTTP listener
	ListenAddress string `yaml:"listen_address,omitempty"`
	// ListenPort is the TCP port for the front-end HTTP listener
	ListenPort int `yaml:"listen_port,omitempty"`
}

// AdmissionConfig is a collection of configurations for render admission control
type AdmissionConfig struct {
	// MaxConcurrentRenders bounds the number of in-flight render operations
	MaxConcurrentRenders int `yaml:"max_concurrent_renders,omitempty"`
}

// MetricsConfig is a collection of configurations for the metrics listener
type MetricsConfig struct {
	// ListenAddress is the IP address for the metrics HTTP listener
	ListenAddress string `yaml:"listen_address,omitempty"`
	// ListenPort is the TCP port for the metrics HTTP listener
	ListenPort int `yaml:"listen_port,omitempty"`
	// PprofEnabled exposes the pprof debugging endpoints on the metrics listener
	PprofEnabled bool `yaml:"pprof_enabled,omitempty"`
}

// NewConfig returns a Config with default values set
func NewConfig() *Config {
	return &Config{
		Main: &MainConfig{
			PingHandlerPath: DefaultPingHandlerPath,
			CardHandlerPath: DefaultCardHandlerPath,
		},
		Frontend: &FrontendConfig{
			ListenAddress: DefaultListenAddress,
			ListenPort:    DefaultListenPort,
		},
		Renderer:  render.New(),
		Cache:     cache.New(),
		Admission: &AdmissionConfig{MaxConcurrentRenders: admission.DefaultMaxConcurrent},
		Policy:    policy.New(),
		Logging:   logging.NewOptions(),
		Metrics:   &MetricsConfig{ListenPort: DefaultMetricsListenPort},
	}
}

// loadFile overlays the YAML config file at the provided path
func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, c)
}

// Validate returns an error if the Config is unusable
func (c *Config) Validate() error {
	if c.Frontend.ListenPort < 1 || c.Frontend.ListenPort > 65535 {
		return fmt.Errorf("invalid frontend listen port: %d", c.Frontend.ListenPort)
	}
	if c.Metrics.ListenPort != 0 &&
		(c.Metrics.ListenPort < 1 || c.Metrics.ListenPort > 65535) {
		return fmt.Errorf("invalid metrics listen port: %d", c.Metrics.ListenPort)
	}
	if c.Admission.MaxConcurrentRenders < 1 {
		return fmt.Errorf("invalid max_concurrent_renders: %d",
			c.Admission.MaxConcurrentRenders)
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return c.Renderer.Validate()
}
