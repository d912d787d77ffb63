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
	"flag"
	"io"
)

// Flags holds the command line flags
type Flags struct {
	// PrintVersion indicates whether to print the application version and exit
	PrintVersion bool
	// ValidateConfig indicates whether to validate the configuration and exit
	ValidateConfig bool
	// ConfigPath is the path to the configuration file
	ConfigPath string
	// LogLevel overrides the configured log level
	LogLevel string
	// ListenPort overrides the configured frontend listen port
	ListenPort int

	customPath bool
}

// parseFlags parses the provided arguments into a Flags reference
func parseFlags(applicationName string, arguments []string) (*Flags, error) {
	flags := &Flags{}
	fs := flag.NewFlagSet(applicationName, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVar(&flags.PrintVersion, "version", false,
		"prints the application version and exits")
	fs.BoolVar(&flags.ValidateConfig, "validate-config", false,
		"validates the configuration and exits")
	fs.StringVar(&flags.ConfigPath, "config", "",
		"path to the configuration file")
	fs.StringVar(&flags.LogLevel, "log-level", "",
		"overrides the configured log level")
	fs.IntVar(&flags.ListenPort, "port", 0,
		"overrides the configured frontend listen port")
	if err := fs.Parse(arguments); err != nil {
		return nil, err
	}
	flags.customPath = flags.ConfigPath != ""
	return flags, nil
}

// loadFlags applies parsed flags over the file- and env-provided values
func (c *Config) loadFlags(flags *Flags) {
	if flags.LogLevel != "" {
		c.Logging.LogLevel = flags.LogLevel
	}
	if flags.ListenPort > 0 {
		c.Frontend.ListenPort = flags.ListenPort
	}
	c.Flags = flags
}
