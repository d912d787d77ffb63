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

package options

import (
	"fmt"
	"time"
)

const (
	// DefaultTimeout bounds a single render operation
	DefaultTimeout = 30 * time.Second
	// DefaultWidth is the viewport width when the request omits one
	DefaultWidth = 1200
	// DefaultHeight is the viewport height when the request omits one
	DefaultHeight = 630
	// DefaultMaxWidth is the maximum accepted viewport width
	DefaultMaxWidth = 2560
	// DefaultMaxHeight is the maximum accepted viewport height
	DefaultMaxHeight = 2560
)

// Options is a collection of renderer configurations
type Options struct {
	// Timeout bounds a single render operation
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// ExecPath optionally points at the browser binary to launch
	ExecPath string `yaml:"exec_path,omitempty"`
	// DefaultWidth is the viewport width when the request omits one
	DefaultWidth int `yaml:"default_width,omitempty"`
	// DefaultHeight is the viewport height when the request omits one
	DefaultHeight int `yaml:"default_height,omitempty"`
	// MaxWidth is the maximum accepted viewport width
	MaxWidth int `yaml:"max_width,omitempty"`
	// MaxHeight is the maximum accepted viewport height
	MaxHeight int `yaml:"max_height,omitempty"`
}

// New returns a new Options reference with default values set
func New() *Options {
	return &Options{
		Timeout:       DefaultTimeout,
		DefaultWidth:  DefaultWidth,
		DefaultHeight: DefaultHeight,
		MaxWidth:      DefaultMaxWidth,
		MaxHeight:     DefaultMaxHeight,
	}
}

// Validate returns an error if the Options are unusable
func (o *Options) Validate() error {
	if o.Timeout < 1 {
		return fmt.Errorf("invalid render timeout: %s", o.Timeout)
	}
	if o.MaxWidth < 1 || o.MaxHeight < 1 {
		return fmt.Errorf("invalid render dimension maxima: %dx%d", o.MaxWidth, o.MaxHeight)
	}
	if o.DefaultWidth < 1 || o.DefaultWidth > o.MaxWidth ||
		o.DefaultHeight < 1 || o.DefaultHeight > o.MaxHeight {
		return fmt.Errorf("invalid render default dimensions: %dx%d", o.DefaultWidth, o.DefaultHeight)
	}
	return nil
}

// UnmarshalYAML applies defaults before overlaying YAML-parsed values
func (o *Options) UnmarshalYAML(unmarshal func(any) error) error {
	type loadOptions Options
	lo := loadOptions(*(New()))
	if err := unmarshal(&lo); err != nil {
		return err
	}
	*o = Options(lo)
	return nil
}
