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

// Package policy decides whether a requested target URL may be rendered.
// Policy denial is distinct from request validation and cache outcomes.
package policy

import (
	"net/url"
	"strings"
)

// Options is a collection of target-policy configurations
type Options struct {
	// AllowedHosts, when non-empty, restricts targets to the listed hosts
	// and their subdomains
	AllowedHosts []string `yaml:"allowed_hosts,omitempty"`
	// BlockedHosts denies the listed hosts and their subdomains
	BlockedHosts []string `yaml:"blocked_hosts,omitempty"`
}

// New returns a new Options reference with default values set
func New() *Options {
	return &Options{}
}

// Checker evaluates target URLs against the configured policy
type Checker struct {
	allowed []string
	blocked []string
}

// NewChecker returns a Checker for the provided options
func NewChecker(o *Options) *Checker {
	if o == nil {
		o = New()
	}
	return &Checker{allowed: o.AllowedHosts, blocked: o.BlockedHosts}
}

// Allowed reports whether the target may be rendered. Only http and https
// targets are ever allowed.
func (c *Checker) Allowed(u *url.URL) bool {
	if u == nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, b := range c.blocked {
		if hostMatches(host, b) {
			return false
		}
	}
	if len(c.allowed) == 0 {
		return true
	}
	for _, a := range c.allowed {
		if hostMatches(host, a) {
			return true
		}
	}
	return false
}

func hostMatches(host, pattern string) bool {
	pattern = strings.ToLower(pattern)
	return host == pattern || strings.HasSuffix(host, "."+pattern)
}
