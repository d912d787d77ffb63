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

package policy

import (
	"net/url"
	"testing"
)

func parseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestAllowedSchemes(t *testing.T) {
	c := NewChecker(nil)
	tests := []struct {
		url      string
		expected bool
	}{
		{"https://example.com/page", true},
		{"http://example.com/page", true},
		{"ftp://example.com/file", false},
		{"file:///etc/passwd", false},
		{"javascript:alert(1)", false},
		{"https:///no-host", false},
	}
	for _, tc := range tests {
		if got := c.Allowed(parseURL(t, tc.url)); got != tc.expected {
			t.Errorf("%s: expected %t, got %t", tc.url, tc.expected, got)
		}
	}
}

func TestAllowedNilTarget(t *testing.T) {
	if NewChecker(nil).Allowed(nil) {
		t.Error("nil target should be denied")
	}
}

func TestBlockedHosts(t *testing.T) {
	c := NewChecker(&Options{BlockedHosts: []string{"internal.example.com"}})
	tests := []struct {
		url      string
		expected bool
	}{
		{"https://internal.example.com/", false},
		{"https://api.internal.example.com/", false},      // subdomain
		{"https://INTERNAL.example.com/", false},          // case-insensitive
		{"https://notinternal.example.com/", true},        // no suffix match
		{"https://example.com/", true},
	}
	for _, tc := range tests {
		if got := c.Allowed(parseURL(t, tc.url)); got != tc.expected {
			t.Errorf("%s: expected %t, got %t", tc.url, tc.expected, got)
		}
	}
}

func TestAllowedHosts(t *testing.T) {
	c := NewChecker(&Options{AllowedHosts: []string{"example.com"}})
	tests := []struct {
		url      string
		expected bool
	}{
		{"https://example.com/", true},
		{"https://www.example.com/", true},
		{"https://other.com/", false},
		{"https://example.com.evil.com/", false},
	}
	for _, tc := range tests {
		if got := c.Allowed(parseURL(t, tc.url)); got != tc.expected {
			t.Errorf("%s: expected %t, got %t", tc.url, tc.expected, got)
		}
	}
}

func TestBlockOverridesAllow(t *testing.T) {
	c := NewChecker(&Options{
		AllowedHosts: []string{"example.com"},
		BlockedHosts: []string{"private.example.com"},
	})
	if c.Allowed(parseURL(t, "https://private.example.com/")) {
		t.Error("blocked host should win over the allowlist")
	}
	if !c.Allowed(parseURL(t, "https://public.example.com/")) {
		t.Error("allowlisted host should be allowed")
	}
}
