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

// Package main is the main package for the previewd application
package main

import (
	"os"

	"github.com/previewcache/previewd/pkg/appinfo"
	"github.com/previewcache/previewd/pkg/daemon"
)

var applicationGitCommitID string
var applicationBuildTime string

func main() {
	if applicationGitCommitID != "" {
		appinfo.GitCommitID = applicationGitCommitID
	}
	if applicationBuildTime != "" {
		appinfo.BuildTime = applicationBuildTime
	}
	if err := daemon.Start(); err != nil {
		os.Exit(1)
	}
}
