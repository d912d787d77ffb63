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

// Package appinfo holds the application's identity information, conveyed in
// logs, metrics and the -version flag output.
package appinfo

import (
	"fmt"
	"os"
	goruntime "runtime"
)

const Name = "previewd"

// these are set at build time via go build's -ldflags
var (
	Version     = "2.0.0"
	GitCommitID = ""
	BuildTime   = ""
)

// Server is the server name conveyed in response headers,
// defaulting to the os hostname
var Server string

func SetServer(name string) {
	if name == "" {
		name, _ = os.Hostname()
	}
	Server = name
}

// PrintVersion writes the application version info to stdout
func PrintVersion() {
	fmt.Printf("%s %s (commit: %s, built: %s, runtime: %s)\n",
		Name, Version, GitCommitID, BuildTime, goruntime.Version())
}
