// Copyright 2025 the original author or authors.
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

// Package cli carries the root command and the terminal helpers shared by
// the pbf subcommands.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// RootCmd is the root of the pbf command tree; subcommands register
// themselves in their init functions.
var RootCmd = &cobra.Command{
	Use:   "pbf",
	Short: "pbf inspects OpenStreetMap PBF files",
	Long:  "pbf inspects OpenStreetMap PBF files: file headers, block indexes, and element counts.",
}

// Execute runs the root command.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
