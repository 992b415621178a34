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

// Package blocks implements the command that builds and summarises a PBF
// file's block index.
package blocks

import (
	"fmt"
	"io"
	"log"
	"os"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"m4o.io/osmpbf"
	"m4o.io/osmpbf/cmd/pbf/cli"
)

var out io.Writer = os.Stdout

func init() {
	cli.RootCmd.AddCommand(blocksCmd)

	flags := blocksCmd.Flags()
	flags.BoolP("mmap", "m", false, "scan via a read-only memory map instead of buffered reads")
	flags.BoolP("list", "l", false, "list every block instead of the per-type summary")
}

var blocksCmd = &cobra.Command{
	Use:   "blocks <OSM file>",
	Short: "Summarise the block index of an OSM file",
	Long:  "Build the block index of an OSM file and print its per-type block and byte counts.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()

		mmapped, err := flags.GetBool("mmap")
		if err != nil {
			log.Fatal(err)
		}

		list, err := flags.GetBool("list")
		if err != nil {
			log.Fatal(err)
		}

		index, err := buildIndex(args[0], mmapped)
		if err != nil {
			log.Fatal(err)
		}

		if list {
			renderList(index)
		} else {
			renderSummary(index)
		}
	},
}

func buildIndex(path string, mmapped bool) ([]osmpbf.BlockIndex, error) {
	if !mmapped {
		return osmpbf.BuildBlockIndex(path)
	}

	r, err := osmpbf.OpenMmapReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return r.BuildBlockIndex(), nil
}

func renderList(index []osmpbf.BlockIndex) {
	for _, idx := range index {
		fmt.Fprintf(out, "%-10s start=%d len=%d headerLen=%d\n",
			idx.Type, idx.BlobStart, idx.BlobLen, idx.BlobHeaderLen)
	}
}

func renderSummary(index []osmpbf.BlockIndex) {
	counts := make(map[osmpbf.BlockType]int64)
	bytes := make(map[osmpbf.BlockType]int64)

	for _, idx := range index {
		counts[idx.Type]++
		bytes[idx.Type] += 4 + int64(idx.BlobHeaderLen) + int64(idx.BlobLen)
	}

	order := []osmpbf.BlockType{
		osmpbf.BlockTypeHeader,
		osmpbf.BlockTypeNodes,
		osmpbf.BlockTypeDenseNodes,
		osmpbf.BlockTypeWays,
		osmpbf.BlockTypeRelations,
	}

	for _, t := range order {
		if counts[t] == 0 {
			continue
		}

		fmt.Fprintf(out, "%-10s %s blocks, %s\n",
			t, humanize.Comma(counts[t]), humanize.Bytes(uint64(bytes[t])))
	}

	fmt.Fprintf(out, "Total      %s blocks\n", humanize.Comma(int64(len(index))))
}
