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

package blocks

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/osmpbf"
	"m4o.io/osmpbf/protobuf"
)

func writeStream(t *testing.T) string {
	t.Helper()

	var buf bytes.Buffer

	enc := osmpbf.NewEncoder(&buf, osmpbf.WithWritingProgram("blocks-test"))

	block := &protobuf.PrimitiveBlock{
		Stringtable: &protobuf.StringTable{S: [][]byte{{}}},
		Primitivegroup: []*protobuf.PrimitiveGroup{{
			Dense: &protobuf.DenseNodes{
				Id:  []int64{1, 1},
				Lat: []int64{515000000, 10},
				Lon: []int64{-1000000, 10},
			},
		}},
		Granularity:     protobuf.DefaultGranularity,
		DateGranularity: protobuf.DefaultDateGranularity,
	}

	require.NoError(t, enc.WriteBlock(block))

	path := filepath.Join(t.TempDir(), "blocks.osm.pbf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	return path
}

func TestBuildIndexStreamAndMmap(t *testing.T) {
	path := writeStream(t)

	streamed, err := buildIndex(path, false)
	require.NoError(t, err)

	mmapped, err := buildIndex(path, true)
	require.NoError(t, err)

	assert.Equal(t, streamed, mmapped)
	require.Len(t, streamed, 2)
	assert.Equal(t, osmpbf.BlockTypeHeader, streamed[0].Type)
	assert.Equal(t, osmpbf.BlockTypeDenseNodes, streamed[1].Type)
}

func TestRenderSummary(t *testing.T) {
	path := writeStream(t)

	index, err := buildIndex(path, false)
	require.NoError(t, err)

	var buf bytes.Buffer

	old := out
	out = &buf

	defer func() { out = old }()

	renderSummary(index)

	s := buf.String()
	assert.Contains(t, s, "Header")
	assert.Contains(t, s, "DenseNodes")
	assert.Contains(t, s, "Total      2 blocks")
}

func TestRenderList(t *testing.T) {
	path := writeStream(t)

	index, err := buildIndex(path, false)
	require.NoError(t, err)

	var buf bytes.Buffer

	old := out
	out = &buf

	defer func() { out = old }()

	renderList(index)

	s := buf.String()
	assert.Contains(t, s, "Header")
	assert.Contains(t, s, "start=")
	assert.Contains(t, s, "headerLen=")
}
