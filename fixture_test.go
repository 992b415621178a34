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

package osmpbf

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"m4o.io/osmpbf/model"
	"m4o.io/osmpbf/protobuf"
)

// encodeTestFile builds a complete PBF byte stream: one OSMHeader frame
// followed by the given blocks.
func encodeTestFile(t *testing.T, compression BlobCompression, blocks ...*protobuf.PrimitiveBlock) []byte {
	t.Helper()

	var buf bytes.Buffer

	enc := NewEncoder(&buf,
		WithCompression(compression),
		WithRequiredFeatures("OsmSchema-V0.6", "DenseNodes"),
		WithWritingProgram("osmpbf-test"),
		WithBoundingBox(&model.BoundingBox{Top: 51.7, Left: -0.6, Bottom: 51.2, Right: 0.4}),
	)

	require.NoError(t, enc.WriteHeader())

	for _, b := range blocks {
		require.NoError(t, enc.WriteBlock(b))
	}

	return buf.Bytes()
}

// writeTestFile persists an encoded stream under a temp dir and returns its
// path.
func writeTestFile(t *testing.T, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.osm.pbf")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

func emptyStringTable() *protobuf.StringTable {
	return &protobuf.StringTable{S: [][]byte{{}}}
}

// denseBlock builds a block of n dense nodes with ids counting up from
// firstID, all at the same delta-coded coordinate.
func denseBlock(firstID int64, n int) *protobuf.PrimitiveBlock {
	ids := make([]int64, n)
	lats := make([]int64, n)
	lons := make([]int64, n)

	ids[0] = firstID
	lats[0] = 515000000
	lons[0] = -1000000

	for i := 1; i < n; i++ {
		ids[i] = 1
		lats[i] = 10
		lons[i] = 10
	}

	return &protobuf.PrimitiveBlock{
		Stringtable: emptyStringTable(),
		Primitivegroup: []*protobuf.PrimitiveGroup{{
			Dense: &protobuf.DenseNodes{Id: ids, Lat: lats, Lon: lons},
		}},
		Granularity:     protobuf.DefaultGranularity,
		DateGranularity: protobuf.DefaultDateGranularity,
	}
}

// nodesBlock builds a block of n plain nodes.
func nodesBlock(firstID int64, n int) *protobuf.PrimitiveBlock {
	nodes := make([]*protobuf.Node, n)

	for i := range nodes {
		nodes[i] = &protobuf.Node{
			Id:  firstID + int64(i),
			Lat: 515000000 + int64(i),
			Lon: -1000000 + int64(i),
		}
	}

	return &protobuf.PrimitiveBlock{
		Stringtable: emptyStringTable(),
		Primitivegroup: []*protobuf.PrimitiveGroup{{
			Nodes: nodes,
		}},
		Granularity:     protobuf.DefaultGranularity,
		DateGranularity: protobuf.DefaultDateGranularity,
	}
}

// waysBlock builds a block of n ways, each referencing three delta-coded
// nodes.
func waysBlock(firstID int64, n int) *protobuf.PrimitiveBlock {
	ways := make([]*protobuf.Way, n)

	for i := range ways {
		ways[i] = &protobuf.Way{
			Id:   firstID + int64(i),
			Refs: []int64{100, 1, 1},
		}
	}

	return &protobuf.PrimitiveBlock{
		Stringtable: emptyStringTable(),
		Primitivegroup: []*protobuf.PrimitiveGroup{{
			Ways: ways,
		}},
		Granularity:     protobuf.DefaultGranularity,
		DateGranularity: protobuf.DefaultDateGranularity,
	}
}

// relationsBlock builds a block of n relations, each with one way member.
func relationsBlock(firstID int64, n int) *protobuf.PrimitiveBlock {
	relations := make([]*protobuf.Relation, n)

	for i := range relations {
		relations[i] = &protobuf.Relation{
			Id:       firstID + int64(i),
			RolesSid: []int32{0},
			Memids:   []int64{200},
			Types:    []protobuf.Relation_MemberType{protobuf.Relation_WAY},
		}
	}

	return &protobuf.PrimitiveBlock{
		Stringtable: emptyStringTable(),
		Primitivegroup: []*protobuf.PrimitiveGroup{{
			Relations: relations,
		}},
		Granularity:     protobuf.DefaultGranularity,
		DateGranularity: protobuf.DefaultDateGranularity,
	}
}
