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
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/osmpbf/protobuf"
)

func TestClassifyBlock(t *testing.T) {
	tests := []struct {
		name     string
		block    *protobuf.PrimitiveBlock
		expected BlockType
	}{
		{"nodes", nodesBlock(1, 3), BlockTypeNodes},
		{"dense nodes", denseBlock(1, 3), BlockTypeDenseNodes},
		{"ways", waysBlock(1, 3), BlockTypeWays},
		{"relations", relationsBlock(1, 3), BlockTypeRelations},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data := protobuf.Marshal(tc.block)

			typ, err := ClassifyBlock(data)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, typ)
		})
	}
}

func TestClassifyBlockChangesets(t *testing.T) {
	block := &protobuf.PrimitiveBlock{
		Stringtable: emptyStringTable(),
		Primitivegroup: []*protobuf.PrimitiveGroup{{
			Changesets: []*protobuf.ChangeSet{{Id: 1}},
		}},
		Granularity:     protobuf.DefaultGranularity,
		DateGranularity: protobuf.DefaultDateGranularity,
	}

	_, err := ClassifyBlock(protobuf.Marshal(block))
	assert.ErrorIs(t, err, ErrUnsupportedChangeset)
}

func TestClassifyBlockNoGroup(t *testing.T) {
	block := &protobuf.PrimitiveBlock{
		Stringtable:     emptyStringTable(),
		Granularity:     protobuf.DefaultGranularity,
		DateGranularity: protobuf.DefaultDateGranularity,
	}

	_, err := ClassifyBlock(protobuf.Marshal(block))
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestClassifyBlockTruncated(t *testing.T) {
	data := protobuf.Marshal(denseBlock(1, 3))

	_, err := ClassifyBlock(data[:1])
	assert.Error(t, err)
}

func TestBlockIndexOrdering(t *testing.T) {
	index := []BlockIndex{
		{Type: BlockTypeWays, BlobStart: 100, BlobLen: 10, BlobHeaderLen: 14},
		{Type: BlockTypeDenseNodes, BlobStart: 500, BlobLen: 10, BlobHeaderLen: 14},
		{Type: BlockTypeDenseNodes, BlobStart: 50, BlobLen: 10, BlobHeaderLen: 14},
		{Type: BlockTypeHeader, BlobStart: 14, BlobLen: 32, BlobHeaderLen: 10},
		{Type: BlockTypeRelations, BlobStart: 300, BlobLen: 10, BlobHeaderLen: 14},
	}

	slices.SortFunc(index, BlockIndex.Compare)

	types := make([]BlockType, len(index))
	for i, idx := range index {
		types[i] = idx.Type
	}

	assert.Equal(t, []BlockType{
		BlockTypeHeader,
		BlockTypeDenseNodes,
		BlockTypeDenseNodes,
		BlockTypeWays,
		BlockTypeRelations,
	}, types)

	// Equal types order by position.
	assert.Equal(t, int64(50), index[1].BlobStart)
	assert.Equal(t, int64(500), index[2].BlobStart)
}

func BenchmarkClassifyBlock(b *testing.B) {
	data := protobuf.Marshal(denseBlock(1, 1000))

	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := ClassifyBlock(data); err != nil {
			b.Fatal(err)
		}
	}
}

func TestBlockTypeString(t *testing.T) {
	assert.Equal(t, "Header", BlockTypeHeader.String())
	assert.Equal(t, "DenseNodes", BlockTypeDenseNodes.String())
	assert.Equal(t, "BlockType(99)", BlockType(99).String())
}
