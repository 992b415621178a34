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
	"cmp"
	"encoding/binary"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/osmpbf/protobuf"
)

// dataBlocks returns the OSMData entries of index in file order.
func dataBlocks(index []BlockIndex) []BlockIndex {
	var data []BlockIndex

	for _, idx := range index {
		if idx.Type != BlockTypeHeader {
			data = append(data, idx)
		}
	}

	slices.SortFunc(data, func(a, b BlockIndex) int {
		return cmp.Compare(a.BlobStart, b.BlobStart)
	})

	return data
}

func TestBlockReaderInOrder(t *testing.T) {
	blocks := []*protobuf.PrimitiveBlock{
		denseBlock(1, 10),
		waysBlock(100, 5),
		relationsBlock(200, 3),
	}
	data := encodeTestFile(t, ZLIB, blocks...)

	index, err := BuildBlockIndex(writeTestFile(t, data))
	require.NoError(t, err)

	rdr := NewBlockReader(bytes.NewReader(data))

	for i, idx := range dataBlocks(index) {
		block, err := ReadBlock[protobuf.PrimitiveBlock](rdr, idx)
		require.NoError(t, err)

		// Decoding then re-encoding reproduces the original payload.
		assert.Equal(t, protobuf.Marshal(blocks[i]), protobuf.Marshal(block))
	}
}

func TestBlockReaderOutOfOrder(t *testing.T) {
	blocks := []*protobuf.PrimitiveBlock{
		denseBlock(1, 10),
		denseBlock(100, 5),
		denseBlock(200, 3),
		denseBlock(300, 7),
	}
	data := encodeTestFile(t, ZLIB, blocks...)

	index, err := BuildBlockIndex(writeTestFile(t, data))
	require.NoError(t, err)

	entries := dataBlocks(index)
	require.Len(t, entries, len(blocks))

	rdr := NewBlockReader(bytes.NewReader(data))

	// Reverse order forces a re-seek on every read.
	for i := len(entries) - 1; i >= 0; i-- {
		block, err := ReadBlock[protobuf.PrimitiveBlock](rdr, entries[i])
		require.NoError(t, err)
		assert.Equal(t, protobuf.Marshal(blocks[i]), protobuf.Marshal(block))
	}

	// Repeated reads of the same entry are stable.
	first, err := ReadBlock[protobuf.PrimitiveBlock](rdr, entries[0])
	require.NoError(t, err)
	again, err := ReadBlock[protobuf.PrimitiveBlock](rdr, entries[0])
	require.NoError(t, err)
	assert.Equal(t, protobuf.Marshal(first), protobuf.Marshal(again))
}

func TestBlockReaderHeaderBlock(t *testing.T) {
	data := encodeTestFile(t, ZLIB, denseBlock(1, 3))

	index, err := BuildBlockIndex(writeTestFile(t, data))
	require.NoError(t, err)
	require.Equal(t, BlockTypeHeader, index[0].Type)

	rdr := NewBlockReader(bytes.NewReader(data))

	hdr, err := ReadBlock[protobuf.HeaderBlock](rdr, index[0])
	require.NoError(t, err)

	assert.Equal(t, []string{"OsmSchema-V0.6", "DenseNodes"}, hdr.RequiredFeatures)
	assert.Equal(t, "osmpbf-test", hdr.Writingprogram)
}

func TestBlockReaderInvalidOffset(t *testing.T) {
	data := encodeTestFile(t, ZLIB, denseBlock(1, 3))
	rdr := NewBlockReader(bytes.NewReader(data))

	_, err := rdr.BlockData(BlockIndex{BlobStart: -1, BlobLen: 10})
	assert.ErrorIs(t, err, ErrInvalidOffset)

	_, err = rdr.BlockData(BlockIndex{BlobStart: int64(len(data)) + 100, BlobLen: 10})
	assert.ErrorIs(t, err, ErrInvalidOffset)
}

func TestBlockReaderUnsupportedCompression(t *testing.T) {
	data := encodeTestFile(t, ZSTD, denseBlock(1, 3))

	// The data frame has to be located by hand; the index scan drops blocks
	// it cannot decompress.
	index, err := BuildBlockIndex(writeTestFile(t, data))
	require.NoError(t, err)
	require.Len(t, index, 1)

	offset := 4 + int64(index[0].BlobHeaderLen) + int64(index[0].BlobLen)
	headerLen := int(binary.BigEndian.Uint32(data[offset:]))

	header := &protobuf.BlobHeader{}
	require.NoError(t, header.Unmarshal(data[offset+4:offset+4+int64(headerLen)]))

	idx := BlockIndex{
		Type:          BlockTypeDenseNodes,
		BlobStart:     offset + 4 + int64(headerLen),
		BlobLen:       int(header.Datasize),
		BlobHeaderLen: headerLen,
	}

	rdr := NewBlockReader(bytes.NewReader(data))

	_, err = rdr.BlockData(idx)
	assert.ErrorIs(t, err, ErrUnsupportedCompression)
}

func TestMmapReader(t *testing.T) {
	blocks := []*protobuf.PrimitiveBlock{
		denseBlock(1, 10),
		waysBlock(100, 5),
	}
	data := encodeTestFile(t, ZLIB, blocks...)
	path := writeTestFile(t, data)

	r, err := OpenMmapReader(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, int64(len(data)), r.Size())

	index := r.BuildBlockIndex()

	// The mmap scan agrees with the stream scan.
	streamed, err := BuildBlockIndex(path)
	require.NoError(t, err)
	assert.Equal(t, streamed, index)

	for i, idx := range dataBlocks(index) {
		block, err := ReadBlock[protobuf.PrimitiveBlock](r, idx)
		require.NoError(t, err)
		assert.Equal(t, protobuf.Marshal(blocks[i]), protobuf.Marshal(block))
	}
}

func TestMmapReaderInvalidOffset(t *testing.T) {
	data := encodeTestFile(t, ZLIB, denseBlock(1, 3))
	path := writeTestFile(t, data)

	r, err := OpenMmapReader(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.BlockData(BlockIndex{BlobStart: int64(len(data)), BlobLen: 10})
	assert.ErrorIs(t, err, ErrInvalidOffset)
}
