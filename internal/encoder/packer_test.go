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

package encoder

import (
	"bytes"
	"compress/zlib"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/osmpbf/protobuf"
)

func testHeaderBlock() *protobuf.HeaderBlock {
	return &protobuf.HeaderBlock{
		RequiredFeatures: []string{"OsmSchema-V0.6"},
		Writingprogram:   "packer-test",
	}
}

func TestPackRaw(t *testing.T) {
	msg := testHeaderBlock()

	bb, err := Pack(msg, RAW)
	require.NoError(t, err)

	blob := &protobuf.Blob{}
	require.NoError(t, blob.Unmarshal(bb))

	expected := protobuf.Marshal(msg)

	require.True(t, blob.HasRawSize())
	assert.Equal(t, int32(len(expected)), blob.GetRawSize())
	assert.Equal(t, expected, blob.GetRaw())
}

func TestPackZlib(t *testing.T) {
	msg := testHeaderBlock()

	bb, err := Pack(msg, ZLIB)
	require.NoError(t, err)

	blob := &protobuf.Blob{}
	require.NoError(t, blob.Unmarshal(bb))

	r, err := zlib.NewReader(bytes.NewReader(blob.GetZlibData()))
	require.NoError(t, err)

	inflated, err := io.ReadAll(r)
	require.NoError(t, err)

	expected := protobuf.Marshal(msg)

	assert.Equal(t, int32(len(expected)), blob.GetRawSize())
	assert.Equal(t, expected, inflated)
}

func TestPackFillsOneof(t *testing.T) {
	tests := []struct {
		compression BlobCompression
		extract     func(*protobuf.Blob) []byte
	}{
		{RAW, (*protobuf.Blob).GetRaw},
		{ZLIB, (*protobuf.Blob).GetZlibData},
		{LZMA, (*protobuf.Blob).GetLzmaData},
		{LZ4, (*protobuf.Blob).GetLz4Data},
		{ZSTD, (*protobuf.Blob).GetZstdData},
	}

	for _, tc := range tests {
		t.Run(tc.compression.String(), func(t *testing.T) {
			bb, err := Pack(testHeaderBlock(), tc.compression)
			require.NoError(t, err)

			blob := &protobuf.Blob{}
			require.NoError(t, blob.Unmarshal(bb))

			assert.NotEmpty(t, tc.extract(blob))
		})
	}
}

func TestWriteBlobFrame(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteBlob(&buf, TypeOSMHeader, testHeaderBlock(), ZLIB))

	data := buf.Bytes()
	require.Greater(t, len(data), 4)

	headerLen := int(data[0])<<24 | int(data[1])<<16 | int(data[2])<<8 | int(data[3])
	require.Greater(t, headerLen, 0)
	require.LessOrEqual(t, 4+headerLen, len(data))

	hdr := &protobuf.BlobHeader{}
	require.NoError(t, hdr.Unmarshal(data[4:4+headerLen]))

	assert.Equal(t, TypeOSMHeader, hdr.Type)
	assert.Equal(t, len(data)-4-headerLen, int(hdr.Datasize))
}
