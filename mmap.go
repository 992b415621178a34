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
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"

	"m4o.io/osmpbf/protobuf"
)

// MmapReader reads blocks by slicing a read-only memory map of the whole
// file.  There is no seek state; the only mutable pieces are the scratch
// decompression buffers, so separate readers are needed for concurrent use.
//
// Slices returned by BlockData borrow either the mapping or the scratch
// buffer; neither may outlive the reader or the next call.
type MmapReader struct {
	f    *os.File
	data mmap.MMap

	scratch bytes.Buffer
}

// OpenMmapReader memory-maps the PBF file at path.
func OpenMmapReader(path string) (*MmapReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("osmpbf: open %s: %w", path, err)
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()

		return nil, fmt.Errorf("osmpbf: mmap %s: %w", path, err)
	}

	return &MmapReader{f: f, data: data}, nil
}

// Close unmaps the file.  Any slices previously returned by BlockData are
// invalid afterwards.
func (r *MmapReader) Close() error {
	if err := r.data.Unmap(); err != nil {
		r.f.Close()

		return fmt.Errorf("osmpbf: unmap: %w", err)
	}

	return r.f.Close()
}

// Size returns the length of the mapped file.
func (r *MmapReader) Size() int64 { return int64(len(r.data)) }

// BuildBlockIndex scans the mapped file and builds an index of block types,
// sorted lexicographically by block type and position.
func (r *MmapReader) BuildBlockIndex() []BlockIndex {
	return collectBlockIndex(&mmapIndexIterator{data: r.data})
}

// BlockData implements BlockSource.  Raw payloads alias the mapping; zlib
// payloads live in the reader's scratch buffer until the next call.
func (r *MmapReader) BlockData(idx BlockIndex) ([]byte, error) {
	end := idx.BlobStart + int64(idx.BlobLen)
	if idx.BlobStart < 0 || idx.BlobLen <= 0 || end > int64(len(r.data)) {
		return nil, fmt.Errorf("%w: start %d len %d in %d mapped bytes",
			ErrInvalidOffset, idx.BlobStart, idx.BlobLen, len(r.data))
	}

	blob := &protobuf.Blob{}
	if err := blob.Unmarshal(r.data[idx.BlobStart:end]); err != nil {
		return nil, fmt.Errorf("osmpbf: decode blob at %d: %w", idx.BlobStart, err)
	}

	return unpack(&r.scratch, blob)
}

// mmapIndexIterator advances a cursor over the mapped bytes, one blob frame
// per call.  Decompression still copies into a scratch buffer owned by the
// iterator.
type mmapIndexIterator struct {
	data    []byte
	cursor  int
	scratch bytes.Buffer
}

func (it *mmapIndexIterator) next() (BlockIndex, error) {
	if it.cursor == len(it.data) {
		return BlockIndex{}, io.EOF
	}

	if it.cursor+4 > len(it.data) {
		return BlockIndex{}, io.ErrUnexpectedEOF
	}

	blobHeaderLen := int(int32(binary.BigEndian.Uint32(it.data[it.cursor:])))
	if blobHeaderLen <= 0 || blobHeaderLen > maxBlobHeaderLen {
		return BlockIndex{}, fmt.Errorf("%w: blob header length %d", ErrInvalidFrameLength, blobHeaderLen)
	}

	it.cursor += 4

	if it.cursor+blobHeaderLen > len(it.data) {
		return BlockIndex{}, io.ErrUnexpectedEOF
	}

	header := &protobuf.BlobHeader{}
	if err := header.Unmarshal(it.data[it.cursor : it.cursor+blobHeaderLen]); err != nil {
		return BlockIndex{}, fmt.Errorf("osmpbf: decode blob header: %w", err)
	}

	it.cursor += blobHeaderLen

	blobLen := int(header.Datasize)
	if blobLen <= 0 || blobLen > maxBlobLen {
		return BlockIndex{}, fmt.Errorf("%w: blob datasize %d", ErrInvalidFrameLength, blobLen)
	}

	if it.cursor+blobLen > len(it.data) {
		return BlockIndex{}, io.ErrUnexpectedEOF
	}

	idx := BlockIndex{
		BlobStart:     int64(it.cursor),
		BlobLen:       blobLen,
		BlobHeaderLen: blobHeaderLen,
	}

	blobData := it.data[it.cursor : it.cursor+blobLen]
	it.cursor += blobLen

	switch header.Type {
	case blobTypeOSMHeader:
		idx.Type = BlockTypeHeader

		return idx, nil

	case blobTypeOSMData:
		blockType, err := classifyBlob(&it.scratch, blobData)
		if err != nil {
			return BlockIndex{}, err
		}

		idx.Type = blockType

		return idx, nil

	default:
		return BlockIndex{}, fmt.Errorf("%w: %q", ErrUnknownBlobType, header.Type)
	}
}
