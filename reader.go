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
	"bufio"
	"bytes"
	"fmt"
	"io"
	"slices"

	"m4o.io/osmpbf/protobuf"
)

// BlockSource yields the decompressed payload of the block at idx.  The
// returned slice may be backed by a scratch buffer owned by the source and
// must not be held across calls.
type BlockSource interface {
	BlockData(idx BlockIndex) ([]byte, error)
}

// ReadBlock decodes the block at idx from src as message type M, typically
// protobuf.HeaderBlock or protobuf.PrimitiveBlock.
func ReadBlock[M any, PM interface {
	*M
	protobuf.Message
}](src BlockSource, idx BlockIndex) (*M, error) {
	data, err := src.BlockData(idx)
	if err != nil {
		return nil, err
	}

	msg := new(M)
	if err := PM(msg).Unmarshal(data); err != nil {
		return nil, fmt.Errorf("osmpbf: decode block at %d: %w", idx.BlobStart, err)
	}

	return msg, nil
}

// BlockReader reads blocks from a seekable source in arbitrary index order.
// It keeps a large read buffer and seeks relative to the end of the last
// read, so that in-order access stays sequential and never discards the
// buffer; out-of-order access re-seeks the underlying source.
//
// A BlockReader is not safe for concurrent use; give every worker its own.
type BlockReader struct {
	src io.ReadSeeker
	rdr *bufio.Reader

	// pos is the file offset one past the last read.
	pos int64

	blobBuf []byte
	scratch bytes.Buffer
}

// NewBlockReader returns a BlockReader positioned at the start of src.
func NewBlockReader(src io.ReadSeeker) *BlockReader {
	return &BlockReader{
		src: src,
		rdr: bufio.NewReaderSize(src, indexReadBufferSize),
	}
}

// BlockData implements BlockSource.  The returned slice is valid until the
// next call.
func (r *BlockReader) BlockData(idx BlockIndex) ([]byte, error) {
	if idx.BlobStart < 0 || idx.BlobLen <= 0 || idx.BlobLen > maxBlobLen {
		return nil, fmt.Errorf("%w: start %d len %d", ErrInvalidOffset, idx.BlobStart, idx.BlobLen)
	}

	if err := r.seekTo(idx.BlobStart); err != nil {
		return nil, err
	}

	r.blobBuf = slices.Grow(r.blobBuf[:0], idx.BlobLen)[:idx.BlobLen]
	if _, err := io.ReadFull(r.rdr, r.blobBuf); err != nil {
		return nil, fmt.Errorf("%w: read %d bytes at %d: %v", ErrInvalidOffset, idx.BlobLen, idx.BlobStart, err)
	}

	r.pos = idx.BlobStart + int64(idx.BlobLen)

	blob := &protobuf.Blob{}
	if err := blob.Unmarshal(r.blobBuf); err != nil {
		return nil, fmt.Errorf("osmpbf: decode blob at %d: %w", idx.BlobStart, err)
	}

	return unpack(&r.scratch, blob)
}

// seekTo positions the buffered reader at the absolute offset.  Forward
// moves within the buffer are consumed in place; everything else seeks the
// underlying source and resets the buffer.
func (r *BlockReader) seekTo(offset int64) error {
	delta := offset - r.pos
	if delta == 0 {
		return nil
	}

	if delta > 0 && delta <= int64(r.rdr.Buffered()) {
		if _, err := r.rdr.Discard(int(delta)); err != nil {
			return fmt.Errorf("osmpbf: discard to %d: %w", offset, err)
		}
	} else {
		if _, err := r.src.Seek(offset, io.SeekStart); err != nil {
			return fmt.Errorf("%w: seek to %d: %v", ErrInvalidOffset, offset, err)
		}

		r.rdr.Reset(r.src)
	}

	r.pos = offset

	return nil
}
