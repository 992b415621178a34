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
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"m4o.io/osmpbf/protobuf"
)

const (
	// indexReadBufferSize is the buffer used for sequential index scans and
	// random-access block reads.
	indexReadBufferSize = 10 * 1024 * 1024

	// maxBlobHeaderLen caps the declared BlobHeader length, per OSMPBF.
	maxBlobHeaderLen = 64 * 1024

	// maxBlobLen caps the declared Blob datasize, per OSMPBF.
	maxBlobLen = 32 * 1024 * 1024
)

const (
	blobTypeOSMHeader = "OSMHeader"
	blobTypeOSMData   = "OSMData"
)

// unpack returns the decompressed payload of blob.  Raw payloads are returned
// verbatim; zlib payloads are inflated into scratch, which is valid only
// until the next use of the same scratch buffer.  Every other compression
// scheme yields ErrUnsupportedCompression.  When raw_size is declared it is
// enforced against the payload length.
func unpack(scratch *bytes.Buffer, blob *protobuf.Blob) ([]byte, error) {
	switch blob.Data.(type) {
	case *protobuf.Blob_Raw:
		raw := blob.GetRaw()
		if blob.HasRawSize() && len(raw) != int(blob.GetRawSize()) {
			return nil, fmt.Errorf("osmpbf: raw blob data size %d but expected %d", len(raw), blob.GetRawSize())
		}

		return raw, nil

	case *protobuf.Blob_ZlibData:
		r, err := zlib.NewReader(bytes.NewReader(blob.GetZlibData()))
		if err != nil {
			return nil, fmt.Errorf("osmpbf: open zlib stream: %w", err)
		}

		scratch.Reset()

		if rawBufferSize := int(blob.GetRawSize() + bytes.MinRead); rawBufferSize > scratch.Cap() {
			scratch.Grow(rawBufferSize)
		}

		if _, err := scratch.ReadFrom(r); err != nil {
			return nil, fmt.Errorf("osmpbf: inflate blob: %w", err)
		}

		if blob.HasRawSize() && scratch.Len() != int(blob.GetRawSize()) {
			return nil, fmt.Errorf("osmpbf: raw blob data size %d but expected %d", scratch.Len(), blob.GetRawSize())
		}

		return scratch.Bytes(), nil

	default:
		return nil, ErrUnsupportedCompression
	}
}

// blockIndexIterator walks the blob frames of a sequential reader, yielding
// one BlockIndex per frame.  OSMHeader payloads are skipped without decoding;
// OSMData payloads are decompressed and classified.
type blockIndexIterator struct {
	rdr     *bufio.Reader
	cursor  int64
	fileBuf []byte
	scratch bytes.Buffer
}

func newBlockIndexIterator(rdr io.Reader) *blockIndexIterator {
	return &blockIndexIterator{rdr: bufio.NewReaderSize(rdr, indexReadBufferSize)}
}

// next advances past one blob frame.  A clean io.EOF at a frame boundary
// signals the end of the file; io.ErrUnexpectedEOF signals truncation inside
// a frame.
func (it *blockIndexIterator) next() (BlockIndex, error) {
	var lenBuf [4]byte

	if _, err := io.ReadFull(it.rdr, lenBuf[:]); err != nil {
		return BlockIndex{}, err
	}

	blobHeaderLen := int(int32(binary.BigEndian.Uint32(lenBuf[:])))
	if blobHeaderLen <= 0 || blobHeaderLen > maxBlobHeaderLen {
		return BlockIndex{}, fmt.Errorf("%w: blob header length %d", ErrInvalidFrameLength, blobHeaderLen)
	}

	it.cursor += 4 + int64(blobHeaderLen)

	it.fileBuf = slices.Grow(it.fileBuf[:0], blobHeaderLen)[:blobHeaderLen]
	if _, err := io.ReadFull(it.rdr, it.fileBuf); err != nil {
		return BlockIndex{}, noEOF(err)
	}

	header := &protobuf.BlobHeader{}
	if err := header.Unmarshal(it.fileBuf); err != nil {
		return BlockIndex{}, fmt.Errorf("osmpbf: decode blob header: %w", err)
	}

	blobStart := it.cursor

	blobLen := int(header.Datasize)
	if blobLen <= 0 || blobLen > maxBlobLen {
		return BlockIndex{}, fmt.Errorf("%w: blob datasize %d", ErrInvalidFrameLength, blobLen)
	}

	it.cursor += int64(blobLen)

	idx := BlockIndex{
		BlobStart:     blobStart,
		BlobLen:       blobLen,
		BlobHeaderLen: blobHeaderLen,
	}

	switch header.Type {
	case blobTypeOSMHeader:
		if _, err := it.rdr.Discard(blobLen); err != nil {
			return BlockIndex{}, noEOF(err)
		}

		idx.Type = BlockTypeHeader

		return idx, nil

	case blobTypeOSMData:
		it.fileBuf = slices.Grow(it.fileBuf[:0], blobLen)[:blobLen]
		if _, err := io.ReadFull(it.rdr, it.fileBuf); err != nil {
			return BlockIndex{}, noEOF(err)
		}

		blockType, err := classifyBlob(&it.scratch, it.fileBuf)
		if err != nil {
			return BlockIndex{}, err
		}

		idx.Type = blockType

		return idx, nil

	default:
		return BlockIndex{}, fmt.Errorf("%w: %q", ErrUnknownBlobType, header.Type)
	}
}

// classifyBlob decodes and decompresses a Blob message and classifies its
// PrimitiveBlock payload.
func classifyBlob(scratch *bytes.Buffer, data []byte) (BlockType, error) {
	blob := &protobuf.Blob{}
	if err := blob.Unmarshal(data); err != nil {
		return 0, fmt.Errorf("osmpbf: decode blob: %w", err)
	}

	payload, err := unpack(scratch, blob)
	if err != nil {
		return 0, err
	}

	return ClassifyBlock(payload)
}

// noEOF maps a bare io.EOF inside a frame to io.ErrUnexpectedEOF so that only
// frame boundaries terminate a scan cleanly.
func noEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}

	return err
}

// indexIterator is satisfied by the stream and mmap scanners.
type indexIterator interface {
	next() (BlockIndex, error)
}

// collectBlockIndex drains an iterator into a sorted index.  Per-block decode
// failures are logged at warning level and the block is dropped so that a
// locally corrupted file still yields a usable index; truncation and framing
// damage end the scan since the frame boundaries are gone.
func collectBlockIndex(it indexIterator) []BlockIndex {
	var index []BlockIndex

	for {
		idx, err := it.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			slog.Warn("skipping block", "error", err)

			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, ErrInvalidFrameLength) {
				break
			}

			continue
		}

		index = append(index, idx)
	}

	slices.SortFunc(index, BlockIndex.Compare)

	return index
}

// BuildBlockIndex reads the PBF file at path and builds an index of block
// types.  The index is sorted lexicographically by block type and position
// in the file.
func BuildBlockIndex(path string) ([]BlockIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("osmpbf: open %s: %w", path, err)
	}
	defer f.Close()

	return collectBlockIndex(newBlockIndexIterator(f)), nil
}
