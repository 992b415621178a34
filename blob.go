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
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/destel/rill"

	"m4o.io/osmpbf/internal/core"
	"m4o.io/osmpbf/protobuf"
)

// framedBlob is one OSMData blob as read off the wire, before unpacking.
type framedBlob struct {
	typ  string
	blob *protobuf.Blob
}

// generate returns an iterator that yields blobs read sequentially off the
// reader.  It stops at clean EOF, on the first read error, or when ctx is
// cancelled.
func generate(ctx context.Context, rdr io.Reader) func(yield func(fb framedBlob, err error) bool) {
	return func(yield func(fb framedBlob, err error) bool) {
		buffer := core.NewPooledBuffer()
		defer buffer.Close()

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			typ, blob, err := readFrame(buffer, rdr)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					slog.Error("unable to read blob", "error", err)
					yield(framedBlob{}, err)
				}

				return
			}

			if !yield(framedBlob{typ: typ, blob: blob}, nil) {
				return
			}

			buffer.Reset()
		}
	}
}

// decodeBatch unpacks a batch of blobs and parses them into classified
// primitive blocks which are sent down the out channel.
func decodeBatch(array []framedBlob) <-chan rill.Try[Block] {
	ch := make(chan rill.Try[Block])

	buf := core.NewPooledBuffer()

	go func() {
		defer close(ch)
		defer buf.Close()

		for _, fb := range array {
			// Stray header frames past the leading one carry no elements.
			if fb.typ == blobTypeOSMHeader {
				continue
			}

			buf.Reset()

			block, err := decodeBlob(fb, buf)
			if err != nil {
				slog.Error("unable to decode blob", "error", err)
				ch <- rill.Try[Block]{Error: err}

				return
			}

			ch <- rill.Try[Block]{Value: block}
		}
	}()

	return ch
}

func decodeBlob(fb framedBlob, buf *core.PooledBuffer) (Block, error) {
	if fb.typ != blobTypeOSMData {
		return Block{}, fmt.Errorf("%w: %q", ErrUnknownBlobType, fb.typ)
	}

	payload, err := unpack(buf.Buffer, fb.blob)
	if err != nil {
		return Block{}, err
	}

	blockType, err := ClassifyBlock(payload)
	if err != nil {
		return Block{}, err
	}

	pb := &protobuf.PrimitiveBlock{}
	if err := pb.Unmarshal(payload); err != nil {
		return Block{}, fmt.Errorf("osmpbf: decode primitive block: %w", err)
	}

	return Block{Type: blockType, Block: pb}, nil
}

// readFrame reads one blob frame off the rdr: the blob type from the header
// and the undecoded blob itself.
func readFrame(buffer *core.PooledBuffer, rdr io.Reader) (string, *protobuf.Blob, error) {
	header, err := readBlobHeader(buffer, rdr)
	if err != nil {
		return "", nil, err
	}

	blob, err := readBlob(buffer, rdr, header)
	if err != nil {
		return "", nil, noEOF(err)
	}

	return header.Type, blob, nil
}

// readBlobHeader unmarshals a blob header from the reader.  The header
// carries the type and size of the blob that follows.
func readBlobHeader(buffer *core.PooledBuffer, rdr io.Reader) (*protobuf.BlobHeader, error) {
	var size uint32

	if err := binary.Read(rdr, binary.BigEndian, &size); err != nil {
		return nil, err
	}

	if size == 0 || size > maxBlobHeaderLen {
		return nil, fmt.Errorf("%w: blob header length %d", ErrInvalidFrameLength, size)
	}

	buffer.Reset()

	if _, err := io.CopyN(buffer, rdr, int64(size)); err != nil {
		return nil, fmt.Errorf("error reading blob header: %w", noEOF(err))
	}

	header := &protobuf.BlobHeader{}

	if err := header.Unmarshal(buffer.Bytes()); err != nil {
		return nil, fmt.Errorf("error unmarshalling blob header: %w", err)
	}

	return header, nil
}

// readBlob unmarshals a blob from the reader.  The blob still needs to be
// unpacked and parsed into a block.
func readBlob(buffer *core.PooledBuffer, rdr io.Reader, header *protobuf.BlobHeader) (*protobuf.Blob, error) {
	size := header.GetDatasize()
	if size <= 0 || size > maxBlobLen {
		return nil, fmt.Errorf("%w: blob datasize %d", ErrInvalidFrameLength, size)
	}

	buffer.Reset()

	if _, err := io.CopyN(buffer, rdr, int64(size)); err != nil {
		return nil, fmt.Errorf("error reading blob: %w", noEOF(err))
	}

	blob := &protobuf.Blob{}

	if err := blob.Unmarshal(buffer.Bytes()); err != nil {
		return nil, fmt.Errorf("error unmarshalling blob: %w", err)
	}

	return blob, nil
}
