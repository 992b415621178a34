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
	"fmt"
	"io"
	"time"

	"github.com/destel/rill"

	"m4o.io/osmpbf/internal/core"
	"m4o.io/osmpbf/model"
	"m4o.io/osmpbf/protobuf"
)

// Block is one OSMData primitive block together with its classified type.
type Block struct {
	Type  BlockType
	Block *protobuf.PrimitiveBlock
}

// Decoder reads and decodes OpenStreetMap PBF data from an input stream.
// Blocks are decoded on a background pipeline and handed to the caller in
// file order.
type Decoder struct {
	// Header is the file header, decoded during construction.
	Header model.Header

	blocks <-chan rill.Try[Block]
	cancel context.CancelFunc
}

// NewDecoder returns a new decoder, configured with opts, that reads from
// rdr.  The leading OSMHeader frame is consumed immediately; everything
// after it is decoded in the background.
func NewDecoder(ctx context.Context, rdr io.Reader, opts ...DecoderOption) (*Decoder, error) {
	cfg := defaultDecoderConfig

	for _, opt := range opts {
		opt(&cfg)
	}

	hdr, err := readOSMHeader(rdr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)

	blobs := rill.FromSeq2(generate(ctx, rdr))
	batches := rill.Batch(blobs, cfg.protoBatchSize, -1)
	blocks := rill.OrderedFlatMap(batches, int(cfg.nCPU), decodeBatch)

	return &Decoder{
		Header: hdr,
		blocks: blocks,
		cancel: cancel,
	}, nil
}

// Decode returns the next block in file order.  The end of the input stream
// is reported by an io.EOF error.
func (d *Decoder) Decode() (Block, error) {
	t, ok := <-d.blocks
	if !ok {
		return Block{}, io.EOF
	}

	if t.Error != nil {
		return Block{}, t.Error
	}

	return t.Value, nil
}

// Close cancels the background pipeline and drains it.  Calling Close more
// than once is harmless.
func (d *Decoder) Close() {
	d.cancel()

	for range d.blocks {
	}
}

// readOSMHeader consumes the leading OSMHeader frame of a PBF stream.
func readOSMHeader(rdr io.Reader) (model.Header, error) {
	buffer := core.NewPooledBuffer()
	defer buffer.Close()

	typ, blob, err := readFrame(buffer, rdr)
	if err != nil {
		return model.Header{}, fmt.Errorf("osmpbf: read file header: %w", err)
	}

	if typ != blobTypeOSMHeader {
		return model.Header{}, fmt.Errorf("%w: expected %s, got %q", ErrUnknownBlobType, blobTypeOSMHeader, typ)
	}

	buffer.Reset()

	payload, err := unpack(buffer.Buffer, blob)
	if err != nil {
		return model.Header{}, err
	}

	hb := &protobuf.HeaderBlock{}
	if err := hb.Unmarshal(payload); err != nil {
		return model.Header{}, fmt.Errorf("osmpbf: decode header block: %w", err)
	}

	return parseOSMHeader(hb), nil
}

// parseOSMHeader converts the wire-level header block into the model form.
func parseOSMHeader(hb *protobuf.HeaderBlock) model.Header {
	hdr := model.Header{
		RequiredFeatures:                 hb.RequiredFeatures,
		OptionalFeatures:                 hb.OptionalFeatures,
		WritingProgram:                   hb.Writingprogram,
		Source:                           hb.Source,
		OsmosisReplicationSequenceNumber: hb.OsmosisReplicationSequenceNumber,
		OsmosisReplicationBaseURL:        hb.OsmosisReplicationBaseUrl,
	}

	if hb.Bbox != nil {
		hdr.BoundingBox = &model.BoundingBox{
			Top:    model.ToDegrees(0, 1, hb.Bbox.Top),
			Left:   model.ToDegrees(0, 1, hb.Bbox.Left),
			Bottom: model.ToDegrees(0, 1, hb.Bbox.Bottom),
			Right:  model.ToDegrees(0, 1, hb.Bbox.Right),
		}
	}

	if hb.OsmosisReplicationTimestamp != 0 {
		hdr.OsmosisReplicationTimestamp = time.Unix(hb.OsmosisReplicationTimestamp, 0)
	}

	return hdr
}
