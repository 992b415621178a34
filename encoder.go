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
	"io"

	"m4o.io/osmpbf/internal/encoder"
	"m4o.io/osmpbf/model"
	"m4o.io/osmpbf/protobuf"
)

// BlobCompression selects the compression scheme applied to encoded blobs.
type BlobCompression = encoder.BlobCompression

// Supported blob compression schemes.  Readers are only required to accept
// RAW and ZLIB; the rest are OSMPBF extensions.
const (
	RAW  = encoder.RAW
	ZLIB = encoder.ZLIB
	LZMA = encoder.LZMA
	LZ4  = encoder.LZ4
	ZSTD = encoder.ZSTD
)

// Encoder writes OpenStreetMap PBF data to an output stream, one framed
// blob per block.  The OSMHeader frame is written before the first block.
//
// An Encoder is not safe for concurrent use.
type Encoder struct {
	// Header is the file header written ahead of the first block.  It may
	// be amended up until the first call to WriteBlock.
	Header model.Header

	cfg  encoderOptions
	wrtr io.Writer

	headerWritten bool
}

// NewEncoder returns a new encoder, configured with opts, that writes to
// wrtr.
func NewEncoder(wrtr io.Writer, opts ...EncoderOption) *Encoder {
	cfg := defaultEncoderConfig

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Encoder{
		Header: model.Header{
			RequiredFeatures:                 cfg.requiredFeatures,
			OptionalFeatures:                 cfg.optionalFeatures,
			WritingProgram:                   cfg.writingProgram,
			Source:                           cfg.source,
			OsmosisReplicationTimestamp:      cfg.osmosisReplicationTimestamp,
			OsmosisReplicationSequenceNumber: cfg.osmosisReplicationSequenceNumber,
			OsmosisReplicationBaseURL:        cfg.osmosisReplicationBaseURL,
			BoundingBox:                      cfg.boundingBox,
		},

		cfg:  cfg,
		wrtr: wrtr,
	}
}

// WriteHeader writes the OSMHeader frame.  It is called implicitly by the
// first WriteBlock; calling it explicitly pins the header down earlier.
func (e *Encoder) WriteHeader() error {
	if e.headerWritten {
		return nil
	}

	if err := encoder.SaveHeader(e.wrtr, e.Header, e.cfg.compression); err != nil {
		return err
	}

	e.headerWritten = true

	return nil
}

// WriteBlock writes one primitive block as an OSMData frame.
func (e *Encoder) WriteBlock(block *protobuf.PrimitiveBlock) error {
	if err := e.WriteHeader(); err != nil {
		return err
	}

	return encoder.WriteBlob(e.wrtr, encoder.TypeOSMData, block, e.cfg.compression)
}
