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
	"fmt"
	"io"

	"m4o.io/osmpbf/model"
	"m4o.io/osmpbf/protobuf"
)

const (
	// DateGranularityMs is the granularity of timestamps, in milliseconds.
	DateGranularityMs = 1000
)

// SaveHeader writes the OSMHeader frame that must lead a PBF file.
func SaveHeader(wrtr io.Writer, hdr model.Header, compression BlobCompression) error {
	hb := &protobuf.HeaderBlock{
		RequiredFeatures:                 hdr.RequiredFeatures,
		OptionalFeatures:                 hdr.OptionalFeatures,
		Writingprogram:                   hdr.WritingProgram,
		Source:                           hdr.Source,
		OsmosisReplicationSequenceNumber: hdr.OsmosisReplicationSequenceNumber,
		OsmosisReplicationBaseUrl:        hdr.OsmosisReplicationBaseURL,
	}

	if bbox := hdr.BoundingBox; bbox != nil {
		hb.Bbox = &protobuf.HeaderBBox{
			Top:    bbox.Top.Coordinate(),
			Left:   bbox.Left.Coordinate(),
			Bottom: bbox.Bottom.Coordinate(),
			Right:  bbox.Right.Coordinate(),
		}
	}

	if !hdr.OsmosisReplicationTimestamp.IsZero() {
		hb.OsmosisReplicationTimestamp = hdr.OsmosisReplicationTimestamp.Unix()
	}

	if err := WriteBlob(wrtr, TypeOSMHeader, hb, compression); err != nil {
		return fmt.Errorf("could not write header: %w", err)
	}

	return nil
}
