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
	"encoding/binary"
	"fmt"
	"io"

	"m4o.io/osmpbf/protobuf"
)

// Blob type strings carried in BlobHeader.type.
const (
	TypeOSMHeader = "OSMHeader"
	TypeOSMData   = "OSMData"
)

// WriteBlob marshals msg into a PBF blob of the given type and writes the
// complete frame to wrtr: the 4-byte big-endian header length, the blob
// header, then the blob data.
func WriteBlob(wrtr io.Writer, typ string, msg protobuf.Message, c BlobCompression) error {
	bb, err := Pack(msg, c)
	if err != nil {
		return fmt.Errorf("could not marshal blob data: %w", err)
	}

	return WritePacked(wrtr, typ, bb)
}

// WritePacked frames an already serialised Blob and writes it to wrtr.
func WritePacked(wrtr io.Writer, typ string, bb []byte) error {
	hdr := &protobuf.BlobHeader{
		Type:     typ,
		Datasize: int32(len(bb)),
	}

	hb := protobuf.Marshal(hdr)

	if err := binary.Write(wrtr, binary.BigEndian, uint32(len(hb))); err != nil {
		return fmt.Errorf("could not write header size: %w", err)
	}

	if _, err := wrtr.Write(hb); err != nil {
		return fmt.Errorf("could not write blob header: %w", err)
	}

	if _, err := wrtr.Write(bb); err != nil {
		return fmt.Errorf("could not write blob data: %w", err)
	}

	return nil
}
