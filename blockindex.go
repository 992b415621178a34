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
	"cmp"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"m4o.io/osmpbf/protobuf"
)

// BlockType tags the content of a PBF block.  The declaration order is the
// sort order of a block index: header first, then nodes, dense nodes, ways,
// and relations.
type BlockType uint8

const (
	// BlockTypeHeader is an OSMHeader block.
	BlockTypeHeader BlockType = iota

	// BlockTypeNodes is an OSMData block of plain nodes.
	BlockTypeNodes

	// BlockTypeDenseNodes is an OSMData block of dense nodes.
	BlockTypeDenseNodes

	// BlockTypeWays is an OSMData block of ways.
	BlockTypeWays

	// BlockTypeRelations is an OSMData block of relations.
	BlockTypeRelations
)

func (t BlockType) String() string {
	switch t {
	case BlockTypeHeader:
		return "Header"
	case BlockTypeNodes:
		return "Nodes"
	case BlockTypeDenseNodes:
		return "DenseNodes"
	case BlockTypeWays:
		return "Ways"
	case BlockTypeRelations:
		return "Relations"
	default:
		return fmt.Sprintf("BlockType(%d)", uint8(t))
	}
}

// BlockIndex locates one blob within a PBF file.  BlobStart is the byte
// offset of the Blob message, BlobLen its declared datasize, and
// BlobHeaderLen the length of the BlobHeader message that precedes it.  The
// whole frame occupies 4+BlobHeaderLen+BlobLen bytes.
type BlockIndex struct {
	Type          BlockType
	BlobStart     int64
	BlobLen       int
	BlobHeaderLen int
}

// Compare orders indices lexicographically by block type, blob start, blob
// length, and blob header length.
func (x BlockIndex) Compare(o BlockIndex) int {
	if c := cmp.Compare(x.Type, o.Type); c != 0 {
		return c
	}

	if c := cmp.Compare(x.BlobStart, o.BlobStart); c != 0 {
		return c
	}

	if c := cmp.Compare(x.BlobLen, o.BlobLen); c != 0 {
		return c
	}

	return cmp.Compare(x.BlobHeaderLen, o.BlobHeaderLen)
}

// ClassifyBlock determines the BlockType of a decompressed OSMData payload
// without decoding it.  It walks the top-level fields of the PrimitiveBlock
// on the wire, skipping everything but the first primitivegroup, and maps the
// tag of the group's first sub-field to a block type.  The OSMPBF spec
// guarantees that all groups of a block carry the same element kind, so the
// first group is sufficient.
func ClassifyBlock(data []byte) (BlockType, error) {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return 0, ErrTruncated
		}

		data = data[n:]

		if num != protobuf.PrimitiveGroupTag {
			if n = protowire.ConsumeFieldValue(num, typ, data); n < 0 {
				return 0, ErrTruncated
			}

			data = data[n:]

			continue
		}

		// The length of the group itself is irrelevant; only the first
		// sub-field tag is inspected.
		if _, n = protowire.ConsumeVarint(data); n < 0 {
			return 0, ErrTruncated
		}

		data = data[n:]

		inner, _, n := protowire.ConsumeTag(data)
		if n < 0 {
			return 0, ErrTruncated
		}

		switch inner {
		case protobuf.NodesTag:
			return BlockTypeNodes, nil
		case protobuf.DenseNodesTag:
			return BlockTypeDenseNodes, nil
		case protobuf.WaysTag:
			return BlockTypeWays, nil
		case protobuf.RelationsTag:
			return BlockTypeRelations, nil
		case protobuf.ChangesetsTag:
			return 0, ErrUnsupportedChangeset
		default:
			return 0, ErrMalformedPrimitiveBlock
		}
	}

	return 0, ErrTruncated
}
