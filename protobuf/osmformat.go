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

package protobuf

import "google.golang.org/protobuf/encoding/protowire"

// Field tags of PrimitiveBlock and PrimitiveGroup that the classifier probes
// without a full decode.
const (
	PrimitiveGroupTag protowire.Number = 2

	NodesTag      protowire.Number = 1
	DenseNodesTag protowire.Number = 2
	WaysTag       protowire.Number = 3
	RelationsTag  protowire.Number = 4
	ChangesetsTag protowire.Number = 5
)

// Defaults for optional PrimitiveBlock fields, per osmformat.proto.
const (
	DefaultGranularity     int32 = 100
	DefaultDateGranularity int32 = 1000
)

// HeaderBBox is the bounding box of a HeaderBlock, in nanodegrees.
type HeaderBBox struct {
	Left   int64 // sint64 = 1
	Right  int64 // sint64 = 2
	Top    int64 // sint64 = 3
	Bottom int64 // sint64 = 4
}

func (m *HeaderBBox) Unmarshal(data []byte) error {
	*m = HeaderBBox{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errMalformed
		}

		data = data[n:]

		switch num {
		case 1:
			m.Left, n = consumeZigZag(data, typ)
		case 2:
			m.Right, n = consumeZigZag(data, typ)
		case 3:
			m.Top, n = consumeZigZag(data, typ)
		case 4:
			m.Bottom, n = consumeZigZag(data, typ)
		default:
			n = skipField(data, num, typ)
		}

		if n < 0 {
			return errMalformed
		}

		data = data[n:]
	}

	return nil
}

func (m *HeaderBBox) Append(buf []byte) []byte {
	buf = appendZigZagField(buf, 1, m.Left)
	buf = appendZigZagField(buf, 2, m.Right)
	buf = appendZigZagField(buf, 3, m.Top)

	return appendZigZagField(buf, 4, m.Bottom)
}

// HeaderBlock is the payload of an OSMHeader blob.
type HeaderBlock struct {
	Bbox                             *HeaderBBox // 1
	RequiredFeatures                 []string    // 4
	OptionalFeatures                 []string    // 5
	Writingprogram                   string      // 16
	Source                           string      // 17
	OsmosisReplicationTimestamp      int64       // 32
	OsmosisReplicationSequenceNumber int64       // 33
	OsmosisReplicationBaseUrl        string      // 34
}

func (m *HeaderBlock) Unmarshal(data []byte) error {
	*m = HeaderBlock{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errMalformed
		}

		data = data[n:]

		switch num {
		case 1:
			var v []byte

			v, n = consumeBytes(data, typ)
			if n >= 0 {
				m.Bbox = &HeaderBBox{}
				if err := m.Bbox.Unmarshal(v); err != nil {
					return err
				}
			}
		case 4:
			var v string
			v, n = consumeString(data, typ)
			m.RequiredFeatures = append(m.RequiredFeatures, v)
		case 5:
			var v string
			v, n = consumeString(data, typ)
			m.OptionalFeatures = append(m.OptionalFeatures, v)
		case 16:
			m.Writingprogram, n = consumeString(data, typ)
		case 17:
			m.Source, n = consumeString(data, typ)
		case 32:
			m.OsmosisReplicationTimestamp, n = consumeVarint[int64](data, typ)
		case 33:
			m.OsmosisReplicationSequenceNumber, n = consumeVarint[int64](data, typ)
		case 34:
			m.OsmosisReplicationBaseUrl, n = consumeString(data, typ)
		default:
			n = skipField(data, num, typ)
		}

		if n < 0 {
			return errMalformed
		}

		data = data[n:]
	}

	return nil
}

func (m *HeaderBlock) Append(buf []byte) []byte {
	if m.Bbox != nil {
		buf = appendMessageField(buf, 1, m.Bbox)
	}

	for _, f := range m.RequiredFeatures {
		buf = appendStringField(buf, 4, f)
	}

	for _, f := range m.OptionalFeatures {
		buf = appendStringField(buf, 5, f)
	}

	if m.Writingprogram != "" {
		buf = appendStringField(buf, 16, m.Writingprogram)
	}

	if m.Source != "" {
		buf = appendStringField(buf, 17, m.Source)
	}

	if m.OsmosisReplicationTimestamp != 0 {
		buf = appendVarintField(buf, 32, m.OsmosisReplicationTimestamp)
	}

	if m.OsmosisReplicationSequenceNumber != 0 {
		buf = appendVarintField(buf, 33, m.OsmosisReplicationSequenceNumber)
	}

	if m.OsmosisReplicationBaseUrl != "" {
		buf = appendStringField(buf, 34, m.OsmosisReplicationBaseUrl)
	}

	return buf
}

// StringTable is the per-block table of strings referenced by index
// elsewhere in the same PrimitiveBlock.  Index 0 is reserved as a delimiter
// and is never a valid reference.
type StringTable struct {
	S [][]byte // 1
}

func (m *StringTable) Unmarshal(data []byte) error {
	*m = StringTable{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errMalformed
		}

		data = data[n:]

		switch num {
		case 1:
			var v []byte
			v, n = consumeBytes(data, typ)
			m.S = append(m.S, v)
		default:
			n = skipField(data, num, typ)
		}

		if n < 0 {
			return errMalformed
		}

		data = data[n:]
	}

	return nil
}

func (m *StringTable) Append(buf []byte) []byte {
	for _, s := range m.S {
		buf = appendBytesField(buf, 1, s)
	}

	return buf
}

// PrimitiveBlock is the payload of an OSMData blob.
type PrimitiveBlock struct {
	Stringtable     *StringTable      // 1
	Primitivegroup  []*PrimitiveGroup // 2
	Granularity     int32             // 17, default 100
	DateGranularity int32             // 18, default 1000
	LatOffset       int64             // 19
	LonOffset       int64             // 20
}

func (m *PrimitiveBlock) Unmarshal(data []byte) error {
	*m = PrimitiveBlock{
		Granularity:     DefaultGranularity,
		DateGranularity: DefaultDateGranularity,
	}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errMalformed
		}

		data = data[n:]

		switch num {
		case 1:
			var v []byte

			v, n = consumeBytes(data, typ)
			if n >= 0 {
				m.Stringtable = &StringTable{}
				if err := m.Stringtable.Unmarshal(v); err != nil {
					return err
				}
			}
		case 2:
			var v []byte

			v, n = consumeBytes(data, typ)
			if n >= 0 {
				pg := &PrimitiveGroup{}
				if err := pg.Unmarshal(v); err != nil {
					return err
				}

				m.Primitivegroup = append(m.Primitivegroup, pg)
			}
		case 17:
			m.Granularity, n = consumeVarint[int32](data, typ)
		case 18:
			m.DateGranularity, n = consumeVarint[int32](data, typ)
		case 19:
			m.LatOffset, n = consumeVarint[int64](data, typ)
		case 20:
			m.LonOffset, n = consumeVarint[int64](data, typ)
		default:
			n = skipField(data, num, typ)
		}

		if n < 0 {
			return errMalformed
		}

		data = data[n:]
	}

	return nil
}

func (m *PrimitiveBlock) Append(buf []byte) []byte {
	if m.Stringtable != nil {
		buf = appendMessageField(buf, 1, m.Stringtable)
	}

	for _, pg := range m.Primitivegroup {
		buf = appendMessageField(buf, 2, pg)
	}

	if m.Granularity != DefaultGranularity {
		buf = appendVarintField(buf, 17, m.Granularity)
	}

	if m.DateGranularity != DefaultDateGranularity {
		buf = appendVarintField(buf, 18, m.DateGranularity)
	}

	if m.LatOffset != 0 {
		buf = appendVarintField(buf, 19, m.LatOffset)
	}

	if m.LonOffset != 0 {
		buf = appendVarintField(buf, 20, m.LonOffset)
	}

	return buf
}

// PrimitiveGroup holds a single kind of OSM element.  A well-formed group
// populates exactly one of its fields.
type PrimitiveGroup struct {
	Nodes      []*Node     // 1
	Dense      *DenseNodes // 2
	Ways       []*Way      // 3
	Relations  []*Relation // 4
	Changesets []*ChangeSet// 5
}

func (m *PrimitiveGroup) Unmarshal(data []byte) error {
	*m = PrimitiveGroup{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errMalformed
		}

		data = data[n:]

		switch num {
		case 1:
			var v []byte

			v, n = consumeBytes(data, typ)
			if n >= 0 {
				node := &Node{}
				if err := node.Unmarshal(v); err != nil {
					return err
				}

				m.Nodes = append(m.Nodes, node)
			}
		case 2:
			var v []byte

			v, n = consumeBytes(data, typ)
			if n >= 0 {
				m.Dense = &DenseNodes{}
				if err := m.Dense.Unmarshal(v); err != nil {
					return err
				}
			}
		case 3:
			var v []byte

			v, n = consumeBytes(data, typ)
			if n >= 0 {
				way := &Way{}
				if err := way.Unmarshal(v); err != nil {
					return err
				}

				m.Ways = append(m.Ways, way)
			}
		case 4:
			var v []byte

			v, n = consumeBytes(data, typ)
			if n >= 0 {
				rel := &Relation{}
				if err := rel.Unmarshal(v); err != nil {
					return err
				}

				m.Relations = append(m.Relations, rel)
			}
		case 5:
			var v []byte

			v, n = consumeBytes(data, typ)
			if n >= 0 {
				cs := &ChangeSet{}
				if err := cs.Unmarshal(v); err != nil {
					return err
				}

				m.Changesets = append(m.Changesets, cs)
			}
		default:
			n = skipField(data, num, typ)
		}

		if n < 0 {
			return errMalformed
		}

		data = data[n:]
	}

	return nil
}

func (m *PrimitiveGroup) Append(buf []byte) []byte {
	for _, node := range m.Nodes {
		buf = appendMessageField(buf, 1, node)
	}

	if m.Dense != nil {
		buf = appendMessageField(buf, 2, m.Dense)
	}

	for _, way := range m.Ways {
		buf = appendMessageField(buf, 3, way)
	}

	for _, rel := range m.Relations {
		buf = appendMessageField(buf, 4, rel)
	}

	for _, cs := range m.Changesets {
		buf = appendMessageField(buf, 5, cs)
	}

	return buf
}

// Info carries the non-geographic metadata of an element.
type Info struct {
	Version   int32  // 1
	Timestamp int64  // 2
	Changeset int64  // 3
	Uid       int32  // 4
	UserSid   uint32 // 5
	Visible   *bool  // 6
}

func (m *Info) Unmarshal(data []byte) error {
	*m = Info{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errMalformed
		}

		data = data[n:]

		switch num {
		case 1:
			m.Version, n = consumeVarint[int32](data, typ)
		case 2:
			m.Timestamp, n = consumeVarint[int64](data, typ)
		case 3:
			m.Changeset, n = consumeVarint[int64](data, typ)
		case 4:
			m.Uid, n = consumeVarint[int32](data, typ)
		case 5:
			m.UserSid, n = consumeVarint[uint32](data, typ)
		case 6:
			var v uint64
			v, n = consumeVarint[uint64](data, typ)
			visible := v != 0
			m.Visible = &visible
		default:
			n = skipField(data, num, typ)
		}

		if n < 0 {
			return errMalformed
		}

		data = data[n:]
	}

	return nil
}

func (m *Info) Append(buf []byte) []byte {
	if m.Version != 0 {
		buf = appendVarintField(buf, 1, m.Version)
	}

	if m.Timestamp != 0 {
		buf = appendVarintField(buf, 2, m.Timestamp)
	}

	if m.Changeset != 0 {
		buf = appendVarintField(buf, 3, m.Changeset)
	}

	if m.Uid != 0 {
		buf = appendVarintField(buf, 4, m.Uid)
	}

	if m.UserSid != 0 {
		buf = appendVarintField(buf, 5, m.UserSid)
	}

	if m.Visible != nil {
		var v uint64
		if *m.Visible {
			v = 1
		}

		buf = appendVarintField(buf, 6, v)
	}

	return buf
}

// Node is a plain (non-dense) node.
type Node struct {
	Id   int64    // sint64 = 1
	Keys []uint32 // packed = 2
	Vals []uint32 // packed = 3
	Info *Info    // 4
	Lat  int64    // sint64 = 8
	Lon  int64    // sint64 = 9
}

func (m *Node) Unmarshal(data []byte) error {
	*m = Node{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errMalformed
		}

		data = data[n:]

		switch num {
		case 1:
			m.Id, n = consumeZigZag(data, typ)
		case 2:
			m.Keys, n = consumePackedVarint(data, typ, m.Keys)
		case 3:
			m.Vals, n = consumePackedVarint(data, typ, m.Vals)
		case 4:
			var v []byte

			v, n = consumeBytes(data, typ)
			if n >= 0 {
				m.Info = &Info{}
				if err := m.Info.Unmarshal(v); err != nil {
					return err
				}
			}
		case 8:
			m.Lat, n = consumeZigZag(data, typ)
		case 9:
			m.Lon, n = consumeZigZag(data, typ)
		default:
			n = skipField(data, num, typ)
		}

		if n < 0 {
			return errMalformed
		}

		data = data[n:]
	}

	return nil
}

func (m *Node) Append(buf []byte) []byte {
	buf = appendZigZagField(buf, 1, m.Id)
	buf = appendPackedVarint(buf, 2, m.Keys)
	buf = appendPackedVarint(buf, 3, m.Vals)

	if m.Info != nil {
		buf = appendMessageField(buf, 4, m.Info)
	}

	buf = appendZigZagField(buf, 8, m.Lat)

	return appendZigZagField(buf, 9, m.Lon)
}

// DenseInfo carries delta-coded metadata parallel to DenseNodes.
type DenseInfo struct {
	Version   []int32 // packed = 1
	Timestamp []int64 // packed sint64 = 2
	Changeset []int64 // packed sint64 = 3
	Uid       []int32 // packed sint32 = 4
	UserSid   []int32 // packed sint32 = 5
	Visible   []bool  // packed = 6
}

func (m *DenseInfo) Unmarshal(data []byte) error {
	*m = DenseInfo{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errMalformed
		}

		data = data[n:]

		switch num {
		case 1:
			m.Version, n = consumePackedVarint(data, typ, m.Version)
		case 2:
			m.Timestamp, n = consumePackedZigZag(data, typ, m.Timestamp)
		case 3:
			m.Changeset, n = consumePackedZigZag(data, typ, m.Changeset)
		case 4:
			m.Uid, n = consumePackedZigZag(data, typ, m.Uid)
		case 5:
			m.UserSid, n = consumePackedZigZag(data, typ, m.UserSid)
		case 6:
			m.Visible, n = consumePackedBool(data, typ, m.Visible)
		default:
			n = skipField(data, num, typ)
		}

		if n < 0 {
			return errMalformed
		}

		data = data[n:]
	}

	return nil
}

func (m *DenseInfo) Append(buf []byte) []byte {
	buf = appendPackedVarint(buf, 1, m.Version)
	buf = appendPackedZigZag(buf, 2, m.Timestamp)
	buf = appendPackedZigZag(buf, 3, m.Changeset)
	buf = appendPackedZigZag(buf, 4, m.Uid)
	buf = appendPackedZigZag(buf, 5, m.UserSid)

	return appendPackedBool(buf, 6, m.Visible)
}

// DenseNodes encodes a run of nodes as parallel delta-coded arrays.
type DenseNodes struct {
	Id        []int64    // packed sint64 = 1, delta coded
	Denseinfo *DenseInfo // 5
	Lat       []int64    // packed sint64 = 8, delta coded
	Lon       []int64    // packed sint64 = 9, delta coded
	KeysVals  []int32    // packed = 10
}

func (m *DenseNodes) Unmarshal(data []byte) error {
	*m = DenseNodes{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errMalformed
		}

		data = data[n:]

		switch num {
		case 1:
			m.Id, n = consumePackedZigZag(data, typ, m.Id)
		case 5:
			var v []byte

			v, n = consumeBytes(data, typ)
			if n >= 0 {
				m.Denseinfo = &DenseInfo{}
				if err := m.Denseinfo.Unmarshal(v); err != nil {
					return err
				}
			}
		case 8:
			m.Lat, n = consumePackedZigZag(data, typ, m.Lat)
		case 9:
			m.Lon, n = consumePackedZigZag(data, typ, m.Lon)
		case 10:
			m.KeysVals, n = consumePackedVarint(data, typ, m.KeysVals)
		default:
			n = skipField(data, num, typ)
		}

		if n < 0 {
			return errMalformed
		}

		data = data[n:]
	}

	return nil
}

func (m *DenseNodes) Append(buf []byte) []byte {
	buf = appendPackedZigZag(buf, 1, m.Id)

	if m.Denseinfo != nil {
		buf = appendMessageField(buf, 5, m.Denseinfo)
	}

	buf = appendPackedZigZag(buf, 8, m.Lat)
	buf = appendPackedZigZag(buf, 9, m.Lon)

	return appendPackedVarint(buf, 10, m.KeysVals)
}

// Way is an ordered list of node references.
type Way struct {
	Id   int64    // 1
	Keys []uint32 // packed = 2
	Vals []uint32 // packed = 3
	Info *Info    // 4
	Refs []int64  // packed sint64 = 8, delta coded
}

func (m *Way) Unmarshal(data []byte) error {
	*m = Way{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errMalformed
		}

		data = data[n:]

		switch num {
		case 1:
			m.Id, n = consumeVarint[int64](data, typ)
		case 2:
			m.Keys, n = consumePackedVarint(data, typ, m.Keys)
		case 3:
			m.Vals, n = consumePackedVarint(data, typ, m.Vals)
		case 4:
			var v []byte

			v, n = consumeBytes(data, typ)
			if n >= 0 {
				m.Info = &Info{}
				if err := m.Info.Unmarshal(v); err != nil {
					return err
				}
			}
		case 8:
			m.Refs, n = consumePackedZigZag(data, typ, m.Refs)
		default:
			n = skipField(data, num, typ)
		}

		if n < 0 {
			return errMalformed
		}

		data = data[n:]
	}

	return nil
}

func (m *Way) Append(buf []byte) []byte {
	buf = appendVarintField(buf, 1, m.Id)
	buf = appendPackedVarint(buf, 2, m.Keys)
	buf = appendPackedVarint(buf, 3, m.Vals)

	if m.Info != nil {
		buf = appendMessageField(buf, 4, m.Info)
	}

	return appendPackedZigZag(buf, 8, m.Refs)
}

// Relation_MemberType discriminates relation members.
type Relation_MemberType int32

const (
	Relation_NODE     Relation_MemberType = 0
	Relation_WAY      Relation_MemberType = 1
	Relation_RELATION Relation_MemberType = 2
)

// Relation documents a relationship between two or more elements.
type Relation struct {
	Id       int64                 // 1
	Keys     []uint32              // packed = 2
	Vals     []uint32              // packed = 3
	Info     *Info                 // 4
	RolesSid []int32               // packed = 8
	Memids   []int64               // packed sint64 = 9, delta coded
	Types    []Relation_MemberType // packed = 10
}

func (m *Relation) Unmarshal(data []byte) error {
	*m = Relation{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errMalformed
		}

		data = data[n:]

		switch num {
		case 1:
			m.Id, n = consumeVarint[int64](data, typ)
		case 2:
			m.Keys, n = consumePackedVarint(data, typ, m.Keys)
		case 3:
			m.Vals, n = consumePackedVarint(data, typ, m.Vals)
		case 4:
			var v []byte

			v, n = consumeBytes(data, typ)
			if n >= 0 {
				m.Info = &Info{}
				if err := m.Info.Unmarshal(v); err != nil {
					return err
				}
			}
		case 8:
			m.RolesSid, n = consumePackedVarint(data, typ, m.RolesSid)
		case 9:
			m.Memids, n = consumePackedZigZag(data, typ, m.Memids)
		case 10:
			m.Types, n = consumePackedVarint(data, typ, m.Types)
		default:
			n = skipField(data, num, typ)
		}

		if n < 0 {
			return errMalformed
		}

		data = data[n:]
	}

	return nil
}

func (m *Relation) Append(buf []byte) []byte {
	buf = appendVarintField(buf, 1, m.Id)
	buf = appendPackedVarint(buf, 2, m.Keys)
	buf = appendPackedVarint(buf, 3, m.Vals)

	if m.Info != nil {
		buf = appendMessageField(buf, 4, m.Info)
	}

	buf = appendPackedVarint(buf, 8, m.RolesSid)
	buf = appendPackedZigZag(buf, 9, m.Memids)

	return appendPackedVarint(buf, 10, m.Types)
}

// ChangeSet is carried only so that changeset blocks still decode; the
// classifier rejects them before a full decode is attempted.
type ChangeSet struct {
	Id int64 // 1
}

func (m *ChangeSet) Unmarshal(data []byte) error {
	*m = ChangeSet{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errMalformed
		}

		data = data[n:]

		switch num {
		case 1:
			m.Id, n = consumeVarint[int64](data, typ)
		default:
			n = skipField(data, num, typ)
		}

		if n < 0 {
			return errMalformed
		}

		data = data[n:]
	}

	return nil
}

func (m *ChangeSet) Append(buf []byte) []byte {
	return appendVarintField(buf, 1, m.Id)
}
