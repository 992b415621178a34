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

// BlobHeader precedes every blob in a PBF file and declares the blob's type
// and byte length.
//
//	required string type     = 1
//	optional bytes  indexdata = 2
//	required int32  datasize = 3
type BlobHeader struct {
	Type      string
	Indexdata []byte
	Datasize  int32
}

func (m *BlobHeader) GetType() string    { return m.Type }
func (m *BlobHeader) GetDatasize() int32 { return m.Datasize }

func (m *BlobHeader) Unmarshal(data []byte) error {
	*m = BlobHeader{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errMalformed
		}

		data = data[n:]

		switch num {
		case 1:
			m.Type, n = consumeString(data, typ)
		case 2:
			m.Indexdata, n = consumeBytes(data, typ)
		case 3:
			m.Datasize, n = consumeVarint[int32](data, typ)
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

func (m *BlobHeader) Append(buf []byte) []byte {
	buf = appendStringField(buf, 1, m.Type)

	if len(m.Indexdata) > 0 {
		buf = appendBytesField(buf, 2, m.Indexdata)
	}

	return appendVarintField(buf, 3, m.Datasize)
}

// Blob is a length-delimited, optionally-compressed payload containing
// exactly one OSM block.  The payload is a oneof across compression schemes.
//
//	optional bytes raw                = 1
//	optional int32 raw_size           = 2
//	optional bytes zlib_data          = 3
//	optional bytes lzma_data          = 4
//	optional bytes OBSOLETE_bzip2_data = 5
//	optional bytes lz4_data           = 6
//	optional bytes zstd_data          = 7
type Blob struct {
	RawSize *int32
	Data    isBlobData
}

type isBlobData interface{ isBlobData() }

type Blob_Raw struct{ Raw []byte }
type Blob_ZlibData struct{ ZlibData []byte }
type Blob_LzmaData struct{ LzmaData []byte }
type Blob_Bzip2Data struct{ Bzip2Data []byte }
type Blob_Lz4Data struct{ Lz4Data []byte }
type Blob_ZstdData struct{ ZstdData []byte }

func (*Blob_Raw) isBlobData()       {}
func (*Blob_ZlibData) isBlobData()  {}
func (*Blob_LzmaData) isBlobData()  {}
func (*Blob_Bzip2Data) isBlobData() {}
func (*Blob_Lz4Data) isBlobData()   {}
func (*Blob_ZstdData) isBlobData()  {}

// GetRawSize returns the declared uncompressed size, or zero when unset.
func (m *Blob) GetRawSize() int32 {
	if m.RawSize == nil {
		return 0
	}

	return *m.RawSize
}

// HasRawSize reports whether raw_size was present on the wire.
func (m *Blob) HasRawSize() bool { return m.RawSize != nil }

func (m *Blob) GetRaw() []byte {
	if x, ok := m.Data.(*Blob_Raw); ok {
		return x.Raw
	}

	return nil
}

func (m *Blob) GetZlibData() []byte {
	if x, ok := m.Data.(*Blob_ZlibData); ok {
		return x.ZlibData
	}

	return nil
}

func (m *Blob) GetLzmaData() []byte {
	if x, ok := m.Data.(*Blob_LzmaData); ok {
		return x.LzmaData
	}

	return nil
}

func (m *Blob) GetLz4Data() []byte {
	if x, ok := m.Data.(*Blob_Lz4Data); ok {
		return x.Lz4Data
	}

	return nil
}

func (m *Blob) GetZstdData() []byte {
	if x, ok := m.Data.(*Blob_ZstdData); ok {
		return x.ZstdData
	}

	return nil
}

func (m *Blob) Unmarshal(data []byte) error {
	*m = Blob{}

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
			m.Data = &Blob_Raw{Raw: v}
		case 2:
			var v int32
			v, n = consumeVarint[int32](data, typ)
			m.RawSize = &v
		case 3:
			var v []byte
			v, n = consumeBytes(data, typ)
			m.Data = &Blob_ZlibData{ZlibData: v}
		case 4:
			var v []byte
			v, n = consumeBytes(data, typ)
			m.Data = &Blob_LzmaData{LzmaData: v}
		case 5:
			var v []byte
			v, n = consumeBytes(data, typ)
			m.Data = &Blob_Bzip2Data{Bzip2Data: v}
		case 6:
			var v []byte
			v, n = consumeBytes(data, typ)
			m.Data = &Blob_Lz4Data{Lz4Data: v}
		case 7:
			var v []byte
			v, n = consumeBytes(data, typ)
			m.Data = &Blob_ZstdData{ZstdData: v}
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

func (m *Blob) Append(buf []byte) []byte {
	if x, ok := m.Data.(*Blob_Raw); ok {
		buf = appendBytesField(buf, 1, x.Raw)
	}

	if m.RawSize != nil {
		buf = appendVarintField(buf, 2, *m.RawSize)
	}

	switch x := m.Data.(type) {
	case *Blob_ZlibData:
		buf = appendBytesField(buf, 3, x.ZlibData)
	case *Blob_LzmaData:
		buf = appendBytesField(buf, 4, x.LzmaData)
	case *Blob_Bzip2Data:
		buf = appendBytesField(buf, 5, x.Bzip2Data)
	case *Blob_Lz4Data:
		buf = appendBytesField(buf, 6, x.Lz4Data)
	case *Blob_ZstdData:
		buf = appendBytesField(buf, 7, x.ZstdData)
	}

	return buf
}
