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

// Package protobuf carries hand-maintained wire codecs for the OSMPBF
// protobuf schema (fileformat.proto and osmformat.proto).  The messages are
// plain structs; encoding and decoding go through protowire so that the
// field and wire layout stays bit-compatible with generated bindings.
// Marshalling emits fields in tag order, so marshal/unmarshal round trips
// are deterministic.
package protobuf

import (
	"errors"

	"golang.org/x/exp/constraints"
	"google.golang.org/protobuf/encoding/protowire"
)

// Message is the subset of protobuf message behaviour the readers and the
// writer need: wire-format decoding and appending.
type Message interface {
	// Unmarshal replaces the message contents with the decoded data.
	Unmarshal(data []byte) error

	// Append appends the wire encoding of the message to buf.
	Append(buf []byte) []byte
}

// Marshal returns the wire encoding of m.
func Marshal(m Message) []byte {
	return m.Append(nil)
}

var errMalformed = errors.New("protobuf: malformed message")

// consumeVarint decodes a single varint field of integer type T.
func consumeVarint[T constraints.Integer](b []byte, typ protowire.Type) (T, int) {
	if typ != protowire.VarintType {
		return 0, -1
	}

	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, n
	}

	return T(v), n
}

// consumeZigZag decodes a single sint32/sint64 field.
func consumeZigZag(b []byte, typ protowire.Type) (int64, int) {
	if typ != protowire.VarintType {
		return 0, -1
	}

	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, n
	}

	return protowire.DecodeZigZag(v), n
}

// consumeString decodes a length-delimited field as a string.
func consumeString(b []byte, typ protowire.Type) (string, int) {
	if typ != protowire.BytesType {
		return "", -1
	}

	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return "", n
	}

	return string(v), n
}

// consumeBytes decodes a length-delimited field into a fresh byte slice.
func consumeBytes(b []byte, typ protowire.Type) ([]byte, int) {
	if typ != protowire.BytesType {
		return nil, -1
	}

	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, n
	}

	out := make([]byte, len(v))
	copy(out, v)

	return out, n
}

// consumePackedVarint decodes a repeated varint field of integer type T,
// accepting both packed and element-wise encodings.
func consumePackedVarint[T constraints.Integer](b []byte, typ protowire.Type, vs []T) ([]T, int) {
	switch typ {
	case protowire.VarintType:
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return vs, n
		}

		return append(vs, T(v)), n

	case protowire.BytesType:
		packed, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return vs, n
		}

		for len(packed) > 0 {
			v, m := protowire.ConsumeVarint(packed)
			if m < 0 {
				return vs, m
			}

			vs = append(vs, T(v))
			packed = packed[m:]
		}

		return vs, n

	default:
		return vs, -1
	}
}

// consumePackedZigZag decodes a repeated sint32/sint64 field of signed
// integer type T, accepting both packed and element-wise encodings.
func consumePackedZigZag[T constraints.Signed](b []byte, typ protowire.Type, vs []T) ([]T, int) {
	switch typ {
	case protowire.VarintType:
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return vs, n
		}

		return append(vs, T(protowire.DecodeZigZag(v))), n

	case protowire.BytesType:
		packed, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return vs, n
		}

		for len(packed) > 0 {
			v, m := protowire.ConsumeVarint(packed)
			if m < 0 {
				return vs, m
			}

			vs = append(vs, T(protowire.DecodeZigZag(v)))
			packed = packed[m:]
		}

		return vs, n

	default:
		return vs, -1
	}
}

// consumePackedBool decodes a repeated bool field, accepting both packed and
// element-wise encodings.
func consumePackedBool(b []byte, typ protowire.Type, vs []bool) ([]bool, int) {
	switch typ {
	case protowire.VarintType:
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return vs, n
		}

		return append(vs, v != 0), n

	case protowire.BytesType:
		packed, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return vs, n
		}

		for len(packed) > 0 {
			v, m := protowire.ConsumeVarint(packed)
			if m < 0 {
				return vs, m
			}

			vs = append(vs, v != 0)
			packed = packed[m:]
		}

		return vs, n

	default:
		return vs, -1
	}
}

func appendVarintField[T constraints.Integer](b []byte, num protowire.Number, v T) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)

	return protowire.AppendVarint(b, uint64(v))
}

func appendZigZagField(b []byte, num protowire.Number, v int64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)

	return protowire.AppendVarint(b, protowire.EncodeZigZag(v))
}

func appendStringField(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)

	return protowire.AppendString(b, v)
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)

	return protowire.AppendBytes(b, v)
}

func appendPackedVarint[T constraints.Integer](b []byte, num protowire.Number, vs []T) []byte {
	if len(vs) == 0 {
		return b
	}

	var packed []byte
	for _, v := range vs {
		packed = protowire.AppendVarint(packed, uint64(v))
	}

	return appendBytesField(b, num, packed)
}

func appendPackedZigZag[T constraints.Signed](b []byte, num protowire.Number, vs []T) []byte {
	if len(vs) == 0 {
		return b
	}

	var packed []byte
	for _, v := range vs {
		packed = protowire.AppendVarint(packed, protowire.EncodeZigZag(int64(v)))
	}

	return appendBytesField(b, num, packed)
}

func appendPackedBool(b []byte, num protowire.Number, vs []bool) []byte {
	if len(vs) == 0 {
		return b
	}

	var packed []byte

	for _, v := range vs {
		var u uint64
		if v {
			u = 1
		}

		packed = protowire.AppendVarint(packed, u)
	}

	return appendBytesField(b, num, packed)
}

func appendMessageField(b []byte, num protowire.Number, m Message) []byte {
	return appendBytesField(b, num, m.Append(nil))
}

// skipField skips over an unknown field.
func skipField(b []byte, num protowire.Number, typ protowire.Type) int {
	return protowire.ConsumeFieldValue(num, typ, b)
}
