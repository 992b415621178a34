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

import "fmt"

// BlobCompression selects the compression scheme applied to PBF blob
// payloads.
type BlobCompression int

const (
	// RAW stores the payload uncompressed.
	RAW BlobCompression = iota

	// ZLIB compresses with zlib, the scheme every OSM PBF reader accepts.
	ZLIB

	// LZMA compresses with LZMA.
	LZMA

	// LZ4 compresses with LZ4 framing.
	LZ4

	// ZSTD compresses with zstandard.
	ZSTD
)

func (c BlobCompression) String() string {
	switch c {
	case RAW:
		return "raw"
	case ZLIB:
		return "zlib"
	case LZMA:
		return "lzma"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("BlobCompression(%d)", int(c))
	}
}
