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

import "errors"

var (
	// ErrInvalidFrameLength is returned when a declared blob header or blob
	// data length lies outside the bounds the format permits.
	ErrInvalidFrameLength = errors.New("osmpbf: invalid frame length")

	// ErrUnknownBlobType is returned when a BlobHeader carries a type other
	// than OSMHeader or OSMData.
	ErrUnknownBlobType = errors.New("osmpbf: unknown blob type")

	// ErrUnsupportedCompression is returned when a Blob carries a payload
	// compressed with anything other than raw bytes or zlib.
	ErrUnsupportedCompression = errors.New("osmpbf: unsupported blob compression")

	// ErrUnsupportedChangeset is returned by the classifier for blocks that
	// carry changeset elements.
	ErrUnsupportedChangeset = errors.New("osmpbf: block contains unsupported changesets")

	// ErrMalformedPrimitiveBlock is returned by the classifier when the first
	// primitive group starts with an unknown field tag.
	ErrMalformedPrimitiveBlock = errors.New("osmpbf: malformed primitive block")

	// ErrTruncated is returned by the classifier when a block ends before any
	// primitive group is found.
	ErrTruncated = errors.New("osmpbf: truncated primitive block")

	// ErrInvalidOffset is returned by block readers when a BlockIndex lies
	// outside the file bounds.
	ErrInvalidOffset = errors.New("osmpbf: block offset outside file bounds")
)
