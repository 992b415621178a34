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

package packers

import (
	"bytes"

	"github.com/ulikunitz/xz/lzma"

	"m4o.io/osmpbf/protobuf"
)

type LzmaPacker struct {
	*base
	buf bytes.Buffer
}

func NewLzmaPacker() *LzmaPacker {
	p := LzmaPacker{}

	w, err := lzma.NewWriter(&p.buf)
	if err != nil {
		panic(err)
	}

	p.base = newBasePacker(w)

	return &p
}

func (p *LzmaPacker) SaveTo(blob *protobuf.Blob) {
	blob.Data = &protobuf.Blob_LzmaData{LzmaData: p.buf.Bytes()}
}
