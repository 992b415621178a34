// Copyright 2017-25 the original author or authors.
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

package info

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/osmpbf"
	"m4o.io/osmpbf/protobuf"
)

func encodeStream(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer

	enc := osmpbf.NewEncoder(&buf,
		osmpbf.WithRequiredFeatures("OsmSchema-V0.6", "DenseNodes"),
		osmpbf.WithWritingProgram("info-test"),
	)

	block := &protobuf.PrimitiveBlock{
		Stringtable: &protobuf.StringTable{S: [][]byte{{}}},
		Primitivegroup: []*protobuf.PrimitiveGroup{{
			Dense: &protobuf.DenseNodes{
				Id:  []int64{1, 1, 1},
				Lat: []int64{515000000, 10, 10},
				Lon: []int64{-1000000, 10, 10},
			},
		}},
		Granularity:     protobuf.DefaultGranularity,
		DateGranularity: protobuf.DefaultDateGranularity,
	}

	require.NoError(t, enc.WriteBlock(block))

	ways := &protobuf.PrimitiveBlock{
		Stringtable: &protobuf.StringTable{S: [][]byte{{}}},
		Primitivegroup: []*protobuf.PrimitiveGroup{{
			Ways: []*protobuf.Way{
				{Id: 100, Refs: []int64{1, 1, 1}},
				{Id: 101, Refs: []int64{1, 1, 1}},
			},
		}},
		Granularity:     protobuf.DefaultGranularity,
		DateGranularity: protobuf.DefaultDateGranularity,
	}

	require.NoError(t, enc.WriteBlock(ways))

	return &buf
}

func TestRunInfo(t *testing.T) {
	info := runInfo(encodeStream(t), 2, false)

	assert.Equal(t, []string{"OsmSchema-V0.6", "DenseNodes"}, info.RequiredFeatures)
	assert.Equal(t, "info-test", info.WritingProgram)
	assert.Zero(t, info.NodeCount)
}

func TestRunInfoExtended(t *testing.T) {
	info := runInfo(encodeStream(t), 2, true)

	assert.Equal(t, int64(3), info.NodeCount)
	assert.Equal(t, int64(2), info.WayCount)
	assert.Zero(t, info.RelationCount)
}

func TestRenderTxt(t *testing.T) {
	var buf bytes.Buffer

	old := out
	out = &buf

	defer func() { out = old }()

	renderTxt(runInfo(encodeStream(t), 2, true), true)

	s := buf.String()
	assert.Contains(t, s, "WritingProgram: info-test")
	assert.Contains(t, s, "NodeCount: 3")
	assert.Contains(t, s, "WayCount: 2")
}
