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

package parallel

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noContext() (struct{}, error) { return struct{}{}, nil }

func TestProcessOrdered(t *testing.T) {
	items := make([]int, 10001)
	for i := range items {
		items[i] = i
	}

	for _, workers := range []int{1, 2, 4, 16} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			next := 0

			err := process(workers, items, noContext,
				func(_ struct{}, item int) int64 {
					return int64(item) * int64(item)
				},
				func(sq int64) error {
					if sq != int64(next)*int64(next) {
						return fmt.Errorf("got %d at position %d", sq, next)
					}

					next++

					return nil
				})

			require.NoError(t, err)
			assert.Equal(t, len(items), next)
		})
	}
}

func TestProcessWindowBounded(t *testing.T) {
	const workers = 4

	items := make([]int, 5000)

	var produced, consumed, maxLag atomic.Int64

	err := process(workers, items, noContext,
		func(_ struct{}, _ int) int {
			lag := produced.Add(1) - consumed.Load()

			for {
				prev := maxLag.Load()
				if lag <= prev || maxLag.CompareAndSwap(prev, lag) {
					break
				}
			}

			return 0
		},
		func(int) error {
			consumed.Add(1)

			return nil
		})

	require.NoError(t, err)

	// 2W admitted plus one held result per worker.
	assert.LessOrEqual(t, maxLag.Load(), int64(3*workers))
}

func TestProcessConsumeError(t *testing.T) {
	errStop := errors.New("stop")

	items := make([]int, 1000)
	for i := range items {
		items[i] = i
	}

	seen := 0

	err := process(4, items, noContext,
		func(_ struct{}, item int) int { return item },
		func(item int) error {
			if item == 10 {
				return errStop
			}

			seen++

			return nil
		})

	assert.ErrorIs(t, err, errStop)
	assert.Equal(t, 10, seen)
}

func TestProcessContextError(t *testing.T) {
	errCtx := errors.New("no scratch space")

	var produces atomic.Int64

	err := process(4, []int{1, 2, 3},
		func() (struct{}, error) { return struct{}{}, errCtx },
		func(_ struct{}, _ int) int {
			produces.Add(1)

			return 0
		},
		func(int) error { return nil })

	assert.ErrorIs(t, err, errCtx)
	assert.Zero(t, produces.Load())
}

func TestProcessContextPerWorker(t *testing.T) {
	var contexts atomic.Int64

	err := process(4, []int{1}, func() (struct{}, error) {
		contexts.Add(1)

		return struct{}{}, nil
	},
		func(_ struct{}, item int) int { return item },
		func(int) error { return nil })

	require.NoError(t, err)
	assert.Equal(t, int64(4), contexts.Load())
}

func TestProcessEmpty(t *testing.T) {
	err := process(4, nil, noContext,
		func(_ struct{}, item int) int { return item },
		func(int) error {
			t.Fatal("consume called on empty input")

			return nil
		})

	require.NoError(t, err)
}

func TestProcessFewerItemsThanWorkers(t *testing.T) {
	var got []int

	err := process(16, []int{7, 8, 9}, noContext,
		func(_ struct{}, item int) int { return item * 10 },
		func(item int) error {
			got = append(got, item)

			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, []int{70, 80, 90}, got)
}

func TestProcessDefaultWorkers(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	var got []int

	err := Process(items, noContext,
		func(_ struct{}, item int) int { return item + 1 },
		func(item int) error {
			got = append(got, item)

			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4, 5, 6}, got)
}
