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

// Package parallel runs a producer function over a slice on a fixed worker
// pool while delivering the results to a single consumer in input order.
//
// Ordering is enforced with an admission window rather than by sorting: a
// worker holding item i may not send its result until the consumer has
// caught up to within 2·W items of i, so a slow consumer back-pressures
// fast producers and memory stays bounded regardless of input length.
package parallel

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// indexed tags a produced value with the input index it came from.
type indexed[Data any] struct {
	index int
	data  Data
}

// Process applies produce to every element of items on GOMAXPROCS workers
// and feeds the results, in input order, to consume on the calling
// goroutine.
//
// newContext is called once per worker before any work starts; it builds
// the worker's private state (scratch buffers, decoder instances).  If it
// fails, Process returns that error without producing anything.
//
// produce must be safe to call concurrently with distinct contexts.  The
// first error returned by consume stops the run and becomes Process's
// return value; results already produced by other workers are discarded.
func Process[Item, Context, Data any](
	items []Item,
	newContext func() (Context, error),
	produce func(Context, Item) Data,
	consume func(Data) error,
) error {
	return process(runtime.GOMAXPROCS(0), items, newContext, produce, consume)
}

func process[Item, Context, Data any](
	workers int,
	items []Item,
	newContext func() (Context, error),
	produce func(Context, Item) Data,
	consume func(Data) error,
) error {
	if workers < 1 {
		workers = 1
	}

	contexts := make([]Context, workers)

	for i := range contexts {
		ctx, err := newContext()
		if err != nil {
			return fmt.Errorf("parallel: create worker context: %w", err)
		}

		contexts[i] = ctx
	}

	if len(items) == 0 {
		return nil
	}

	window := 2 * workers
	results := make(chan indexed[Data], window)
	done := make(chan struct{})

	var (
		cursor  atomic.Int64
		mu      sync.Mutex
		admit   = window
		aborted bool
	)

	cond := sync.NewCond(&mu)

	var wg sync.WaitGroup

	wg.Add(workers)

	for _, ctx := range contexts {
		go func() {
			defer wg.Done()

			for {
				i := int(cursor.Add(1)) - 1
				if i >= len(items) {
					return
				}

				data := produce(ctx, items[i])

				// Hold the result until the consumer has advanced the
				// admission window past i.  Broadcast is required on the
				// other side: waiters wait on distinct indices, so waking
				// an arbitrary one may wake the wrong one.
				mu.Lock()
				for i >= admit && !aborted {
					cond.Wait()
				}

				stop := aborted
				mu.Unlock()

				if stop {
					return
				}

				select {
				case results <- indexed[Data]{index: i, data: data}:
				case <-done:
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// Workers may still complete out of order within the window, so park
	// early arrivals until their predecessors have been consumed.
	pending := make(map[int]Data, window)
	next := 0

	var consumeErr error

collect:
	for r := range results {
		pending[r.index] = r.data

		for {
			data, ok := pending[next]
			if !ok {
				break
			}

			delete(pending, next)
			next++

			mu.Lock()
			admit++
			mu.Unlock()

			cond.Broadcast()

			if err := consume(data); err != nil {
				consumeErr = err

				mu.Lock()
				aborted = true
				mu.Unlock()

				cond.Broadcast()
				close(done)

				break collect
			}
		}
	}

	if consumeErr != nil {
		// Let detached workers finish their sends so the closer goroutine
		// can shut the channel down.
		for range results {
		}

		return consumeErr
	}

	return nil
}
