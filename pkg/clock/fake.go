/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package clock

import (
	"sync"
	"time"
)

// Fake is a deterministic Clock. After fires immediately and advances the
// fake time by the requested duration; tickers fire only when Tick is called.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	waits   []time.Duration
	tickers []*fakeTicker
}

// NewFake returns a Fake clock starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.now
}

func (f *Fake) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	f.waits = append(f.waits, d)
	f.now = f.now.Add(d)
	now := f.now
	f.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now

	return ch
}

func (f *Fake) Ticker(_ time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := &fakeTicker{ch: make(chan time.Time, 1)}
	f.tickers = append(f.tickers, t)

	return t
}

// Waits returns every duration passed to After, in call order.
func (f *Fake) Waits() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]time.Duration(nil), f.waits...)
}

// Tick delivers one tick to every live ticker.
func (f *Fake) Tick() {
	f.mu.Lock()
	tickers := append([]*fakeTicker(nil), f.tickers...)
	now := f.now
	f.mu.Unlock()

	for _, t := range tickers {
		t.fire(now)
	}
}

type fakeTicker struct {
	mu      sync.Mutex
	ch      chan time.Time
	stopped bool
}

func (t *fakeTicker) Chan() <-chan time.Time {
	return t.ch
}

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *fakeTicker) fire(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}

	select {
	case t.ch <- now:
	default:
	}
}
