/*
 *  MIT License
 *
 *  Copyright (c) 2024 Meg Authors
 *
 *  Permission is hereby granted, free of charge, to any person obtaining a copy
 *  of this software and associated documentation files (the "Software"), to deal
 *  in the Software without restriction, including without limitation the rights
 *  to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *  copies of the Software, and to permit persons to whom the Software is
 *  furnished to do so, subject to the following conditions:
 *
 *  The above copyright notice and this permission notice shall be included in all
 *  copies or substantial portions of the Software.
 *
 *  THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *  IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *  FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *  AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *  LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *  OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *  SOFTWARE.
 *
 */

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type memItem struct {
	v []byte
	// t is the expiry instant, zero for no expiry.
	t time.Time
}

func (i *memItem) expired(now time.Time) bool {
	return !i.t.IsZero() && now.After(i.t)
}

type mem struct {
	m sync.Map
	n atomic.Int64
	x int
	c chan struct{}
	o sync.Once
}

// NewMemory returns the in-memory provider, bounded to max entries; a
// non-positive max applies the default bound. A background ticker sweeps
// expired items.
func NewMemory(max int) Provider {
	if max <= 0 {
		max = DefaultMemoryBound
	}

	p := &mem{
		x: max,
		c: make(chan struct{}),
	}

	go p.ticker()

	return p
}

func (p *mem) ticker() {
	tck := time.NewTicker(time.Second)
	defer tck.Stop()

	for {
		select {
		case <-tck.C:
			p.expire()

		case <-p.c:
			return
		}
	}
}

func (p *mem) expire() {
	now := time.Now()

	p.m.Range(func(key, value any) bool {
		if value.(*memItem).expired(now) {
			p.delete(key.(string))
		}
		return true
	})
}

func (p *mem) delete(key string) {
	if _, ok := p.m.LoadAndDelete(key); ok {
		p.n.Add(-1)
	}
}

// evict drops the entry closest to expiry to make room for a new one.
func (p *mem) evict() {
	var (
		k string
		t time.Time
	)

	p.m.Range(func(key, value any) bool {
		it := value.(*memItem)

		exp := it.t
		if exp.IsZero() {
			// no-expiry entries lose eviction only to nothing else
			exp = time.Now().Add(MaxArchiveTTL)
		}

		if k == "" || exp.Before(t) {
			k = key.(string)
			t = exp
		}

		return true
	})

	if k != "" {
		p.delete(k)
	}
}

func (p *mem) Get(_ context.Context, key string) ([]byte, bool) {
	o, ok := p.m.Load(key)

	if !ok {
		return nil, false
	}

	it := o.(*memItem)

	if it.expired(time.Now()) {
		p.delete(key)
		return nil, false
	}

	return it.v, true
}

func (p *mem) Set(_ context.Context, key string, val []byte, ttl time.Duration) {
	it := &memItem{
		v: val,
	}

	if ttl > 0 {
		it.t = time.Now().Add(ttl)
	}

	if _, loaded := p.m.Swap(key, it); !loaded {
		if p.n.Add(1) > int64(p.x) {
			p.evict()
		}
	}
}

func (p *mem) Purge(_ context.Context, key string) {
	p.delete(key)
}

func (p *mem) Close() error {
	p.o.Do(func() {
		close(p.c)
	})

	return nil
}
