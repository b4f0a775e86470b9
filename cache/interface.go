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

// Package cache provides the byte-oriented TTL caches over archive bodies,
// central indices and HEAD metadata, plus the ETag map. Storage goes
// through a provider so the backend is interchangeable; concurrent misses
// on one key share a single fill.
package cache

import (
	"context"
	"io"
	"time"
)

// Provider is the abstract cache backend: opaque bytes under string keys,
// each with its own time to live. A zero ttl stores without expiry.
type Provider interface {
	io.Closer

	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
	Purge(ctx context.Context, key string)
}

const (
	// DefaultArchiveTTL is how long a cached archive body stays valid.
	DefaultArchiveTTL = 30 * time.Minute
	// MaxArchiveTTL caps a per-request archive TTL override.
	MaxArchiveTTL = 48 * time.Hour
	// IndexTTL is the central index validity.
	IndexTTL = time.Minute
	// HeadTTL is the resolved HEAD metadata validity.
	HeadTTL = 10 * time.Second

	// DefaultMemoryBound is how many entries the in-memory provider holds
	// before evicting.
	DefaultMemoryBound = 5000
)

const (
	prefixArchive = "archives/"
	prefixIndex   = "indexes/"
	prefixHead    = "heads/"
)
