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
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	liberr "github.com/megfs/meg/errors"
	"github.com/megfs/meg/monitor"
	libsto "github.com/megfs/meg/store"
)

// FillBytes computes the bytes of a missed key.
type FillBytes func(ctx context.Context) ([]byte, liberr.Error)

// ETagRef is the last observed etag of an archive, together with the
// stored key it was read from.
type ETagRef struct {
	Key  string
	ETag string
}

// Layers owns the four keyspaces: archive bodies, central indices, HEAD
// metadata and the etag map. All fetches are single-flight per key.
type Layers struct {
	p Provider
	g singleflight.Group
	e sync.Map
	k sync.Map
}

func New(p Provider) *Layers {
	return &Layers{
		p: p,
	}
}

func (l *Layers) Close() error {
	return l.p.Close()
}

func (l *Layers) fetch(ctx context.Context, space, key string, ttl time.Duration, fill FillBytes) ([]byte, liberr.Error) {
	if b, ok := l.p.Get(ctx, key); ok {
		monitor.CacheEvents.WithLabelValues(space, "hit").Inc()
		return b, nil
	}

	monitor.CacheEvents.WithLabelValues(space, "miss").Inc()

	v, e, _ := l.g.Do(key, func() (any, error) {
		// a concurrent fill may have landed between the miss and the
		// single-flight slot
		if b, ok := l.p.Get(ctx, key); ok {
			return b, nil
		}

		b, err := fill(ctx)
		if err != nil {
			return nil, err
		}

		l.p.Set(ctx, key, b, ttl)

		return b, nil
	})

	if e != nil {
		if le, ok := e.(liberr.Error); ok {
			return nil, le
		}
		return nil, ErrorFill.Error(e)
	}

	return v.([]byte), nil
}

// ArchiveTTL clamps a requested archive body TTL to the valid window,
// falling back to the default when unset.
func ArchiveTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultArchiveTTL
	}

	if ttl > MaxArchiveTTL {
		return MaxArchiveTTL
	}

	return ttl
}

// Archive fetches the raw archive bytes, filling on miss.
func (l *Layers) Archive(ctx context.Context, name string, ttl time.Duration, fill FillBytes) ([]byte, liberr.Error) {
	return l.fetch(ctx, "archive", prefixArchive+name, ArchiveTTL(ttl), func(ctx context.Context) ([]byte, liberr.Error) {
		b, e := fill(ctx)
		if e == nil {
			l.k.Store(name, struct{}{})
		}
		return b, e
	})
}

// PeekArchive reads the cached archive bytes without filling.
func (l *Layers) PeekArchive(ctx context.Context, name string) ([]byte, bool) {
	return l.p.Get(ctx, prefixArchive+name)
}

// StoreArchive writes archive bytes directly, as the invalidator does on
// refresh.
func (l *Layers) StoreArchive(ctx context.Context, name string, body []byte, ttl time.Duration) {
	l.p.Set(ctx, prefixArchive+name, body, ArchiveTTL(ttl))
	l.k.Store(name, struct{}{})
}

func (l *Layers) PurgeArchive(ctx context.Context, name string) {
	monitor.CacheEvents.WithLabelValues("archive", "purge").Inc()
	l.g.Forget(prefixArchive + name)
	l.p.Purge(ctx, prefixArchive+name)
	l.k.Delete(name)
}

// ArchiveKeys returns the archive names holding a cached body.
func (l *Layers) ArchiveKeys() []string {
	res := make([]string, 0)

	l.k.Range(func(key, _ any) bool {
		res = append(res, key.(string))
		return true
	})

	return res
}

// Index fetches the central index bytes of a seekable archive.
func (l *Layers) Index(ctx context.Context, name string, fill FillBytes) ([]byte, liberr.Error) {
	return l.fetch(ctx, "index", prefixIndex+name, IndexTTL, fill)
}

func (l *Layers) PurgeIndex(ctx context.Context, name string) {
	monitor.CacheEvents.WithLabelValues("index", "purge").Inc()
	l.g.Forget(prefixIndex + name)
	l.p.Purge(ctx, prefixIndex+name)
}

// Head fetches the resolved stored key and HEAD metadata of an archive
// name.
func (l *Layers) Head(ctx context.Context, name string, fill func(ctx context.Context) (libsto.HeadInfo, liberr.Error)) (libsto.HeadInfo, liberr.Error) {
	b, e := l.fetch(ctx, "head", prefixHead+name, HeadTTL, func(ctx context.Context) ([]byte, liberr.Error) {
		h, err := fill(ctx)
		if err != nil {
			return nil, err
		}

		j, me := json.Marshal(h)
		if me != nil {
			return nil, ErrorEncode.Error(me)
		}

		return j, nil
	})

	if e != nil {
		return libsto.HeadInfo{}, e
	}

	var h libsto.HeadInfo

	if me := json.Unmarshal(b, &h); me != nil {
		return libsto.HeadInfo{}, ErrorEncode.Error(me)
	}

	return h, nil
}

func (l *Layers) PurgeHead(ctx context.Context, name string) {
	monitor.CacheEvents.WithLabelValues("head", "purge").Inc()
	l.g.Forget(prefixHead + name)
	l.p.Purge(ctx, prefixHead+name)
}

// SetETag records the last observed etag for an archive name. The etag
// map has no expiry.
func (l *Layers) SetETag(name, key, etag string) {
	if etag == "" {
		return
	}

	l.e.Store(name, ETagRef{Key: key, ETag: etag})
}

func (l *Layers) ETag(name string) (ETagRef, bool) {
	v, ok := l.e.Load(name)

	if !ok {
		return ETagRef{}, false
	}

	return v.(ETagRef), true
}

// ETags snapshots the etag map.
func (l *Layers) ETags() map[string]ETagRef {
	res := make(map[string]ETagRef)

	l.e.Range(func(key, value any) bool {
		res[key.(string)] = value.(ETagRef)
		return true
	})

	return res
}
