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

package notify

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/sirupsen/logrus"

	libcch "github.com/megfs/meg/cache"
	liberr "github.com/megfs/meg/errors"
	libsto "github.com/megfs/meg/store"
)

const (
	// PollInterval is the etag poll period when no push channel exists.
	PollInterval = 150 * time.Second
	// MinInterval floors a configured poll period.
	MinInterval = 60 * time.Second
	// CycleTimeout bounds one poll iteration.
	CycleTimeout = 6 * time.Second
)

type Watcher struct {
	str libsto.ObjectStore
	cch *libcch.Layers
	log logrus.FieldLogger
	itv time.Duration
}

func New(str libsto.ObjectStore, cch *libcch.Layers, log logrus.FieldLogger, interval time.Duration) *Watcher {
	if log == nil {
		log = logrus.StandardLogger()
	}

	if interval <= 0 {
		interval = PollInterval
	} else if interval < MinInterval {
		interval = MinInterval
	}

	return &Watcher{
		str: str,
		cch: cch,
		log: log.WithField("component", "invalidator"),
		itv: interval,
	}
}

// Poll runs the periodic etag check until the context ends.
func (w *Watcher) Poll(ctx context.Context) {
	tck := time.NewTicker(w.itv)
	defer tck.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-tck.C:
			cctx, cancel := context.WithTimeout(ctx, CycleTimeout)
			w.Cycle(cctx)

			if errors.Is(cctx.Err(), context.DeadlineExceeded) {
				w.log.Warn("poll cycle exceeded its timeout, abandoned")
			}

			cancel()
		}
	}
}

// Cycle runs one poll iteration: etag backfill when the map is empty,
// conditional GET revalidation otherwise.
func (w *Watcher) Cycle(ctx context.Context) {
	tags := w.cch.ETags()

	// a warm body cache with no etags happens after a provider swap or
	// restart against a remote backend: backfill with HEAD calls
	if len(tags) == 0 {
		for _, name := range w.cch.ArchiveKeys() {
			w.backfill(ctx, name)
		}
		return
	}

	for name, ref := range tags {
		if ctx.Err() != nil {
			return
		}
		w.check(ctx, name, ref)
	}
}

func (w *Watcher) backfill(ctx context.Context, name string) {
	objs, e := w.str.List(ctx, name)

	if e != nil {
		w.log.WithField("archive", name).WithError(e).Warn("etag backfill list failed")
		return
	}

	var key string

	for _, o := range objs {
		if o.Key != "" && path.Base(o.Key) != "." {
			key = o.Key
			break
		}
	}

	if key == "" {
		return
	}

	h, e := w.headRetry(ctx, key)

	if e != nil {
		w.log.WithField("archive", name).WithError(e).Warn("etag backfill head failed")
		return
	}

	w.cch.SetETag(name, key, h.ETag)
}

func (w *Watcher) check(ctx context.Context, name string, ref libcch.ETagRef) {
	g, e := w.getRetry(ctx, ref.Key, ref.ETag)

	if e != nil {
		w.log.WithField("archive", name).WithError(e).Warn("etag check failed, cycle entry skipped")
		return
	}

	if g.NotModified {
		return
	}

	// the object changed: the index is stale either way, the body is
	// refreshed in place when one was cached
	w.cch.PurgeIndex(ctx, name)

	if _, ok := w.cch.PeekArchive(ctx, name); ok {
		w.cch.StoreArchive(ctx, name, g.Body, 0)
	} else {
		w.cch.PurgeArchive(ctx, name)
	}

	w.cch.SetETag(name, ref.Key, g.ETag)
}

// getRetry issues a conditional GET, retrying once on a transport error.
func (w *Watcher) getRetry(ctx context.Context, key, etag string) (libsto.GetResult, liberr.Error) {
	g, e := w.str.Get(ctx, key, nil, etag)

	if e != nil && e.HasCode(libsto.ErrorTransport) {
		g, e = w.str.Get(ctx, key, nil, etag)
	}

	return g, e
}

func (w *Watcher) headRetry(ctx context.Context, key string) (libsto.HeadInfo, liberr.Error) {
	h, e := w.str.Head(ctx, key)

	if e != nil && e.HasCode(libsto.ErrorTransport) {
		h, e = w.str.Head(ctx, key)
	}

	return h, e
}

// Listen consumes a push channel until cancellation or channel close.
// The channel is single-subscriber.
func (w *Watcher) Listen(ctx context.Context, ch <-chan BucketNotification) {
	for {
		select {
		case <-ctx.Done():
			return

		case n, ok := <-ch:
			if !ok {
				return
			}
			w.apply(ctx, n)
		}
	}
}

func (w *Watcher) apply(ctx context.Context, n BucketNotification) {
	log := w.log.WithFields(logrus.Fields{
		"change": n.Change.String(),
		"path":   n.Path,
	})

	switch n.Change {
	case ChangeDelete, ChangeModify:
		for _, name := range cacheNames(n.Path) {
			w.cch.PurgeArchive(ctx, name)
			w.cch.PurgeIndex(ctx, name)
		}
		log.Info("caches purged on bucket notification")

	case ChangeCreate:
		log.Debug("bucket notification observed")
	}
}
