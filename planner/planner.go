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

// Package planner sequences the store calls answering one request: cached
// body first, then HEAD resolution, then either the seekable fast path
// over the central index or the whole-archive path through the file
// system view.
package planner

import (
	"context"
	"path"
	"time"

	"github.com/sirupsen/logrus"

	libarc "github.com/megfs/meg/archive"
	arcfsv "github.com/megfs/meg/archive/archfs"
	arcfmt "github.com/megfs/meg/archive/format"
	libcch "github.com/megfs/meg/cache"
	liberr "github.com/megfs/meg/errors"
	libmtp "github.com/megfs/meg/mediatype"
	"github.com/megfs/meg/monitor"
	libsto "github.com/megfs/meg/store"
)

// Result is a deliverable entry or object body with its derived headers.
type Result struct {
	Body        []byte
	ContentType string
	Filename    string
}

type Planner struct {
	str libsto.ObjectStore
	cch *libcch.Layers
	reg *arcfmt.Registry
	mim libmtp.Resolver
	log logrus.FieldLogger
}

func New(str libsto.ObjectStore, cch *libcch.Layers, reg *arcfmt.Registry, mim libmtp.Resolver, log logrus.FieldLogger) *Planner {
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Planner{
		str: str,
		cch: cch,
		reg: reg,
		mim: mim,
		log: log.WithField("component", "planner"),
	}
}

// Object serves the archive object itself, verbatim, with the upstream
// content type.
func (p *Planner) Object(ctx context.Context, name string) (Result, liberr.Error) {
	h, err := p.head(ctx, name)

	if err != nil {
		return Result{}, err
	}

	body, ok := p.cch.PeekArchive(ctx, name)

	if !ok {
		if body, err = p.fetchArchive(ctx, name, h, 0); err != nil {
			return Result{}, err
		}
	}

	ct := h.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}

	return Result{
		Body:        body,
		ContentType: ct,
		Filename:    path.Base(h.Key),
	}, nil
}

// Entry resolves one inner path out of the named archive. ttl overrides
// the archive body cache validity when positive.
func (p *Planner) Entry(ctx context.Context, name, innerPath string, ttl time.Duration) (Result, liberr.Error) {
	inner := libarc.CleanPath(innerPath)

	if inner == "" {
		return p.Object(ctx, name)
	}

	// cached body short-circuits every store call
	if body, ok := p.cch.PeekArchive(ctx, name); ok {
		f, err := p.reg.Resolve(name, body)
		if err != nil {
			return Result{}, formatError(err)
		}

		return p.fromWhole(name, f, body, inner)
	}

	h, err := p.head(ctx, name)

	if err != nil {
		return Result{}, err
	}

	f, err := p.resolveFormat(h)

	if err != nil {
		return Result{}, err
	}

	if sf, ok := libarc.AsSeekable(f); ok && h.AcceptRanges {
		return p.seekable(ctx, name, h, sf, inner)
	}

	body, err := p.fetchArchive(ctx, name, h, ttl)

	if err != nil {
		return Result{}, err
	}

	return p.fromWhole(name, f, body, inner)
}

// head resolves the stored key and metadata of an archive name through
// the single-flight HEAD cache. An extension-bearing name heads its own
// key; otherwise the name is disambiguated against the stored keys with a
// prefix list.
func (p *Planner) head(ctx context.Context, name string) (libsto.HeadInfo, liberr.Error) {
	return p.cch.Head(ctx, name, func(ctx context.Context) (libsto.HeadInfo, liberr.Error) {
		if _, ok := p.reg.ByName(name); ok {
			if h, e := p.headKey(ctx, name, name); e == nil {
				return h, nil
			} else if !e.HasCode(libsto.ErrorNotFound) {
				return libsto.HeadInfo{}, e
			}
		}

		monitor.StoreCalls.WithLabelValues("list").Inc()

		objs, e := p.str.List(ctx, name)

		if e != nil {
			return libsto.HeadInfo{}, e
		}

		var key string

		for _, o := range objs {
			if o.Key != "" && path.Base(o.Key) != "." {
				key = o.Key
				break
			}
		}

		if key == "" {
			return libsto.HeadInfo{}, libsto.ErrorNotFound.Error(nil)
		}

		return p.headKey(ctx, name, key)
	})
}

func (p *Planner) headKey(ctx context.Context, name, key string) (libsto.HeadInfo, liberr.Error) {
	monitor.StoreCalls.WithLabelValues("head").Inc()

	h, e := p.str.Head(ctx, key)

	if e != nil {
		return libsto.HeadInfo{}, e
	}

	h.Key = key
	p.cch.SetETag(name, key, h.ETag)

	return h, nil
}

// resolveFormat picks the archive format from the HEAD content type, then
// from the stored key name. With neither usable the format is unknown:
// there is no body to trial-decode on this path.
func (p *Planner) resolveFormat(h libsto.HeadInfo) (libarc.ArchiveFormat, liberr.Error) {
	if f, ok := p.reg.ByContentType(h.ContentType); ok {
		return f, nil
	}

	if f, ok := p.reg.ByName(h.Key); ok {
		return f, nil
	}

	return nil, arcfmt.ErrorUnknownFormat.Error(nil)
}

func (p *Planner) fetchArchive(ctx context.Context, name string, h libsto.HeadInfo, ttl time.Duration) ([]byte, liberr.Error) {
	return p.cch.Archive(ctx, name, ttl, func(ctx context.Context) ([]byte, liberr.Error) {
		monitor.StoreCalls.WithLabelValues("get").Inc()

		g, e := p.str.Get(ctx, h.Key, nil, "")

		if e != nil {
			return nil, e
		}

		p.cch.SetETag(name, h.Key, g.ETag)

		return g.Body, nil
	})
}

func (p *Planner) seekable(ctx context.Context, name string, h libsto.HeadInfo, sf libarc.SeekableArchiveFormat, inner string) (Result, liberr.Error) {
	idxBytes, err := p.cch.Index(ctx, name, func(ctx context.Context) ([]byte, liberr.Error) {
		var last liberr.Error

		for _, r := range sf.IndexHintRanges(h.ContentLength) {
			rng := r

			monitor.StoreCalls.WithLabelValues("get_range").Inc()

			g, e := p.str.Get(ctx, h.Key, &rng, "")

			if e != nil {
				last = e
				continue
			}

			// a hint too narrow for the index is retried wider
			if _, de := sf.DecodeIndex(g.Body); de != nil {
				last = decodeError(de)
				continue
			}

			return g.Body, nil
		}

		if last == nil {
			last = libarc.ErrorIndexInvalid.Error(nil)
		}

		return nil, last
	})

	if err != nil {
		return Result{}, err
	}

	idx, de := sf.DecodeIndex(idxBytes)

	if de != nil {
		return Result{}, decodeError(de)
	}

	meta, ok := idx.Get(inner)

	if !ok {
		if meta, ok = idx.Get(inner + "/"); !ok {
			return Result{}, ErrorEntryNotFound.Error(nil)
		}
	}

	if meta.Offset < 0 || meta.Offset+meta.Length > h.ContentLength {
		return Result{}, libarc.ErrorRangeInvalid.Error(nil)
	}

	rng := meta.Range()

	monitor.StoreCalls.WithLabelValues("get_range").Inc()

	g, e := p.str.Get(ctx, h.Key, &rng, "")

	if e != nil {
		return Result{}, e
	}

	ent, de := sf.DecodeEntry(g.Body, meta.Compression, meta)

	if de != nil {
		return Result{}, decodeError(de)
	}

	if len(ent.Data) == 0 && meta.UncompressedSize > 0 {
		p.log.WithFields(logrus.Fields{
			"archive": name,
			"entry":   inner,
		}).Warn("decoded entry is empty but the index declares a non-zero size, serving it anyway")
	}

	return p.result(inner, ent.Data), nil
}

func (p *Planner) fromWhole(name string, f libarc.ArchiveFormat, body []byte, inner string) (Result, liberr.Error) {
	a, de := f.Decode(name, body)

	if de != nil {
		return Result{}, decodeError(de)
	}

	if a.Empty() {
		p.log.WithField("archive", name).Warn("archive decoded with no entries")
	}

	data, err := arcfsv.New(a).Read(inner)

	if err != nil {
		if le, ok := err.(liberr.Error); ok {
			return Result{}, le
		}
		return Result{}, ErrorEntryNotFound.Error(err)
	}

	return p.result(inner, data), nil
}
