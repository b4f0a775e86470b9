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

// Package format holds the ordered registry of archive formats and the
// three-stage resolution over it: magic bytes, then file name, then trial
// decode. The default registry serves tar+gzip first, then zip, the way
// the stored objects are most commonly published.
package format

import (
	"fmt"
	"strings"
	"sync"

	libarc "github.com/megfs/meg/archive"
	arctgz "github.com/megfs/meg/archive/format/targz"
	arczip "github.com/megfs/meg/archive/format/zip"
)

// MagicLen is how many leading bytes resolution needs to match any
// registered magic, prefix or fixed-offset.
const MagicLen = 265

type Registry struct {
	m sync.RWMutex
	f []libarc.ArchiveFormat
}

// New returns a registry over the given formats, first match winning.
func New(f ...libarc.ArchiveFormat) *Registry {
	return &Registry{
		f: f,
	}
}

// Default returns the stock registry: tar+gzip then zip. The extra tar
// compositions sit behind them so a custom object still resolves.
func Default() *Registry {
	res := make([]libarc.ArchiveFormat, 0, 8)
	res = append(res, arctgz.Gzip(), arczip.New())

	for _, f := range arctgz.All() {
		if f.Name() == arctgz.Gzip().Name() {
			continue
		}
		res = append(res, f)
	}

	return New(res...)
}

// Append adds formats after the current ones.
func (r *Registry) Append(f ...libarc.ArchiveFormat) {
	r.m.Lock()
	defer r.m.Unlock()

	r.f = append(r.f, f...)
}

// Prepend adds formats before the current ones, taking precedence.
func (r *Registry) Prepend(f ...libarc.ArchiveFormat) {
	r.m.Lock()
	defer r.m.Unlock()

	r.f = append(append(make([]libarc.ArchiveFormat, 0, len(f)+len(r.f)), f...), r.f...)
}

func (r *Registry) Formats() []libarc.ArchiveFormat {
	r.m.RLock()
	defer r.m.RUnlock()

	res := make([]libarc.ArchiveFormat, len(r.f))
	copy(res, r.f)

	return res
}

// ByContentType returns the first format declaring the content type. For a
// dual-part format either layer's content type matches.
func (r *Registry) ByContentType(ct string) (libarc.ArchiveFormat, bool) {
	if ct == "" {
		return nil, false
	}

	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.TrimSpace(strings.ToLower(ct))

	r.m.RLock()
	defer r.m.RUnlock()

	for _, f := range r.f {
		for _, c := range f.ContentTypes() {
			if strings.ToLower(c) == ct {
				return f, true
			}
		}
	}

	return nil, false
}

// ByName returns the first format whose extension is a suffix of the
// file name.
func (r *Registry) ByName(name string) (libarc.ArchiveFormat, bool) {
	name = strings.ToLower(name)

	r.m.RLock()
	defer r.m.RUnlock()

	for _, f := range r.f {
		for _, x := range f.Extensions() {
			if strings.HasSuffix(name, x) {
				return f, true
			}
		}
	}

	return nil, false
}

// ByMagic returns the first format whose magic matches the leading bytes.
func (r *Registry) ByMagic(head []byte) (libarc.ArchiveFormat, bool) {
	r.m.RLock()
	defer r.m.RUnlock()

	for _, f := range r.f {
		if libarc.MatchMagic(f, head) {
			return f, true
		}
	}

	return nil, false
}

// Resolve picks the format of an archive, trying magic bytes, then the
// file name, then an exhaustive trial decode of the body. The body may be
// nil when only a name is known; trial decode is then skipped.
func (r *Registry) Resolve(name string, p []byte) (libarc.ArchiveFormat, error) {
	if len(p) > 0 {
		head := p
		if len(head) > MagicLen {
			head = head[:MagicLen]
		}

		if f, ok := r.ByMagic(head); ok {
			return f, nil
		}
	}

	if f, ok := r.ByName(name); ok {
		return f, nil
	}

	if len(p) > 0 {
		for _, f := range r.Formats() {
			if a, e := f.Decode(name, p); e == nil && a != nil {
				return f, nil
			}
		}
	}

	return nil, ErrorUnknownFormat.Error(fmt.Errorf("object %q matches no registered format", name))
}
