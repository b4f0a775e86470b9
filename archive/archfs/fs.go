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

package archfs

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	libarc "github.com/megfs/meg/archive"
)

type view struct {
	ent map[string]libarc.Entry
	ord []string
}

// New builds the read-only view over a decoded archive.
func New(a *libarc.Archive) FS {
	v := &view{
		ent: make(map[string]libarc.Entry, len(a.Entries)),
		ord: make([]string, 0, len(a.Entries)),
	}

	for _, e := range a.Entries {
		p := libarc.CleanPath(e.Path)
		if p == "" {
			continue
		}
		if _, ok := v.ent[p]; !ok {
			v.ord = append(v.ord, p)
		}
		v.ent[p] = e
	}

	sort.Strings(v.ord)

	return v
}

func (v *view) lookup(p string) (libarc.Entry, bool) {
	e, ok := v.ent[libarc.CleanPath(p)]
	return e, ok
}

// isImplicitDir reports whether p is a strict prefix of some entry path at
// a segment boundary.
func (v *view) isImplicitDir(p string) bool {
	p = libarc.CleanPath(p)

	if p == "" {
		return len(v.ord) > 0
	}

	i := sort.SearchStrings(v.ord, p+"/")
	return i < len(v.ord) && strings.HasPrefix(v.ord[i], p+"/")
}

func (v *view) Stat(p string) (fs.FileInfo, error) {
	p = libarc.CleanPath(p)

	if e, ok := v.lookup(p); ok {
		return info{e: e}, nil
	}

	if !v.isImplicitDir(p) {
		return nil, ErrorNotFound.Error(fmt.Errorf("path %q", p))
	}

	syn := libarc.Entry{
		Path: p,
		Kind: libarc.KindDirectory,
		Mode: 0o755,
	}

	prefix := ""
	if p != "" {
		prefix = p + "/"
	}

	var size int64
	var mod, acc time.Time

	for _, k := range v.ord {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		c := v.ent[k]
		size += c.Size
		if c.Modified.After(mod) {
			mod = c.Modified
		}
		if c.Accessed.After(acc) {
			acc = c.Accessed
		}
	}

	syn.Size = size
	syn.Modified = mod
	syn.Accessed = acc

	return info{e: syn, dirSize: size}, nil
}

func (v *view) Type(p string, followLinks bool) EntryType {
	t, _, err := v.typeAt(p, followLinks, 0)

	if err != nil {
		return TypeNotFound
	}

	return t
}

func (v *view) typeAt(p string, follow bool, depth int) (EntryType, libarc.Entry, error) {
	if depth > MaxLinkDepth {
		return TypeNotFound, libarc.Entry{}, ErrorLoopDetected.Error(fmt.Errorf("symlink chain at %q exceeds %d hops", p, MaxLinkDepth))
	}

	e, ok := v.lookup(p)

	if !ok {
		if v.isImplicitDir(p) {
			return TypeDirectory, libarc.Entry{Path: libarc.CleanPath(p), Kind: libarc.KindDirectory, Mode: 0o755}, nil
		}
		return TypeNotFound, libarc.Entry{}, ErrorNotFound.Error(fmt.Errorf("path %q", p))
	}

	switch e.Kind {
	case libarc.KindDirectory:
		return TypeDirectory, e, nil
	case libarc.KindSymlink, libarc.KindHardlink:
		if !follow {
			return TypeLink, e, nil
		}
		return v.typeAt(linkTarget(e), true, depth+1)
	case libarc.KindFifo:
		return TypePipe, e, nil
	case libarc.KindSocket:
		return TypeSocket, e, nil
	default:
		return TypeFile, e, nil
	}
}

func (v *view) List(p string, recursive, followLinks bool) ([]libarc.Entry, error) {
	p = libarc.CleanPath(p)

	if p != "" && !v.isImplicitDir(p) {
		if e, ok := v.lookup(p); !ok {
			return nil, ErrorNotFound.Error(fmt.Errorf("path %q", p))
		} else if e.Kind != libarc.KindDirectory {
			return nil, ErrorNotDirectory.Error(fmt.Errorf("path %q is a %s", p, e.Kind))
		}
	}

	prefix := ""
	if p != "" {
		prefix = p + "/"
	}

	var (
		res  = make([]libarc.Entry, 0)
		seen = make(map[string]struct{})
	)

	for _, k := range v.ord {
		if !strings.HasPrefix(k, prefix) {
			continue
		}

		rel := strings.TrimPrefix(k, prefix)

		if !recursive {
			if i := strings.IndexByte(rel, '/'); i >= 0 {
				// implicit immediate sub-directory
				d := prefix + rel[:i]
				if _, ok := seen[d]; ok {
					continue
				}
				seen[d] = struct{}{}
				if _, ok := v.ent[d]; ok {
					continue
				}
				res = append(res, libarc.Entry{Path: d, Kind: libarc.KindDirectory, Mode: 0o755})
				continue
			}
		}

		e := v.ent[k]

		if followLinks && e.Kind.IsLink() {
			if _, t, err := v.typeAt(k, true, 0); err == nil {
				t.Path = k
				e = t
			}
		}

		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			res = append(res, e)
		}
	}

	return res, nil
}

func (v *view) Read(p string) ([]byte, error) {
	t, e, err := v.typeAt(p, true, 0)

	if err != nil {
		return nil, err
	}

	if t != TypeFile {
		return nil, ErrorNotFile.Error(fmt.Errorf("path %q is a %s", p, t))
	}

	return e.Data, nil
}

func (v *view) ResolveLink(p string) (string, error) {
	e, ok := v.lookup(p)

	if !ok {
		return "", ErrorNotFound.Error(fmt.Errorf("path %q", p))
	}

	if !e.Kind.IsLink() {
		return "", ErrorNotLink.Error(fmt.Errorf("path %q is a %s", p, e.Kind))
	}

	return linkTarget(e), nil
}

// linkTarget joins the entry target against the entry's directory and
// normalizes, so relative targets resolve within the archive.
func linkTarget(e libarc.Entry) string {
	t := e.LinkTarget()

	if strings.HasPrefix(t, "/") {
		return libarc.CleanPath(t)
	}

	return libarc.CleanPath(path.Join(path.Dir(e.Path), t))
}

type info struct {
	e       libarc.Entry
	dirSize int64
}

func (i info) Name() string {
	return i.e.Name()
}

func (i info) Size() int64 {
	return i.e.Size
}

func (i info) Mode() fs.FileMode {
	m := i.e.Mode

	switch i.e.Kind {
	case libarc.KindDirectory:
		m |= fs.ModeDir
	case libarc.KindSymlink:
		m |= fs.ModeSymlink
	case libarc.KindFifo:
		m |= fs.ModeNamedPipe
	case libarc.KindSocket:
		m |= fs.ModeSocket
	case libarc.KindCharDevice:
		m |= fs.ModeDevice | fs.ModeCharDevice
	case libarc.KindBlockDevice:
		m |= fs.ModeDevice
	}

	return m
}

func (i info) ModTime() time.Time {
	return i.e.Modified
}

func (i info) IsDir() bool {
	return i.e.Kind == libarc.KindDirectory
}

func (i info) Sys() any {
	return i.e
}
