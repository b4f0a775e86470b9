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

package targz

import (
	"fmt"

	libarc "github.com/megfs/meg/archive"
	arccmp "github.com/megfs/meg/archive/compress"
)

type dual struct {
	cmp  libarc.CompressionFormat
	cnt  libarc.ArchiveFormat
	exts []string
	cts  []string
}

// NewDual composes a compression layer over a container layer. The dual
// format carries the compression layer's magic and both layers' content
// types.
func NewDual(cmp libarc.CompressionFormat, cnt libarc.ArchiveFormat, exts ...string) libarc.DualPartArchiveFormat {
	cts := make([]string, 0, len(cmp.ContentTypes())+len(cnt.ContentTypes()))
	cts = append(cts, cmp.ContentTypes()...)
	cts = append(cts, cnt.ContentTypes()...)

	return dual{
		cmp:  cmp,
		cnt:  cnt,
		exts: exts,
		cts:  cts,
	}
}

// Gzip returns the default tar.gz dual-part format.
func Gzip() libarc.DualPartArchiveFormat {
	return NewDual(arccmp.Gzip(), Tar(), ".tar.gz", ".tgz")
}

// All returns the tar compositions over every known compression codec.
func All() []libarc.ArchiveFormat {
	return []libarc.ArchiveFormat{
		Gzip(),
		NewDual(arccmp.Bzip2(), Tar(), ".tar.bz2", ".tbz2"),
		NewDual(arccmp.Xz(), Tar(), ".tar.xz", ".txz"),
		NewDual(arccmp.Lz4(), Tar(), ".tar.lz4"),
		NewDual(arccmp.Zstd(), Tar(), ".tar.zst", ".tzst"),
		Tar(),
	}
}

func (o dual) Name() string {
	return o.cnt.Name() + "+" + o.cmp.Name()
}

func (o dual) Extensions() []string {
	return o.exts
}

func (o dual) ContentTypes() []string {
	return o.cts
}

func (o dual) Magic() []byte {
	return o.cmp.Magic()
}

func (o dual) CompressionLayer() libarc.CompressionFormat {
	return o.cmp
}

func (o dual) ContainerLayer() libarc.ArchiveFormat {
	return o.cnt
}

func (o dual) Decode(name string, p []byte) (*libarc.Archive, error) {
	b, e := o.cmp.Decompress(p)

	if e != nil {
		return nil, e
	}

	// The inner magic must hold on the inflated bytes: a mismatch means
	// the object is corrupted, not another format.
	if m, ok := o.cnt.(libarc.HeaderMatcher); ok && !m.MatchHeader(b) {
		return nil, libarc.ErrorMagicMismatch.Error(fmt.Errorf("inflated bytes are not %s", o.cnt.Name()))
	} else if !ok && len(o.cnt.Magic()) > 0 && !libarc.MatchMagic(o.cnt, b) {
		return nil, libarc.ErrorMagicMismatch.Error(fmt.Errorf("inflated bytes are not %s", o.cnt.Name()))
	}

	res, err := o.cnt.Decode(name, b)

	if err != nil {
		return nil, err
	}

	res.Format = o.Name()

	for i := range res.Entries {
		res.Entries[i].Meta.Compression = o.cmp.Kind()
	}

	return res, nil
}
