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

// Package targz implements the tar container and its dual-part
// compositions: a compression codec applied first, the tar container
// decoded from the inflated bytes (tar.gz, tar.bz2, tar.xz, tar.lz4,
// tar.zst).
package targz

import (
	"archive/tar"
	"bytes"
	"errors"
	"io"
	"strings"

	libarc "github.com/megfs/meg/archive"
)

type container struct{}

// Tar returns the plain tar container format.
func Tar() libarc.ArchiveFormat {
	return container{}
}

func (o container) Name() string {
	return "tar"
}

func (o container) Extensions() []string {
	return []string{".tar"}
}

func (o container) ContentTypes() []string {
	return []string{"application/x-tar", "application/tar"}
}

func (o container) Magic() []byte {
	return nil
}

// MatchHeader probes the ustar magic at its fixed offset into the first
// header block.
func (o container) MatchHeader(head []byte) bool {
	if len(head) < 263 {
		return false
	}

	return bytes.Equal(head[257:262], []byte("ustar"))
}

func (o container) Decode(name string, p []byte) (*libarc.Archive, error) {
	var (
		r = tar.NewReader(bytes.NewReader(p))

		res = &libarc.Archive{
			Name:    name,
			Format:  o.Name(),
			Entries: make([]libarc.Entry, 0),
		}
	)

	for {
		h, e := r.Next()

		if errors.Is(e, io.EOF) {
			break
		} else if e != nil {
			return nil, libarc.ErrorDecode.Error(e)
		}

		ent := libarc.Entry{
			Path:     strings.TrimSuffix(libarc.CleanPath(h.Name), "/"),
			Kind:     entryKind(h.Typeflag),
			Mode:     h.FileInfo().Mode().Perm(),
			Modified: h.ModTime,
			Accessed: h.AccessTime,
			Created:  h.ChangeTime,
			Meta: libarc.Metadata{
				Compression: libarc.CompressNone,
			},
		}

		switch ent.Kind {
		case libarc.KindFile:
			b, err := io.ReadAll(r)
			if err != nil {
				return nil, libarc.ErrorDecode.Error(err)
			}
			ent.Data = b
			ent.Size = int64(len(b))
			ent.Meta.UncompressedSize = ent.Size

		case libarc.KindSymlink, libarc.KindHardlink:
			ent.Link = h.Linkname
			ent.LinkEncoding = libarc.DefaultLinkEncoding
			ent.Data = []byte(h.Linkname)
		}

		res.Entries = append(res.Entries, ent)
	}

	if e := res.Validate(); e != nil {
		return nil, e
	}

	return res, nil
}

func entryKind(flag byte) libarc.EntryKind {
	switch flag {
	case tar.TypeDir:
		return libarc.KindDirectory
	case tar.TypeSymlink:
		return libarc.KindSymlink
	case tar.TypeLink:
		return libarc.KindHardlink
	case tar.TypeFifo:
		return libarc.KindFifo
	case tar.TypeChar:
		return libarc.KindCharDevice
	case tar.TypeBlock:
		return libarc.KindBlockDevice
	default:
		return libarc.KindFile
	}
}
