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

// Package zip implements the zip container as a seekable archive format:
// full decode through the standard reader, central-directory index decode
// from a tail byte range, and per-entry decode from a ranged read.
package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"io/fs"
	"strings"

	libarc "github.com/megfs/meg/archive"
)

const (
	// tailHint is the first index hint size, the usual upper bound of an
	// end-of-central-directory region with comment.
	tailHint = 64 << 10
	// tailHintWide is the fallback hint for archives whose central
	// directory outgrows the first hint.
	tailHintWide = 1 << 20
)

type arc struct{}

func New() libarc.SeekableArchiveFormat {
	return arc{}
}

func (o arc) Name() string {
	return "zip"
}

func (o arc) Extensions() []string {
	return []string{".zip"}
}

func (o arc) ContentTypes() []string {
	return []string{"application/zip", "application/x-zip-compressed"}
}

func (o arc) Magic() []byte {
	return []byte{0x50, 0x4b, 0x03, 0x04}
}

func (o arc) Decode(name string, p []byte) (*libarc.Archive, error) {
	z, e := zip.NewReader(bytes.NewReader(p), int64(len(p)))

	if e != nil {
		return nil, libarc.ErrorDecode.Error(e)
	}

	res := &libarc.Archive{
		Name:    name,
		Format:  o.Name(),
		Comment: z.Comment,
		Entries: make([]libarc.Entry, 0, len(z.File)),
	}

	for _, f := range z.File {
		ent, err := o.decodeFile(f)
		if err != nil {
			return nil, err
		}
		res.Entries = append(res.Entries, ent)
	}

	if e = res.Validate(); e != nil {
		return nil, e
	}

	return res, nil
}

func (o arc) decodeFile(f *zip.File) (libarc.Entry, error) {
	ent := libarc.Entry{
		Path:     strings.TrimSuffix(f.Name, "/"),
		Kind:     libarc.KindFile,
		Mode:     f.Mode().Perm(),
		Modified: f.Modified,
		Meta: libarc.Metadata{
			Compression:      methodKind(f.Method),
			UncompressedSize: int64(f.UncompressedSize64),
			CRC:              crcHex(f.CRC32),
		},
	}

	switch {
	case strings.HasSuffix(f.Name, "/") || f.Mode().IsDir():
		ent.Kind = libarc.KindDirectory
		return ent, nil

	case f.Mode()&fs.ModeSymlink != 0:
		ent.Kind = libarc.KindSymlink
		ent.LinkEncoding = libarc.DefaultLinkEncoding
	}

	r, e := f.Open()
	if e != nil {
		return ent, libarc.ErrorDecode.Error(e)
	}

	defer func() {
		_ = r.Close()
	}()

	if ent.Data, e = io.ReadAll(r); e != nil {
		return ent, libarc.ErrorDecode.Error(e)
	}

	ent.Size = int64(len(ent.Data))

	if ent.Kind == libarc.KindSymlink {
		ent.Link = strings.TrimRight(string(ent.Data), "\x00\r\n")
	}

	return ent, nil
}

func (o arc) IndexHintRanges(totalLen int64) []libarc.Range {
	if totalLen <= 0 {
		return nil
	}

	res := make([]libarc.Range, 0, 2)

	first := totalLen - tailHint
	if first < 0 {
		first = 0
	}

	res = append(res, libarc.Range{Start: first, End: totalLen - 1})

	if wide := totalLen - tailHintWide; totalLen > tailHint {
		if wide < 0 {
			wide = 0
		}
		res = append(res, libarc.Range{Start: wide, End: totalLen - 1})
	}

	return res
}

func methodKind(m uint16) libarc.CompressionKind {
	if m == zip.Store {
		return libarc.CompressNone
	}

	return libarc.CompressDeflate
}
