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

// Package archive holds the in-memory model of a decoded archive (entries,
// metadata, central index) and the contracts a format codec implements to
// produce that model.
package archive

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"
)

// Range is a closed byte interval [Start, End].
type Range struct {
	Start int64
	End   int64
}

// Header renders the interval as an HTTP Range header value.
func (r Range) Header() string {
	return fmt.Sprintf("bytes=%d-%d", r.Start, r.End)
}

func (r Range) Len() int64 {
	return r.End - r.Start + 1
}

// Metadata describes how an entry body is stored.
type Metadata struct {
	Compression CompressionKind
	// UncompressedSize is the decoded byte length, 0 when unknown.
	UncompressedSize int64
	// CRC is a lowercase hex checksum, zero-padded to 8 chars when
	// derived from CRC-32. Empty when unknown.
	CRC string
}

// SeekableMetadata locates the compressed body of an entry within the
// archive bytes: the closed range is [Offset, Offset+Length-1].
type SeekableMetadata struct {
	Metadata

	Offset int64
	Length int64
}

func (m SeekableMetadata) Range() Range {
	return Range{Start: m.Offset, End: m.Offset + m.Length - 1}
}

const DefaultLinkEncoding = "utf-8"

type Entry struct {
	// Path is POSIX-style, relative, no leading slash, unique per archive.
	Path string
	Size int64
	Kind EntryKind
	Mode fs.FileMode

	Modified time.Time
	Accessed time.Time
	Created  time.Time

	// Data holds the decoded bytes; empty for non-file kinds except links,
	// whose data may hold the target path.
	Data []byte

	// Link is the target path for link kinds.
	Link string
	// LinkEncoding is the text encoding of Data for link kinds.
	LinkEncoding string

	Meta Metadata
}

func (e Entry) Name() string {
	return path.Base(e.Path)
}

// LinkTarget returns the link destination: the Link field when set,
// otherwise the entry data decoded as text with trailing space trimmed.
func (e Entry) LinkTarget() string {
	if e.Link != "" {
		return e.Link
	}

	return strings.TrimRight(string(e.Data), " \t\r\n\x00")
}

type Archive struct {
	Name    string
	Format  string
	Comment string
	Entries []Entry
}

// Entry returns the entry with the given path.
func (a *Archive) Entry(p string) (Entry, bool) {
	for _, e := range a.Entries {
		if e.Path == p {
			return e, true
		}
	}

	return Entry{}, false
}

func (a *Archive) Empty() bool {
	return a == nil || len(a.Entries) == 0
}

// Validate checks the model invariants a decoder must uphold: unique paths
// and zero-size bodies for directories.
func (a *Archive) Validate() error {
	seen := make(map[string]struct{}, len(a.Entries))

	for _, e := range a.Entries {
		if _, ok := seen[e.Path]; ok {
			return ErrorEntryDuplicate.Error(fmt.Errorf("path %q", e.Path))
		}
		seen[e.Path] = struct{}{}

		if e.Kind == KindDirectory && (e.Size != 0 || len(e.Data) != 0) {
			return ErrorEntryInvalid.Error(fmt.Errorf("directory %q carries data", e.Path))
		}
	}

	return nil
}

// Index maps entry paths to their byte location within a seekable archive.
// Iteration order is insertion order, as produced by the index decoder.
type Index struct {
	Comment string

	paths []string
	metas map[string]SeekableMetadata
}

func NewIndex() *Index {
	return &Index{
		metas: make(map[string]SeekableMetadata),
	}
}

func (i *Index) Add(p string, m SeekableMetadata) {
	if _, ok := i.metas[p]; !ok {
		i.paths = append(i.paths, p)
	}

	i.metas[p] = m
}

func (i *Index) Get(p string) (SeekableMetadata, bool) {
	m, ok := i.metas[p]
	return m, ok
}

func (i *Index) Len() int {
	return len(i.paths)
}

func (i *Index) Paths() []string {
	res := make([]string, len(i.paths))
	copy(res, i.paths)
	return res
}

func (i *Index) Walk(fct func(p string, m SeekableMetadata) bool) {
	for _, p := range i.paths {
		if !fct(p, i.metas[p]) {
			return
		}
	}
}

// SeekableArchive is an archive resolved together with its central index.
type SeekableArchive struct {
	Archive

	Index *Index
}

// CleanPath normalizes a user-supplied inner path to the entry-path form:
// POSIX separators, no leading slash, no parent escapes.
func CleanPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}
