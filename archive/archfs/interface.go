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

// Package archfs projects a decoded archive as a POSIX-style read-only
// file system. Mutating operations do not exist on the interface; symlink
// resolution is bounded to keep cyclic chains from looping.
package archfs

import (
	"io/fs"

	libarc "github.com/megfs/meg/archive"
)

// EntryType is the POSIX-style type of a path in the view.
type EntryType uint8

const (
	TypeNotFound EntryType = iota
	TypeFile
	TypeDirectory
	TypeLink
	TypePipe
	TypeSocket
)

func (t EntryType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDirectory:
		return "directory"
	case TypeLink:
		return "link"
	case TypePipe:
		return "pipe"
	case TypeSocket:
		return "unix-socket"
	default:
		return "not-found"
	}
}

// MaxLinkDepth bounds symlink resolution; a chain longer than this is a
// loop and resolves as not found.
const MaxLinkDepth = 40

// FS is the read-only view over one archive. Absolute paths map by
// stripping the leading slash.
type FS interface {
	// Stat returns the metadata of a path; implicit directories get a
	// synthetic stat aggregated from their children.
	Stat(path string) (fs.FileInfo, error)
	// Type returns the POSIX-style type of a path, dereferencing links
	// when followLinks is set. A link loop reports TypeNotFound.
	Type(path string, followLinks bool) EntryType
	// List yields the entries within a path, synthesizing directory
	// entries for immediate sub-paths without an explicit entry when not
	// recursive, and dereferencing links when followLinks is set.
	List(path string, recursive, followLinks bool) ([]libarc.Entry, error)
	// Read returns the data bytes of a file entry, following links.
	Read(path string) ([]byte, error)
	// ResolveLink resolves one link entry to its normalized target path.
	ResolveLink(path string) (string, error)
}
