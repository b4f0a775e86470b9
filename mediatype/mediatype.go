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

// Package mediatype resolves content types from file names and content
// bytes. The default resolver combines the platform extension table with
// content sniffing.
package mediatype

import (
	"mime"
	"path"
	"strings"

	mtp "github.com/gabriel-vasile/mimetype"
)

// Resolver maps names and bytes to content types.
type Resolver interface {
	// ByName resolves a content type from the file name extension.
	ByName(name string) (string, bool)
	// ByContent sniffs a content type from leading bytes.
	ByContent(p []byte) (string, bool)
}

type rsv struct{}

func New() Resolver {
	return rsv{}
}

func (o rsv) ByName(name string) (string, bool) {
	ext := strings.ToLower(path.Ext(name))

	if ext == "" {
		return "", false
	}

	if ct, ok := extFallback(ext); ok {
		return ct, true
	}

	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct, true
	}

	return "", false
}

func (o rsv) ByContent(p []byte) (string, bool) {
	if len(p) == 0 {
		return "", false
	}

	m := mtp.Detect(p)

	if m == nil {
		return "", false
	}

	// the sniffer never fails, it bottoms out on the generic binary
	// type: that answer is no answer
	if ct := m.String(); ct != "application/octet-stream" {
		return ct, true
	}

	return "", false
}

// extFallback pins a few archive extensions to fixed content types; it is
// consulted before the platform table.
func extFallback(ext string) (string, bool) {
	switch ext {
	case ".tgz":
		return "application/gzip", true
	case ".bz2", ".tbz2":
		return "application/x-bzip2", true
	case ".xz", ".txz":
		return "application/x-xz", true
	case ".zst", ".tzst":
		return "application/zstd", true
	case ".lz4":
		return "application/x-lz4", true
	default:
		return "", false
	}
}
