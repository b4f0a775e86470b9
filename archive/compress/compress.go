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

// Package compress implements the compression layer codecs: byte-in /
// byte-out decoders, each carrying its magic bytes, extensions and content
// types so the registry can resolve them.
package compress

import (
	"io"

	libarc "github.com/megfs/meg/archive"
)

type codec struct {
	kind libarc.CompressionKind
	exts []string
	cts  []string
	mgc  []byte
	dec  func(p []byte) ([]byte, error)
}

func (o codec) Name() string {
	return o.kind.String()
}

func (o codec) Extensions() []string {
	return o.exts
}

func (o codec) ContentTypes() []string {
	return o.cts
}

func (o codec) Magic() []byte {
	return o.mgc
}

func (o codec) Kind() libarc.CompressionKind {
	return o.kind
}

func (o codec) Decompress(p []byte) ([]byte, error) {
	b, e := o.dec(p)

	if e != nil {
		return nil, libarc.ErrorDecode.Error(e)
	}

	return b, nil
}

func readAll(r io.Reader, e error) ([]byte, error) {
	if e != nil {
		return nil, e
	}

	return io.ReadAll(r)
}
