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

package compress

import (
	"bytes"

	bz2 "github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	libarc "github.com/megfs/meg/archive"
)

func Gzip() libarc.CompressionFormat {
	return codec{
		kind: libarc.CompressGzip,
		exts: []string{".gz"},
		cts:  []string{"application/gzip", "application/x-gzip"},
		mgc:  []byte{0x1f, 0x8b},
		dec: func(p []byte) ([]byte, error) {
			return readAll(gzip.NewReader(bytes.NewReader(p)))
		},
	}
}

func Bzip2() libarc.CompressionFormat {
	return codec{
		kind: libarc.CompressBzip2,
		exts: []string{".bz2"},
		cts:  []string{"application/x-bzip2"},
		mgc:  []byte{'B', 'Z', 'h'},
		dec: func(p []byte) ([]byte, error) {
			return readAll(bz2.NewReader(bytes.NewReader(p), nil))
		},
	}
}

func Xz() libarc.CompressionFormat {
	return codec{
		kind: libarc.CompressXz,
		exts: []string{".xz"},
		cts:  []string{"application/x-xz"},
		mgc:  []byte{0xfd, '7', 'z', 'X', 'Z', 0x00},
		dec: func(p []byte) ([]byte, error) {
			return readAll(xz.NewReader(bytes.NewReader(p)))
		},
	}
}

func Lz4() libarc.CompressionFormat {
	return codec{
		kind: libarc.CompressLz4,
		exts: []string{".lz4"},
		cts:  []string{"application/x-lz4"},
		mgc:  []byte{0x04, 0x22, 0x4d, 0x18},
		dec: func(p []byte) ([]byte, error) {
			return readAll(lz4.NewReader(bytes.NewReader(p)), nil)
		},
	}
}

func Zstd() libarc.CompressionFormat {
	return codec{
		kind: libarc.CompressZstd,
		exts: []string{".zst"},
		cts:  []string{"application/zstd"},
		mgc:  []byte{0x28, 0xb5, 0x2f, 0xfd},
		dec: func(p []byte) ([]byte, error) {
			d, e := zstd.NewReader(nil)
			if e != nil {
				return nil, e
			}
			defer d.Close()
			return d.DecodeAll(p, nil)
		},
	}
}

// Deflate decodes a raw deflate stream; it has no magic and is resolved
// only through a container index, never by the registry.
func Deflate() libarc.CompressionFormat {
	return codec{
		kind: libarc.CompressDeflate,
		exts: nil,
		cts:  []string{"application/x-deflate"},
		mgc:  nil,
		dec: func(p []byte) ([]byte, error) {
			r := flate.NewReader(bytes.NewReader(p))
			defer func() {
				_ = r.Close()
			}()
			return readAll(r, nil)
		},
	}
}

// All returns the codecs a DualPart container can compose with.
func All() []libarc.CompressionFormat {
	return []libarc.CompressionFormat{
		Gzip(),
		Bzip2(),
		Xz(),
		Lz4(),
		Zstd(),
	}
}

// ByKind returns the codec decoding the given kind.
func ByKind(k libarc.CompressionKind) (libarc.CompressionFormat, bool) {
	switch k {
	case libarc.CompressGzip:
		return Gzip(), true
	case libarc.CompressBzip2:
		return Bzip2(), true
	case libarc.CompressXz:
		return Xz(), true
	case libarc.CompressLz4:
		return Lz4(), true
	case libarc.CompressZstd:
		return Zstd(), true
	case libarc.CompressDeflate:
		return Deflate(), true
	default:
		return nil, false
	}
}
