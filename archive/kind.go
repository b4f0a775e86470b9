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

package archive

// EntryKind is the kind of an archive entry, following the POSIX kinds a
// tar container can hold.
type EntryKind uint8

const (
	KindFile EntryKind = iota
	KindDirectory
	KindSymlink
	KindHardlink
	KindFifo
	KindCharDevice
	KindBlockDevice
	KindSocket
)

func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symbolic-link"
	case KindHardlink:
		return "hard-link"
	case KindFifo:
		return "fifo"
	case KindCharDevice:
		return "character-device"
	case KindBlockDevice:
		return "block-device"
	case KindSocket:
		return "socket"
	default:
		return "file"
	}
}

func (k EntryKind) IsFile() bool {
	return k == KindFile
}

func (k EntryKind) IsDir() bool {
	return k == KindDirectory
}

func (k EntryKind) IsLink() bool {
	return k == KindSymlink || k == KindHardlink
}

// CompressionKind tags the compression applied to a byte stream. The set is
// open: any user-declared tag is a valid kind.
type CompressionKind string

const (
	CompressNone    CompressionKind = "none"
	CompressGzip    CompressionKind = "gzip"
	CompressBzip2   CompressionKind = "bzip2"
	CompressXz      CompressionKind = "xz"
	CompressZstd    CompressionKind = "zstd"
	CompressLzma    CompressionKind = "lzma"
	CompressLz4     CompressionKind = "lz4"
	CompressSnappy  CompressionKind = "snappy"
	CompressLzip    CompressionKind = "lzip"
	CompressLzop    CompressionKind = "lzop"
	CompressLZW     CompressionKind = "compress"
	CompressDeflate CompressionKind = "deflate"
	CompressBrotli  CompressionKind = "brotli"
)

func (k CompressionKind) IsNone() bool {
	return k == "" || k == CompressNone
}

func (k CompressionKind) String() string {
	if k == "" {
		return string(CompressNone)
	}

	return string(k)
}
