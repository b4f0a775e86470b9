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

// Format is the common surface of every archive or compression codec.
// Magic returns the byte prefix identifying the format, or nil when the
// format has no prefix magic; codecs whose magic sits at a fixed non-zero
// offset implement HeaderMatcher instead.
type Format interface {
	Name() string
	Extensions() []string
	ContentTypes() []string
	Magic() []byte
}

// HeaderMatcher is an optional probe for formats whose signature is not a
// plain prefix (tar keeps its magic at offset 257).
type HeaderMatcher interface {
	MatchHeader(head []byte) bool
}

// CompressionFormat decodes a compressed byte stream.
type CompressionFormat interface {
	Format

	Kind() CompressionKind
	Decompress(p []byte) ([]byte, error)
}

// ArchiveFormat decodes raw bytes into an Archive.
type ArchiveFormat interface {
	Format

	Decode(name string, p []byte) (*Archive, error)
}

// SeekableArchiveFormat is an archive format whose entries can be resolved
// through byte-range reads against a central index.
type SeekableArchiveFormat interface {
	ArchiveFormat

	// IndexHintRanges returns the byte ranges likely to contain the
	// central index, most likely first.
	IndexHintRanges(totalLen int64) []Range
	// DecodeIndex decodes the central index from the bytes of a hint
	// range. The range must cover the whole index region.
	DecodeIndex(p []byte) (*Index, error)
	// DecodeEntry decodes one entry from the bytes of its metadata range.
	DecodeEntry(p []byte, kind CompressionKind, meta SeekableMetadata) (*Entry, error)
}

// DualPartArchiveFormat composes a compression layer over a container
// layer, the compression applied first on decode.
type DualPartArchiveFormat interface {
	ArchiveFormat

	CompressionLayer() CompressionFormat
	ContainerLayer() ArchiveFormat
}

// AsSeekable probes a format for per-entry range access.
func AsSeekable(f Format) (SeekableArchiveFormat, bool) {
	s, ok := f.(SeekableArchiveFormat)
	return s, ok
}

// AsDualPart probes a format for a compression layer.
func AsDualPart(f Format) (DualPartArchiveFormat, bool) {
	d, ok := f.(DualPartArchiveFormat)
	return d, ok
}

// MatchMagic reports whether head carries the format signature, using the
// HeaderMatcher probe when implemented and the magic prefix otherwise.
func MatchMagic(f Format, head []byte) bool {
	if m, ok := f.(HeaderMatcher); ok {
		return m.MatchHeader(head)
	}

	mgc := f.Magic()
	if len(mgc) == 0 || len(head) < len(mgc) {
		return false
	}

	for i := range mgc {
		if head[i] != mgc[i] {
			return false
		}
	}

	return true
}
