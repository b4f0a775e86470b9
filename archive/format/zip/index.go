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

package zip

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"sort"
	"strings"

	libarc "github.com/megfs/meg/archive"
	arccmp "github.com/megfs/meg/archive/compress"
)

const (
	sigLocal   = 0x04034b50
	sigCentral = 0x02014b50
	sigEOCD    = 0x06054b50

	lenLocal   = 30
	lenCentral = 46
	lenEOCD    = 22
)

// DecodeIndex parses the end-of-central-directory record and the central
// directory it points to out of a tail range of the archive. The given
// bytes must cover the whole central directory; a hint range that cut it
// short yields an index error so the caller can retry with a wider hint.
func (o arc) DecodeIndex(p []byte) (*libarc.Index, error) {
	eocd := -1

	for i := len(p) - lenEOCD; i >= 0; i-- {
		if binary.LittleEndian.Uint32(p[i:]) == sigEOCD {
			eocd = i
			break
		}
	}

	if eocd < 0 {
		return nil, libarc.ErrorIndexInvalid.Error(fmt.Errorf("no end of central directory record"))
	}

	var (
		count    = int(binary.LittleEndian.Uint16(p[eocd+10:]))
		cdSize   = int64(binary.LittleEndian.Uint32(p[eocd+12:]))
		cdOffset = int64(binary.LittleEndian.Uint32(p[eocd+16:]))
		cmtLen   = int(binary.LittleEndian.Uint16(p[eocd+20:]))

		cdStart = int64(eocd) - cdSize
	)

	if cdStart < 0 {
		return nil, libarc.ErrorIndexInvalid.Error(fmt.Errorf("central directory outside the fetched range"))
	}

	idx := libarc.NewIndex()

	if eocd+lenEOCD+cmtLen <= len(p) {
		idx.Comment = string(p[eocd+lenEOCD : eocd+lenEOCD+cmtLen])
	}

	type rec struct {
		path string
		meta libarc.SeekableMetadata
	}

	var (
		recs = make([]rec, 0, count)
		cur  = cdStart
	)

	for i := 0; i < count; i++ {
		if cur+lenCentral > int64(eocd) {
			return nil, libarc.ErrorIndexInvalid.Error(fmt.Errorf("truncated central directory record %d", i))
		}

		h := p[cur:]

		if binary.LittleEndian.Uint32(h) != sigCentral {
			return nil, libarc.ErrorIndexInvalid.Error(fmt.Errorf("bad central directory signature at record %d", i))
		}

		var (
			method   = binary.LittleEndian.Uint16(h[10:])
			crc      = binary.LittleEndian.Uint32(h[16:])
			uncSize  = int64(binary.LittleEndian.Uint32(h[24:]))
			nameLen  = int(binary.LittleEndian.Uint16(h[28:]))
			extraLen = int(binary.LittleEndian.Uint16(h[30:]))
			fcmtLen  = int(binary.LittleEndian.Uint16(h[32:]))
			localOff = int64(binary.LittleEndian.Uint32(h[42:]))
		)

		if cur+lenCentral+int64(nameLen) > int64(eocd) {
			return nil, libarc.ErrorIndexInvalid.Error(fmt.Errorf("truncated name at record %d", i))
		}

		recs = append(recs, rec{
			path: string(h[lenCentral : lenCentral+nameLen]),
			meta: libarc.SeekableMetadata{
				Metadata: libarc.Metadata{
					Compression:      methodKind(method),
					UncompressedSize: uncSize,
					CRC:              crcHex(crc),
				},
				Offset: localOff,
			},
		})

		cur += int64(lenCentral + nameLen + extraLen + fcmtLen)
	}

	// Each metadata range spans the local header plus the body: it runs
	// from this entry's local header to the next one, the last entry
	// ending at the central directory.
	offs := make([]int64, 0, len(recs)+1)
	for _, r := range recs {
		offs = append(offs, r.meta.Offset)
	}
	offs = append(offs, cdOffset)
	sort.Slice(offs, func(a, b int) bool { return offs[a] < offs[b] })

	for i := range recs {
		pos := sort.Search(len(offs), func(j int) bool { return offs[j] > recs[i].meta.Offset })
		if pos >= len(offs) {
			return nil, libarc.ErrorIndexInvalid.Error(fmt.Errorf("entry %q overlaps the central directory", recs[i].path))
		}

		recs[i].meta.Length = offs[pos] - recs[i].meta.Offset
		idx.Add(recs[i].path, recs[i].meta)
	}

	return idx, nil
}

// DecodeEntry decodes one entry out of the bytes of its metadata range,
// which start at the entry's local file header.
func (o arc) DecodeEntry(p []byte, kind libarc.CompressionKind, meta libarc.SeekableMetadata) (*libarc.Entry, error) {
	if len(p) < lenLocal {
		return nil, libarc.ErrorDecode.Error(fmt.Errorf("short local header: %d bytes", len(p)))
	}

	if binary.LittleEndian.Uint32(p) != sigLocal {
		return nil, libarc.ErrorMagicMismatch.Error(fmt.Errorf("bad local header signature"))
	}

	var (
		nameLen  = int(binary.LittleEndian.Uint16(p[26:]))
		extraLen = int(binary.LittleEndian.Uint16(p[28:]))
		start    = lenLocal + nameLen + extraLen
	)

	if start > len(p) {
		return nil, libarc.ErrorDecode.Error(fmt.Errorf("local header larger than entry range"))
	}

	name := string(p[lenLocal : lenLocal+nameLen])

	ent := &libarc.Entry{
		Path: strings.TrimSuffix(name, "/"),
		Kind: libarc.KindFile,
		Meta: meta.Metadata,
	}

	if strings.HasSuffix(name, "/") {
		ent.Kind = libarc.KindDirectory
		return ent, nil
	}

	var (
		e    error
		data []byte
	)

	switch {
	case kind.IsNone():
		if int64(start)+meta.UncompressedSize > int64(len(p)) {
			return nil, libarc.ErrorDecode.Error(fmt.Errorf("stored body larger than entry range"))
		}
		data = p[start : int64(start)+meta.UncompressedSize]

	case kind == libarc.CompressDeflate:
		if data, e = arccmp.Deflate().Decompress(p[start:]); e != nil {
			return nil, e
		}

	default:
		if c, ok := arccmp.ByKind(kind); ok {
			if data, e = c.Decompress(p[start:]); e != nil {
				return nil, e
			}
		} else {
			return nil, libarc.ErrorDecode.Error(fmt.Errorf("unsupported entry compression %q", kind))
		}
	}

	if meta.CRC != "" && crcHex(crc32.ChecksumIEEE(data)) != meta.CRC {
		return nil, libarc.ErrorDecode.Error(fmt.Errorf("crc mismatch for %q", name))
	}

	ent.Data = data
	ent.Size = int64(len(data))

	return ent, nil
}

func crcHex(v uint32) string {
	return fmt.Sprintf("%08x", v)
}
