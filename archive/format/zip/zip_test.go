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

package zip_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libarc "github.com/megfs/meg/archive"
	arczip "github.com/megfs/meg/archive/format/zip"
	liberr "github.com/megfs/meg/errors"
)

var _ = Describe("Zip Format", func() {
	var (
		f = arczip.New()

		files = map[string]string{
			"a/b.txt":   "hello\n",
			"a/c.txt":   "world",
			"README.md": "# docs",
			"empty.bin": "",
		}
	)

	Context("full decode", func() {
		It("should yield every entry with its path, size and bytes", func() {
			a, e := f.Decode("docs.zip", buildZip(files))

			Expect(e).ToNot(HaveOccurred())
			Expect(a.Entries).To(HaveLen(len(files)))

			for p, c := range files {
				ent, ok := a.Entry(p)
				Expect(ok).To(BeTrue(), p)
				Expect(ent.Kind).To(Equal(libarc.KindFile))
				Expect(ent.Size).To(Equal(int64(len(c))))
				Expect(string(ent.Data)).To(Equal(c))
			}
		})

		It("should reject bytes that are not a zip", func() {
			_, e := f.Decode("docs.zip", []byte("definitely not a zip"))
			Expect(e).To(HaveOccurred())
		})
	})

	Context("index decode from a tail range", func() {
		It("should list every path with valid bounds", func() {
			raw := buildZip(files)

			hints := f.IndexHintRanges(int64(len(raw)))
			Expect(hints).ToNot(BeEmpty())

			idx, e := f.DecodeIndex(tail(raw, hints[0].Len()))

			Expect(e).ToNot(HaveOccurred())
			Expect(idx.Len()).To(Equal(len(files)))

			for p := range files {
				m, ok := idx.Get(p)
				Expect(ok).To(BeTrue(), p)
				Expect(m.Offset).To(BeNumerically(">=", 0))
				Expect(m.Offset + m.Length).To(BeNumerically("<=", int64(len(raw))))
			}
		})

		It("should fail on a hint that misses the central directory", func() {
			raw := buildZip(files)

			_, e := f.DecodeIndex(raw[:8])
			Expect(e).To(HaveOccurred())
		})
	})

	Context("ranged entry decode", func() {
		It("should return the same bytes as the full decode for every entry", func() {
			raw := buildZip(files)

			a, e := f.Decode("docs.zip", raw)
			Expect(e).ToNot(HaveOccurred())

			idx, e := f.DecodeIndex(tail(raw, 64<<10))
			Expect(e).ToNot(HaveOccurred())

			idx.Walk(func(p string, m libarc.SeekableMetadata) bool {
				rng := m.Range()
				ent, de := f.DecodeEntry(raw[rng.Start:rng.End+1], m.Compression, m)

				Expect(de).ToNot(HaveOccurred(), p)

				full, ok := a.Entry(p)
				Expect(ok).To(BeTrue(), p)
				Expect(ent.Data).To(Equal(full.Data), p)

				return true
			})
		})

		It("should surface a magic mismatch on bytes that are not a local header", func() {
			m := libarc.SeekableMetadata{
				Metadata: libarc.Metadata{Compression: libarc.CompressNone},
				Offset:   0,
				Length:   64,
			}

			_, e := f.DecodeEntry(make([]byte, 64), m.Compression, m)

			Expect(e).To(HaveOccurred())
			Expect(liberr.Has(e, libarc.ErrorMagicMismatch)).To(BeTrue())
		})
	})
})
