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

package targz_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libarc "github.com/megfs/meg/archive"
	arctgz "github.com/megfs/meg/archive/format/targz"
	liberr "github.com/megfs/meg/errors"
)

var _ = Describe("TarGz Format", func() {
	var (
		files = map[string]string{
			"README":      "MEG",
			"src/main.go": "package main",
		}
		links = map[string]string{
			"LATEST": "README",
		}
	)

	Context("plain tar container", func() {
		It("should decode files and symlinks with their kinds", func() {
			a, e := arctgz.Tar().Decode("src.tar", buildTar(files, links))

			Expect(e).ToNot(HaveOccurred())

			ent, ok := a.Entry("README")
			Expect(ok).To(BeTrue())
			Expect(ent.Kind).To(Equal(libarc.KindFile))
			Expect(string(ent.Data)).To(Equal("MEG"))

			lnk, ok := a.Entry("LATEST")
			Expect(ok).To(BeTrue())
			Expect(lnk.Kind).To(Equal(libarc.KindSymlink))
			Expect(lnk.Link).To(Equal("README"))
			// the link data round-trips to the target
			Expect(lnk.LinkTarget()).To(Equal(lnk.Link))
		})

		It("should match the ustar magic at its fixed offset", func() {
			raw := buildTar(files, nil)

			m, ok := arctgz.Tar().(libarc.HeaderMatcher)
			Expect(ok).To(BeTrue())
			Expect(m.MatchHeader(raw)).To(BeTrue())
			Expect(m.MatchHeader(raw[1:])).To(BeFalse())
		})
	})

	Context("dual-part tar.gz", func() {
		It("should carry the compression layer magic", func() {
			Expect(arctgz.Gzip().Magic()).To(Equal([]byte{0x1f, 0x8b}))
		})

		It("should decompress then decode the container", func() {
			a, e := arctgz.Gzip().Decode("src.tar.gz", gzipBytes(buildTar(files, nil)))

			Expect(e).ToNot(HaveOccurred())
			Expect(a.Entries).To(HaveLen(len(files)))

			ent, ok := a.Entry("src/main.go")
			Expect(ok).To(BeTrue())
			Expect(string(ent.Data)).To(Equal("package main"))
			Expect(ent.Meta.Compression).To(Equal(libarc.CompressGzip))
		})

		It("should surface a magic mismatch when the inflated bytes are not a tar", func() {
			_, e := arctgz.Gzip().Decode("src.tar.gz", gzipBytes([]byte("just some text, no container")))

			Expect(e).To(HaveOccurred())
			Expect(liberr.Has(e, libarc.ErrorMagicMismatch)).To(BeTrue())
		})

		It("should expose both layers through the capability probe", func() {
			d, ok := libarc.AsDualPart(arctgz.Gzip())

			Expect(ok).To(BeTrue())
			Expect(d.CompressionLayer().Kind()).To(Equal(libarc.CompressGzip))
			Expect(d.ContainerLayer().Name()).To(Equal("tar"))
		})
	})
})
