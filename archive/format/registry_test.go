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

package format_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libarc "github.com/megfs/meg/archive"
	arcfmt "github.com/megfs/meg/archive/format"
	liberr "github.com/megfs/meg/errors"
)

// custom is a user-declared format shadowing the zip registration.
type custom struct{}

func (custom) Name() string            { return "custom" }
func (custom) Extensions() []string    { return []string{".zip"} }
func (custom) ContentTypes() []string  { return []string{"application/zip"} }
func (custom) Magic() []byte           { return nil }
func (custom) Decode(string, []byte) (*libarc.Archive, error) {
	return nil, libarc.ErrorDecode.Error(nil)
}

var _ = Describe("Format Registry", func() {
	var reg *arcfmt.Registry

	BeforeEach(func() {
		reg = arcfmt.Default()
	})

	Context("magic byte resolution", func() {
		It("should win over a misleading file name", func() {
			f, e := reg.Resolve("weird.tar.gz", zipBytes("a.txt", "a"))

			Expect(e).ToNot(HaveOccurred())
			Expect(f.Name()).To(Equal("zip"))
		})

		It("should pick tar+gzip from the gzip prefix", func() {
			f, e := reg.Resolve("anything", tgzBytes("a.txt", "a"))

			Expect(e).ToNot(HaveOccurred())
			Expect(f.Name()).To(Equal("tar+gzip"))
		})
	})

	Context("name resolution", func() {
		It("should resolve extension-bearing names without a body", func() {
			f, e := reg.Resolve("docs.zip", nil)

			Expect(e).ToNot(HaveOccurred())
			Expect(f.Name()).To(Equal("zip"))

			f, e = reg.Resolve("src.tgz", nil)

			Expect(e).ToNot(HaveOccurred())
			Expect(f.Name()).To(Equal("tar+gzip"))
		})
	})

	Context("content type resolution", func() {
		It("should match either layer of a dual-part format", func() {
			f, ok := reg.ByContentType("application/gzip")
			Expect(ok).To(BeTrue())
			Expect(f.Name()).To(Equal("tar+gzip"))

			f, ok = reg.ByContentType("application/x-tar; charset=binary")
			Expect(ok).To(BeTrue())
			Expect(f.Name()).To(Equal("tar+gzip"))
		})

		It("should map the zip content type to the zip format", func() {
			f, ok := reg.ByContentType("application/zip")
			Expect(ok).To(BeTrue())
			Expect(f.Name()).To(Equal("zip"))
		})
	})

	Context("trial decode fallback", func() {
		It("should fail with unknown format when nothing decodes", func() {
			_, e := reg.Resolve("mystery", []byte("neither a zip nor a tarball"))

			Expect(e).To(HaveOccurred())
			Expect(liberr.Has(e, arcfmt.ErrorUnknownFormat)).To(BeTrue())
		})
	})

	Context("user-supplied formats", func() {
		It("should give a prepended format precedence, duplicates included", func() {
			reg.Prepend(custom{})

			f, e := reg.Resolve("docs.zip", nil)
			Expect(e).ToNot(HaveOccurred())
			Expect(f.Name()).To(Equal("custom"))

			f, ok := reg.ByContentType("application/zip")
			Expect(ok).To(BeTrue())
			Expect(f.Name()).To(Equal("custom"))
		})

		It("should keep an appended duplicate behind the stock format", func() {
			reg.Append(custom{})

			f, ok := reg.ByContentType("application/zip")
			Expect(ok).To(BeTrue())
			Expect(f.Name()).To(Equal("zip"))
		})
	})

	Context("capability probes", func() {
		It("should report zip seekable and tar+gzip not", func() {
			z, _ := reg.ByName("docs.zip")
			_, ok := libarc.AsSeekable(z)
			Expect(ok).To(BeTrue())

			t, _ := reg.ByName("src.tar.gz")
			_, ok = libarc.AsSeekable(t)
			Expect(ok).To(BeFalse())
		})
	})
})
