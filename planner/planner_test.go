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

package planner_test

import (
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	arcfmt "github.com/megfs/meg/archive/format"
	libcch "github.com/megfs/meg/cache"
	liberr "github.com/megfs/meg/errors"
	libmtp "github.com/megfs/meg/mediatype"
	libpln "github.com/megfs/meg/planner"
)

var _ = Describe("Planner", func() {
	var (
		ctx = context.Background()
		str *fakeStore
		lay *libcch.Layers
		pln *libpln.Planner
	)

	BeforeEach(func() {
		str = newFakeStore()
		lay = libcch.New(libcch.NewMemory(64))
		pln = libpln.New(str, lay, arcfmt.Default(), libmtp.New(), logrus.New())
	})

	AfterEach(func() {
		Expect(lay.Close()).ToNot(HaveOccurred())
	})

	Context("seekable fast path", func() {
		BeforeEach(func() {
			str.put("docs.zip", "application/zip", `"z1"`, zipObject(map[string]string{
				"a/b.txt": "hello\n",
			}))
		})

		It("should serve the entry from head plus two ranged reads, no full download", func() {
			res, e := pln.Entry(ctx, "docs.zip", "a/b.txt", 0)

			Expect(e).ToNot(HaveOccurred())
			Expect(string(res.Body)).To(Equal("hello\n"))
			Expect(res.ContentType).To(Equal("text/plain; charset=utf-8"))

			calls := str.calls()
			Expect(calls).To(HaveLen(3))
			Expect(calls[0]).To(Equal("head:docs.zip"))
			Expect(calls[1]).To(HavePrefix("get:docs.zip:bytes="))
			Expect(calls[2]).To(HavePrefix("get:docs.zip:bytes="))

			for _, c := range calls {
				Expect(c).ToNot(HaveSuffix(":full"))
				Expect(c).ToNot(HavePrefix("list:"))
			}
		})

		It("should reuse the cached index on a second entry request", func() {
			_, e := pln.Entry(ctx, "docs.zip", "a/b.txt", 0)
			Expect(e).ToNot(HaveOccurred())

			before := len(str.calls())

			_, e = pln.Entry(ctx, "docs.zip", "a/b.txt", 0)
			Expect(e).ToNot(HaveOccurred())

			// only the entry range is fetched again: head and index are
			// cache hits
			Expect(str.calls()).To(HaveLen(before + 1))
		})

		It("should report a missing entry as not found", func() {
			_, e := pln.Entry(ctx, "docs.zip", "does/not/exist", 0)

			Expect(e).To(HaveOccurred())
			Expect(e.HasCode(libpln.ErrorEntryNotFound)).To(BeTrue())
			Expect(e.StatusCode()).To(Equal(404))
		})
	})

	Context("whole archive path", func() {
		BeforeEach(func() {
			str.put("src.tar.gz", "application/gzip", `"t1"`, tgzObject(map[string]string{
				"README": "MEG",
			}))
		})

		It("should download the archive once, unranged", func() {
			res, e := pln.Entry(ctx, "src.tar.gz", "README", 0)

			Expect(e).ToNot(HaveOccurred())
			Expect(string(res.Body)).To(Equal("MEG"))

			var gets []string
			for _, c := range str.calls() {
				if strings.HasPrefix(c, "get:") {
					gets = append(gets, c)
				}
			}

			Expect(gets).To(Equal([]string{"get:src.tar.gz:full"}))
		})

		It("should serve a second entry from the cached body with no store call", func() {
			_, e := pln.Entry(ctx, "src.tar.gz", "README", 0)
			Expect(e).ToNot(HaveOccurred())

			before := len(str.calls())

			_, e = pln.Entry(ctx, "src.tar.gz", "README", 0)
			Expect(e).ToNot(HaveOccurred())
			Expect(str.calls()).To(HaveLen(before))
		})

		It("should sniff the content type of an extension-less entry", func() {
			res, e := pln.Entry(ctx, "src.tar.gz", "README", 0)

			Expect(e).ToNot(HaveOccurred())
			Expect(res.ContentType).To(HavePrefix("text/plain"))
		})

		It("should record the observed etag", func() {
			_, e := pln.Entry(ctx, "src.tar.gz", "README", 0)
			Expect(e).ToNot(HaveOccurred())

			ref, ok := lay.ETag("src.tar.gz")
			Expect(ok).To(BeTrue())
			Expect(ref.ETag).To(Equal(`"t1"`))
		})
	})

	Context("name disambiguation", func() {
		BeforeEach(func() {
			str.put("docs.zip", "application/zip", `"z1"`, zipObject(map[string]string{
				"a/b.txt": "hello\n",
			}))
		})

		It("should list the prefix and head the first stored key", func() {
			res, e := pln.Entry(ctx, "docs", "a/b.txt", 0)

			Expect(e).ToNot(HaveOccurred())
			Expect(string(res.Body)).To(Equal("hello\n"))

			calls := str.calls()
			Expect(calls[0]).To(Equal("list:docs"))
			Expect(calls[1]).To(Equal("head:docs.zip"))
		})
	})

	Context("archive object requests", func() {
		BeforeEach(func() {
			str.put("docs.zip", "application/zip", `"z1"`, zipObject(map[string]string{
				"a/b.txt": "hello\n",
			}))
		})

		It("should serve the object verbatim with the upstream content type", func() {
			res, e := pln.Object(ctx, "docs.zip")

			Expect(e).ToNot(HaveOccurred())
			Expect(res.ContentType).To(Equal("application/zip"))
			Expect(res.Body).To(Equal(zipObject(map[string]string{"a/b.txt": "hello\n"})))
		})

		It("should fail with not found on a missing object", func() {
			_, e := pln.Object(ctx, "nothing-here")

			Expect(e).To(HaveOccurred())
			Expect(e.StatusCode()).To(Equal(404))
		})
	})

	Context("format resolution failures", func() {
		It("should fail with unknown format when neither content type nor key resolve", func() {
			str.put("blob", "application/octet-stream", `"b1"`, []byte("opaque"))

			_, e := pln.Entry(ctx, "blob", "inner.txt", 0)

			Expect(e).To(HaveOccurred())
			Expect(liberr.Has(e, arcfmt.ErrorUnknownFormat)).To(BeTrue())
			Expect(e.StatusCode()).To(Equal(404))
		})
	})
})
