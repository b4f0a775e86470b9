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

package notify_test

import (
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	libcch "github.com/megfs/meg/cache"
	liberr "github.com/megfs/meg/errors"
	libntf "github.com/megfs/meg/notify"
)

var _ = Describe("Invalidator", func() {
	var (
		ctx = context.Background()
		str *condStore
		lay *libcch.Layers
		wtc *libntf.Watcher
	)

	BeforeEach(func() {
		str = &condStore{}
		str.set([]byte("v1-bytes"), `"v1"`)

		lay = libcch.New(libcch.NewMemory(16))
		wtc = libntf.New(str, lay, logrus.New(), 0)
	})

	AfterEach(func() {
		Expect(lay.Close()).ToNot(HaveOccurred())
	})

	Context("periodic cycle", func() {
		It("should leave an unchanged archive alone", func() {
			lay.StoreArchive(ctx, "docs.zip", []byte("v1-bytes"), 0)
			lay.SetETag("docs.zip", "docs.zip", `"v1"`)

			wtc.Cycle(ctx)

			b, ok := lay.PeekArchive(ctx, "docs.zip")
			Expect(ok).To(BeTrue())
			Expect(b).To(Equal([]byte("v1-bytes")))
		})

		It("should refresh a cached body and purge the index on a new etag", func() {
			lay.StoreArchive(ctx, "docs.zip", []byte("v1-bytes"), 0)
			lay.SetETag("docs.zip", "docs.zip", `"v1"`)

			_, e := lay.Index(ctx, "docs.zip", func(context.Context) ([]byte, liberr.Error) {
				return []byte("v1-index"), nil
			})
			Expect(e).ToNot(HaveOccurred())

			str.set([]byte("v2-bytes"), `"v2"`)

			wtc.Cycle(ctx)

			b, ok := lay.PeekArchive(ctx, "docs.zip")
			Expect(ok).To(BeTrue())
			Expect(b).To(Equal([]byte("v2-bytes")))

			// the stale index must not be observable anymore
			idx, e := lay.Index(ctx, "docs.zip", func(context.Context) ([]byte, liberr.Error) {
				return []byte("v2-index"), nil
			})
			Expect(e).ToNot(HaveOccurred())
			Expect(idx).To(Equal([]byte("v2-index")))

			ref, ok := lay.ETag("docs.zip")
			Expect(ok).To(BeTrue())
			Expect(ref.ETag).To(Equal(`"v2"`))
		})

		It("should purge when no body was cached", func() {
			lay.SetETag("docs.zip", "docs.zip", `"v1"`)
			str.set([]byte("v2-bytes"), `"v2"`)

			wtc.Cycle(ctx)

			_, ok := lay.PeekArchive(ctx, "docs.zip")
			Expect(ok).To(BeFalse())
		})

		It("should retry once over a transport error", func() {
			lay.SetETag("docs.zip", "docs.zip", `"v1"`)
			str.set([]byte("v2-bytes"), `"v2"`)
			str.failNext(1)

			wtc.Cycle(ctx)

			ref, ok := lay.ETag("docs.zip")
			Expect(ok).To(BeTrue())
			Expect(ref.ETag).To(Equal(`"v2"`))
		})

		It("should backfill etags from head when the map is empty", func() {
			lay.StoreArchive(ctx, "docs.zip", []byte("v1-bytes"), 0)

			wtc.Cycle(ctx)

			ref, ok := lay.ETag("docs.zip")
			Expect(ok).To(BeTrue())
			Expect(ref.ETag).To(Equal(`"v1"`))
		})
	})

	Context("push notifications", func() {
		It("should purge body and index on modify, so the next request misses", func() {
			lay.StoreArchive(ctx, "docs.zip", []byte("v1-bytes"), 0)

			_, e := lay.Index(ctx, "docs.zip", func(context.Context) ([]byte, liberr.Error) {
				return []byte("v1-index"), nil
			})
			Expect(e).ToNot(HaveOccurred())

			ch := make(chan libntf.BucketNotification, 1)
			ch <- libntf.BucketNotification{Change: libntf.ChangeModify, Path: "docs.zip"}
			close(ch)

			wtc.Listen(ctx, ch)

			_, ok := lay.PeekArchive(ctx, "docs.zip")
			Expect(ok).To(BeFalse())

			idx, e := lay.Index(ctx, "docs.zip", func(context.Context) ([]byte, liberr.Error) {
				return []byte("fresh-index"), nil
			})
			Expect(e).ToNot(HaveOccurred())
			Expect(idx).To(Equal([]byte("fresh-index")))
		})

		It("should observe create without purging", func() {
			lay.StoreArchive(ctx, "docs.zip", []byte("v1-bytes"), 0)

			ch := make(chan libntf.BucketNotification, 1)
			ch <- libntf.BucketNotification{Change: libntf.ChangeCreate, Path: "docs.zip"}
			close(ch)

			wtc.Listen(ctx, ch)

			_, ok := lay.PeekArchive(ctx, "docs.zip")
			Expect(ok).To(BeTrue())
		})

		It("should round-trip the change kind through json", func() {
			var n libntf.BucketNotification

			Expect(json.Unmarshal([]byte(`{"change":"delete","path":"docs.zip"}`), &n)).ToNot(HaveOccurred())
			Expect(n.Change).To(Equal(libntf.ChangeDelete))

			b, e := json.Marshal(n)
			Expect(e).ToNot(HaveOccurred())
			Expect(string(b)).To(ContainSubstring(`"delete"`))
		})
	})
})
