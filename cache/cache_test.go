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

package cache_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libcch "github.com/megfs/meg/cache"
	liberr "github.com/megfs/meg/errors"
	libsto "github.com/megfs/meg/store"
)

var _ = Describe("Cache", func() {
	var (
		ctx = context.Background()
		prv libcch.Provider
		lay *libcch.Layers
	)

	BeforeEach(func() {
		prv = libcch.NewMemory(16)
		lay = libcch.New(prv)
	})

	AfterEach(func() {
		Expect(lay.Close()).ToNot(HaveOccurred())
	})

	Context("memory provider", func() {
		It("should miss after the entry expired", func() {
			prv.Set(ctx, "k", []byte("v"), 30*time.Millisecond)

			_, ok := prv.Get(ctx, "k")
			Expect(ok).To(BeTrue())

			time.Sleep(60 * time.Millisecond)

			_, ok = prv.Get(ctx, "k")
			Expect(ok).To(BeFalse())
		})

		It("should keep an entry without expiry", func() {
			prv.Set(ctx, "k", []byte("v"), 0)

			time.Sleep(30 * time.Millisecond)

			_, ok := prv.Get(ctx, "k")
			Expect(ok).To(BeTrue())
		})

		It("should stay within its bound", func() {
			p := libcch.NewMemory(4)
			defer func() {
				_ = p.Close()
			}()

			for _, k := range []string{"a", "b", "c", "d", "e", "f"} {
				p.Set(ctx, k, []byte(k), time.Minute)
			}

			n := 0
			for _, k := range []string{"a", "b", "c", "d", "e", "f"} {
				if _, ok := p.Get(ctx, k); ok {
					n++
				}
			}

			Expect(n).To(BeNumerically("<=", 4))
		})
	})

	Context("single flight", func() {
		It("should share one fill across concurrent misses", func() {
			var fills atomic.Int32

			fill := func(context.Context) ([]byte, liberr.Error) {
				fills.Add(1)
				time.Sleep(50 * time.Millisecond)
				return []byte("body"), nil
			}

			var wg sync.WaitGroup

			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()

					b, e := lay.Archive(ctx, "docs.zip", 0, fill)
					Expect(e).ToNot(HaveOccurred())
					Expect(b).To(Equal([]byte("body")))
				}()
			}

			wg.Wait()

			Expect(fills.Load()).To(Equal(int32(1)))
		})

		It("should start a new fill after a purge", func() {
			var fills atomic.Int32

			fill := func(context.Context) ([]byte, liberr.Error) {
				fills.Add(1)
				return []byte("body"), nil
			}

			_, e := lay.Archive(ctx, "docs.zip", 0, fill)
			Expect(e).ToNot(HaveOccurred())

			lay.PurgeArchive(ctx, "docs.zip")

			_, e = lay.Archive(ctx, "docs.zip", 0, fill)
			Expect(e).ToNot(HaveOccurred())
			Expect(fills.Load()).To(Equal(int32(2)))
		})
	})

	Context("head cache", func() {
		It("should round-trip the stored key and metadata", func() {
			h, e := lay.Head(ctx, "docs", func(context.Context) (libsto.HeadInfo, liberr.Error) {
				return libsto.HeadInfo{
					Key:           "docs.zip",
					ContentType:   "application/zip",
					ContentLength: 42,
					AcceptRanges:  true,
					ETag:          `"abc"`,
				}, nil
			})

			Expect(e).ToNot(HaveOccurred())
			Expect(h.Key).To(Equal("docs.zip"))
			Expect(h.AcceptRanges).To(BeTrue())

			// a second read hits the cache, no fill runs
			h, e = lay.Head(ctx, "docs", func(context.Context) (libsto.HeadInfo, liberr.Error) {
				return libsto.HeadInfo{}, libsto.ErrorTransport.Error(nil)
			})

			Expect(e).ToNot(HaveOccurred())
			Expect(h.ContentLength).To(Equal(int64(42)))
		})
	})

	Context("etag map", func() {
		It("should keep the last observed etag without expiry", func() {
			lay.SetETag("docs", "docs.zip", `"v1"`)
			lay.SetETag("docs", "docs.zip", `"v2"`)

			ref, ok := lay.ETag("docs")
			Expect(ok).To(BeTrue())
			Expect(ref.ETag).To(Equal(`"v2"`))
			Expect(ref.Key).To(Equal("docs.zip"))

			Expect(lay.ETags()).To(HaveLen(1))
		})

		It("should track archive keys holding a body", func() {
			lay.StoreArchive(ctx, "docs.zip", []byte("b"), 0)
			Expect(lay.ArchiveKeys()).To(ConsistOf("docs.zip"))

			lay.PurgeArchive(ctx, "docs.zip")
			Expect(lay.ArchiveKeys()).To(BeEmpty())
		})
	})
})
