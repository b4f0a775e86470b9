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

package handler_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	arcfmt "github.com/megfs/meg/archive/format"
	libcch "github.com/megfs/meg/cache"
	libhdl "github.com/megfs/meg/handler"
	libmtp "github.com/megfs/meg/mediatype"
	libpln "github.com/megfs/meg/planner"
)

var _ = Describe("Handler", func() {
	var lay *libcch.Layers

	engine := func(forceDownload bool) *gin.Engine {
		lay = libcch.New(libcch.NewMemory(16))

		pln := libpln.New(newMemStore(), lay, arcfmt.Default(), libmtp.New(), logrus.New())

		e := gin.New()
		libhdl.New(pln, logrus.New(), forceDownload).Register(e)

		return e
	}

	serve := func(e *gin.Engine, target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		return w
	}

	AfterEach(func() {
		Expect(lay.Close()).ToNot(HaveOccurred())
	})

	It("should serve an inner entry with its text content type", func() {
		w := serve(engine(false), "/docs.zip/a/b.txt")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(Equal("hello\n"))
		Expect(w.Header().Get("Content-Type")).To(Equal("text/plain; charset=utf-8"))
		Expect(w.Header().Get("Content-Disposition")).To(BeEmpty())
	})

	It("should serve the archive object verbatim on a single segment", func() {
		w := serve(engine(false), "/docs.zip")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(Equal("application/zip"))
		Expect(w.Body.Len()).To(BeNumerically(">", 0))
	})

	It("should attach the entry in download mode", func() {
		w := serve(engine(true), "/docs.zip/a/b.txt")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Disposition")).To(Equal(`attachment; filename="b.txt"`))
	})

	It("should answer a missing entry with an empty 404", func() {
		w := serve(engine(false), "/docs.zip/does/not/exist")

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.Len()).To(BeZero())
	})

	It("should answer a missing archive with 404", func() {
		w := serve(engine(false), "/nothing/at/all")

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("should disambiguate a bare name against the stored key", func() {
		w := serve(engine(false), "/docs/a/b.txt")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(Equal("hello\n"))
	})
})
