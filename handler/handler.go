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

// Package handler maps the HTTP surface onto the planner: the first URL
// segment is the archive name, the rest the inner path.
package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	arcfmt "github.com/megfs/meg/archive/format"
	liberr "github.com/megfs/meg/errors"
	"github.com/megfs/meg/monitor"
	libpln "github.com/megfs/meg/planner"
)

// HeaderCacheTTL overrides the archive body cache validity per request,
// as seconds or a duration string, capped by the cache layer.
const HeaderCacheTTL = "X-Meg-Cache-TTL"

type Handler struct {
	pln *libpln.Planner
	log logrus.FieldLogger
	dwn bool
}

// New builds the handler glue. With forceDownload set every inner entry
// response carries an attachment disposition.
func New(pln *libpln.Planner, log logrus.FieldLogger, forceDownload bool) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Handler{
		pln: pln,
		log: log.WithField("component", "handler"),
		dwn: forceDownload,
	}
}

// Register mounts the serving route on a gin engine. The catch-all sits
// on NoRoute so fixed routes like /metrics keep their place.
func (h *Handler) Register(e *gin.Engine) {
	e.NoRoute(h.Serve)
}

func (h *Handler) Serve(c *gin.Context) {
	if c.Request.Method != http.MethodGet {
		h.status(c, http.StatusMethodNotAllowed)
		return
	}

	p := strings.Trim(c.Request.URL.Path, "/")

	if p == "" {
		h.status(c, http.StatusNotFound)
		return
	}

	var (
		err liberr.Error
		res libpln.Result

		ctx         = c.Request.Context()
		name, inner = splitObject(p)
	)

	if inner == "" {
		res, err = h.pln.Object(ctx, name)
	} else {
		res, err = h.pln.Entry(ctx, name, inner, cacheTTL(c))
	}

	if err != nil {
		h.abort(c, name, inner, err)
		return
	}

	if h.dwn && inner != "" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	}

	monitor.Requests.WithLabelValues(strconv.Itoa(http.StatusOK)).Inc()
	c.Data(http.StatusOK, res.ContentType, res.Body)
}

func (h *Handler) abort(c *gin.Context, name, inner string, err liberr.Error) {
	status := err.StatusCode()

	h.log.WithFields(logrus.Fields{
		"archive": name,
		"entry":   inner,
		"status":  status,
	}).WithError(err).Error("request failed")

	if err.HasCode(arcfmt.ErrorUnknownFormat) {
		monitor.Requests.WithLabelValues(strconv.Itoa(status)).Inc()
		c.String(status, err.Error())
		return
	}

	h.status(c, status)
}

func (h *Handler) status(c *gin.Context, status int) {
	monitor.Requests.WithLabelValues(strconv.Itoa(status)).Inc()
	c.Status(status)
	// flush the bare status so the NoRoute fallback adds no default body
	c.Writer.WriteHeaderNow()
}

func splitObject(p string) (name, inner string) {
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i], p[i+1:]
	}

	return p, ""
}

// cacheTTL parses the per-request archive TTL override header.
func cacheTTL(c *gin.Context) time.Duration {
	v := c.GetHeader(HeaderCacheTTL)

	if v == "" {
		return 0
	}

	if s, e := strconv.Atoi(v); e == nil {
		return time.Duration(s) * time.Second
	}

	if d, e := time.ParseDuration(v); e == nil {
		return d
	}

	return 0
}
