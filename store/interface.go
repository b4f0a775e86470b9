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

// Package store declares the object-store contract the rest of the system
// consumes: HEAD, prefix LIST, full and ranged GET with conditional
// requests. Credentials and transport are the adapter's concern.
package store

import (
	"context"

	libarc "github.com/megfs/meg/archive"
	liberr "github.com/megfs/meg/errors"
)

// HeadInfo is the metadata of a stored object.
type HeadInfo struct {
	Key           string `json:"key"`
	ContentType   string `json:"content_type,omitempty"`
	ContentLength int64  `json:"content_length"`
	AcceptRanges  bool   `json:"accept_ranges"`
	ETag          string `json:"etag,omitempty"`
}

// ObjectInfo is one listed object.
type ObjectInfo struct {
	Key  string
	Size int64
	ETag string
}

// GetResult is the outcome of a GET. A conditional request answered with a
// 304 equivalent sets NotModified and omits the body.
type GetResult struct {
	Body            []byte
	ContentType     string
	ContentEncoding string
	ContentLength   int64
	ETag            string
	NotModified     bool
}

// ObjectStore abstracts the remote store.
type ObjectStore interface {
	// Head fetches the object metadata.
	Head(ctx context.Context, key string) (HeadInfo, liberr.Error)
	// List returns the objects under a prefix, in store order. An empty
	// result is a not-found error.
	List(ctx context.Context, prefix string) ([]ObjectInfo, liberr.Error)
	// Get fetches an object, restricted to a closed byte range when rng
	// is non nil, conditional on ifNoneMatch when non empty.
	Get(ctx context.Context, key string, rng *libarc.Range, ifNoneMatch string) (GetResult, liberr.Error)
}
