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

// Package notify invalidates the caches: a periodic etag poll against the
// store, and an optional push channel of bucket notifications. Both
// converge on the same idempotent purge.
package notify

import (
	"fmt"
	"path"
	"strings"
)

// Change is the kind of a bucket notification.
type Change uint8

const (
	ChangeDelete Change = iota
	ChangeModify
	ChangeCreate
)

func (c Change) String() string {
	switch c {
	case ChangeDelete:
		return "delete"
	case ChangeModify:
		return "modify"
	case ChangeCreate:
		return "create"
	default:
		return "modify"
	}
}

func (c Change) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Change) UnmarshalText(p []byte) error {
	switch strings.ToLower(string(p)) {
	case "delete":
		*c = ChangeDelete
	case "modify":
		*c = ChangeModify
	case "create":
		*c = ChangeCreate
	default:
		return ErrorNotification.Error(fmt.Errorf("unknown change %q", string(p)))
	}

	return nil
}

// BucketNotification is one pushed store event.
type BucketNotification struct {
	Change Change `json:"change"`
	Path   string `json:"path"`
	ETag   string `json:"etag,omitempty"`
}

// cacheNames returns the cache keys a stored path may be cached under:
// the path itself and its extension-stripped archive name.
func cacheNames(p string) []string {
	res := []string{p}

	base := p
	for {
		ext := path.Ext(base)
		if ext == "" {
			break
		}
		base = strings.TrimSuffix(base, ext)
	}

	if base != p && base != "" {
		res = append(res, base)
	}

	return res
}
