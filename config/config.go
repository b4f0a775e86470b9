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

// Package config carries the bootstrap configuration: endpoint, bucket,
// listening address and cache backend, validated before startup.
package config

import (
	"fmt"
	"net/url"
	"strings"

	libval "github.com/go-playground/validator/v10"

	liberr "github.com/megfs/meg/errors"
)

const (
	CacheMemory = "in-memory"
	CacheRedis  = "redis"
)

type Config struct {
	URL       string `mapstructure:"url" json:"url" validate:"omitempty"`
	Region    string `mapstructure:"region" json:"region" validate:"omitempty"`
	AccessKey string `mapstructure:"access-key" json:"access-key" validate:"omitempty"`
	SecretKey string `mapstructure:"secret-key" json:"secret-key" validate:"omitempty"`
	Bucket    string `mapstructure:"bucket" json:"bucket" validate:"omitempty"`

	Host string `mapstructure:"host" json:"host" validate:"omitempty"`
	Port int    `mapstructure:"port" json:"port" validate:"gte=0,lte=65535"`

	Cache         string `mapstructure:"cache" json:"cache" validate:"omitempty"`
	ForceDownload bool   `mapstructure:"force-download" json:"force-download"`

	// NatsURL enables the push-notification listener; when empty the
	// invalidator falls back to periodic etag polling.
	NatsURL     string `mapstructure:"nats-url" json:"nats-url" validate:"omitempty"`
	NatsSubject string `mapstructure:"nats-subject" json:"nats-subject" validate:"omitempty"`
}

func Default() *Config {
	return &Config{
		Host:  "0.0.0.0",
		Port:  8080,
		Cache: CacheMemory,
	}
}

// Validate checks the field constraints and resolves the bucket name,
// extracting it from the endpoint URL when no explicit bucket is given.
func (c *Config) Validate() liberr.Error {
	if e := libval.New().Struct(c); e != nil {
		return ErrorValidate.Error(e)
	}

	if c.Bucket == "" {
		if b, ok := ExtractBucket(c.URL); ok {
			c.Bucket = b
		} else {
			return ErrorBucketMissing.Error(fmt.Errorf("no bucket parameter and none extractable from %q", c.URL))
		}
	}

	if _, _, e := c.CacheBackend(); e != nil {
		return e
	}

	return nil
}

// CacheBackend splits the cache flag into a backend kind and its
// address: in-memory, or redis:<url>.
func (c *Config) CacheBackend() (kind, addr string, err liberr.Error) {
	v := c.Cache

	switch {
	case v == "" || v == CacheMemory:
		return CacheMemory, "", nil

	case strings.HasPrefix(v, CacheRedis+":"):
		addr = strings.TrimPrefix(v, CacheRedis+":")
		if !strings.HasPrefix(addr, "redis://") && !strings.HasPrefix(addr, "rediss://") {
			addr = "redis://" + addr
		}
		return CacheRedis, addr, nil

	default:
		return "", "", ErrorCacheInvalid.Error(fmt.Errorf("cache %q", v))
	}
}

// ExtractBucket pulls a bucket name out of the recognized endpoint URL
// forms: s3://B/…, https://B.s3.amazonaws.com/…, https://s3.amazonaws.com/B/….
func ExtractBucket(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}

	u, e := url.Parse(raw)

	if e != nil || u.Host == "" {
		return "", false
	}

	host := strings.ToLower(u.Hostname())

	switch {
	case u.Scheme == "s3":
		return u.Hostname(), u.Hostname() != ""

	case strings.HasSuffix(host, ".s3.amazonaws.com"):
		b := strings.TrimSuffix(host, ".s3.amazonaws.com")
		return b, b != ""

	case host == "s3.amazonaws.com":
		p := strings.Trim(u.Path, "/")
		if i := strings.IndexByte(p, '/'); i >= 0 {
			p = p[:i]
		}
		return p, p != ""

	default:
		return "", false
	}
}

// Endpoint returns the store endpoint to dial, empty for the public AWS
// endpoint: virtual-hosted and path-style AWS URLs collapse to empty, any
// other URL is a custom endpoint kept verbatim.
func (c *Config) Endpoint() string {
	if c.URL == "" {
		return ""
	}

	u, e := url.Parse(c.URL)

	if e != nil {
		return ""
	}

	host := strings.ToLower(u.Hostname())

	if u.Scheme == "s3" || strings.HasSuffix(host, ".amazonaws.com") {
		return ""
	}

	return c.URL
}

// PathStyle reports whether the endpoint needs path-style addressing,
// which every non-AWS endpoint does.
func (c *Config) PathStyle() bool {
	return c.Endpoint() != ""
}
