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

package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type rds struct {
	c *redis.Client
}

// NewRedis returns a provider over a redis endpoint, addressed by URL
// (redis://…). Values persist as opaque bytes with per-key expiry.
func NewRedis(rawURL string) (Provider, error) {
	o, e := redis.ParseURL(rawURL)

	if e != nil {
		return nil, ErrorProviderConfig.Error(e)
	}

	return &rds{
		c: redis.NewClient(o),
	}, nil
}

func (p *rds) Get(ctx context.Context, key string) ([]byte, bool) {
	b, e := p.c.Get(ctx, key).Bytes()

	if e != nil {
		return nil, false
	}

	return b, true
}

func (p *rds) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	p.c.Set(ctx, key, val, ttl)
}

func (p *rds) Purge(ctx context.Context, key string) {
	p.c.Del(ctx, key)
}

func (p *rds) Close() error {
	return p.c.Close()
}
