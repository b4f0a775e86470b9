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

// Package s3 adapts an S3-compatible endpoint to the store contract with
// the aws sdk v2 client.
package s3

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	sdkcfg "github.com/aws/aws-sdk-go-v2/config"
	sdkcrd "github.com/aws/aws-sdk-go-v2/credentials"
	sdksss "github.com/aws/aws-sdk-go-v2/service/s3"

	libsto "github.com/megfs/meg/store"
	liberr "github.com/megfs/meg/errors"
)

// Config carries what the adapter needs to reach one bucket. Endpoint is
// empty for the public AWS endpoint of the region.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PathStyle bool
}

type client struct {
	s3  *sdksss.Client
	bkt string
}

// New builds the store adapter over one bucket.
func New(ctx context.Context, cfg Config) (libsto.ObjectStore, liberr.Error) {
	if cfg.Bucket == "" {
		return nil, libsto.ErrorParamEmpty.Error(fmt.Errorf("bucket name is required"))
	}

	opts := make([]func(*sdkcfg.LoadOptions) error, 0, 2)

	if cfg.Region != "" {
		opts = append(opts, sdkcfg.WithRegion(cfg.Region))
	}

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, sdkcfg.WithCredentialsProvider(
			sdkcrd.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	c, e := sdkcfg.LoadDefaultConfig(ctx, opts...)

	if e != nil {
		return nil, libsto.ErrorTransport.Error(e)
	}

	cli := sdksss.NewFromConfig(c, func(o *sdksss.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = sdkaws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return &client{
		s3:  cli,
		bkt: cfg.Bucket,
	}, nil
}

func (cli *client) bucket() *string {
	return sdkaws.String(cli.bkt)
}
