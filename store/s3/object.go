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

package s3

import (
	"context"
	"errors"
	"io"
	"net/http"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	sdksss "github.com/aws/aws-sdk-go-v2/service/s3"
	sdktps "github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithy "github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	libarc "github.com/megfs/meg/archive"
	liberr "github.com/megfs/meg/errors"
	libsto "github.com/megfs/meg/store"
)

func (cli *client) Head(ctx context.Context, key string) (libsto.HeadInfo, liberr.Error) {
	out, e := cli.s3.HeadObject(ctx, &sdksss.HeadObjectInput{
		Bucket: cli.bucket(),
		Key:    sdkaws.String(key),
	})

	if e != nil {
		return libsto.HeadInfo{}, cli.getError(e)
	}

	return libsto.HeadInfo{
		Key:           key,
		ContentType:   sdkaws.ToString(out.ContentType),
		ContentLength: sdkaws.ToInt64(out.ContentLength),
		AcceptRanges:  acceptRanges(out.AcceptRanges),
		ETag:          sdkaws.ToString(out.ETag),
	}, nil
}

func (cli *client) List(ctx context.Context, prefix string) ([]libsto.ObjectInfo, liberr.Error) {
	out, e := cli.s3.ListObjectsV2(ctx, &sdksss.ListObjectsV2Input{
		Bucket: cli.bucket(),
		Prefix: sdkaws.String(prefix),
	})

	if e != nil {
		return nil, cli.getError(e)
	}

	if len(out.Contents) == 0 {
		return nil, libsto.ErrorNotFound.Error(nil)
	}

	res := make([]libsto.ObjectInfo, 0, len(out.Contents))

	for _, o := range out.Contents {
		res = append(res, libsto.ObjectInfo{
			Key:  sdkaws.ToString(o.Key),
			Size: sdkaws.ToInt64(o.Size),
			ETag: sdkaws.ToString(o.ETag),
		})
	}

	return res, nil
}

func (cli *client) Get(ctx context.Context, key string, rng *libarc.Range, ifNoneMatch string) (libsto.GetResult, liberr.Error) {
	in := &sdksss.GetObjectInput{
		Bucket: cli.bucket(),
		Key:    sdkaws.String(key),
	}

	if rng != nil {
		in.Range = sdkaws.String(rng.Header())
	}

	if ifNoneMatch != "" {
		in.IfNoneMatch = sdkaws.String(ifNoneMatch)
	}

	out, e := cli.s3.GetObject(ctx, in)

	if e != nil {
		if isNotModified(e) {
			return libsto.GetResult{
				ETag:        ifNoneMatch,
				NotModified: true,
			}, nil
		}
		return libsto.GetResult{}, cli.getError(e)
	}

	if out.Body == nil {
		return libsto.GetResult{}, libsto.ErrorResponse.Error(nil)
	}

	defer func() {
		_ = out.Body.Close()
	}()

	b, e := io.ReadAll(out.Body)

	if e != nil {
		return libsto.GetResult{}, libsto.ErrorTransport.Error(e)
	}

	return libsto.GetResult{
		Body:            b,
		ContentType:     sdkaws.ToString(out.ContentType),
		ContentEncoding: sdkaws.ToString(out.ContentEncoding),
		ContentLength:   int64(len(b)),
		ETag:            sdkaws.ToString(out.ETag),
	}, nil
}

// acceptRanges follows the S3 behavior: the endpoint serves ranged reads
// unconditionally, only an explicit non-bytes unit disables the fast path.
func acceptRanges(v *string) bool {
	return v == nil || sdkaws.ToString(v) == "bytes"
}

func isNotModified(e error) bool {
	var re *smithyhttp.ResponseError

	if errors.As(e, &re) {
		return re.HTTPStatusCode() == http.StatusNotModified
	}

	return false
}

func (cli *client) getError(e error) liberr.Error {
	var (
		nsk *sdktps.NoSuchKey
		nfd *sdktps.NotFound
		api smithy.APIError
	)

	switch {
	case errors.As(e, &nsk), errors.As(e, &nfd):
		return libsto.ErrorNotFound.Error(e)

	case errors.As(e, &api):
		switch api.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return libsto.ErrorNotFound.Error(e)
		}
		return libsto.ErrorResponse.Error(e)

	default:
		return libsto.ErrorTransport.Error(e)
	}
}
