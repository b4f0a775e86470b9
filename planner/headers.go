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

package planner

import (
	"path"
	"unicode/utf8"
)

const probeLen = 512

// result derives the response content type from the inner path, then by
// sniffing the first chunk, last by a plain-text probe of it.
func (p *Planner) result(inner string, data []byte) Result {
	res := Result{
		Body:     data,
		Filename: path.Base(inner),
	}

	if ct, ok := p.mim.ByName(inner); ok {
		res.ContentType = ct
		return res
	}

	probe := data
	if len(probe) > probeLen {
		probe = probe[:probeLen]
	}

	if ct, ok := p.mim.ByContent(probe); ok {
		res.ContentType = ct
		return res
	}

	if len(probe) > 0 && utf8.Valid(probe) {
		res.ContentType = "text/plain; charset=utf-8"
	} else {
		res.ContentType = "application/octet-stream"
	}

	return res
}
