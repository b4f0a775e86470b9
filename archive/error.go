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

package archive

import (
	"fmt"
	"net/http"

	liberr "github.com/megfs/meg/errors"
)

const (
	ErrorDecode liberr.CodeError = iota + liberr.MinPkgArchive
	ErrorMagicMismatch
	ErrorEntryDuplicate
	ErrorEntryInvalid
	ErrorIndexInvalid
	ErrorRangeInvalid
)

func init() {
	if liberr.ExistInMapMessage(ErrorDecode) {
		panic(fmt.Errorf("error code collision with package meg/archive"))
	}
	liberr.RegisterIdFctMessage(ErrorDecode, getMessage)
	liberr.RegisterStatusCode(ErrorDecode, http.StatusInternalServerError)
	liberr.RegisterStatusCode(ErrorMagicMismatch, http.StatusInternalServerError)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorDecode:
		return "decoding the archive bytes occurred an error"
	case ErrorMagicMismatch:
		return "the archive bytes do not match the format magic"
	case ErrorEntryDuplicate:
		return "the archive contains a duplicated entry path"
	case ErrorEntryInvalid:
		return "the archive entry breaks a model invariant"
	case ErrorIndexInvalid:
		return "the central index is truncated or invalid"
	case ErrorRangeInvalid:
		return "the entry range is out of the archive bounds"
	}

	return liberr.NullMessage
}
