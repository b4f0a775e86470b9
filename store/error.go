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

package store

import (
	"fmt"
	"net/http"

	liberr "github.com/megfs/meg/errors"
)

const (
	ErrorNotFound liberr.CodeError = iota + liberr.MinPkgStore
	ErrorTransport
	ErrorResponse
	ErrorParamEmpty
)

func init() {
	if liberr.ExistInMapMessage(ErrorNotFound) {
		panic(fmt.Errorf("error code collision with package meg/store"))
	}
	liberr.RegisterIdFctMessage(ErrorNotFound, getMessage)
	liberr.RegisterStatusCode(ErrorNotFound, http.StatusNotFound)
	liberr.RegisterStatusCode(ErrorTransport, http.StatusInternalServerError)
	liberr.RegisterStatusCode(ErrorResponse, http.StatusInternalServerError)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorNotFound:
		return "the requested object is not found on the store"
	case ErrorTransport:
		return "calling the object store occurred a transport error"
	case ErrorResponse:
		return "calling the object store occurred a response error"
	case ErrorParamEmpty:
		return "at least one parameter needed is empty"
	}

	return liberr.NullMessage
}
