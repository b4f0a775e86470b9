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

package archfs

import (
	"fmt"
	"net/http"

	liberr "github.com/megfs/meg/errors"
)

const (
	ErrorNotFound liberr.CodeError = iota + liberr.MinPkgArchFS
	ErrorLoopDetected
	ErrorNotFile
	ErrorNotDirectory
	ErrorNotLink
	ErrorReadOnly
)

func init() {
	if liberr.ExistInMapMessage(ErrorNotFound) {
		panic(fmt.Errorf("error code collision with package meg/archive/archfs"))
	}
	liberr.RegisterIdFctMessage(ErrorNotFound, getMessage)
	liberr.RegisterStatusCode(ErrorNotFound, http.StatusNotFound)
	liberr.RegisterStatusCode(ErrorLoopDetected, http.StatusNotFound)
	liberr.RegisterStatusCode(ErrorNotFile, http.StatusNotFound)
	liberr.RegisterStatusCode(ErrorNotDirectory, http.StatusNotFound)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorNotFound:
		return "no entry exists at the given path"
	case ErrorLoopDetected:
		return "symlink resolution exceeded the depth bound"
	case ErrorNotFile:
		return "the entry at the given path is not a file"
	case ErrorNotDirectory:
		return "the entry at the given path is not a directory"
	case ErrorNotLink:
		return "the entry at the given path is not a link"
	case ErrorReadOnly:
		return "the archive file system is read only"
	}

	return liberr.NullMessage
}
