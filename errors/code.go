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

package errors

import (
	"net/http"
	"strconv"
)

// CodeError is a numeric error code. Each package owns a slice of the code
// space (see modules.go) and registers its message function in an init.
type CodeError uint16

const (
	// UnknownError is the fallback code when no specific code applies.
	UnknownError CodeError = 0

	UnknownMessage = "unknown error"
	NullMessage    = ""
)

// Message returns the message associated with an error code.
type Message func(code CodeError) string

var (
	idMsgFct = make(map[CodeError]Message)
	idStatus = make(map[CodeError]int)
)

func ExistInMapMessage(code CodeError) bool {
	_, ok := idMsgFct[code]
	return ok
}

// RegisterIdFctMessage binds a message function to a base code. The same
// function serves every code of the package block starting at the base.
func RegisterIdFctMessage(base CodeError, fct Message) {
	idMsgFct[base] = fct
}

// RegisterStatusCode binds an HTTP status to a code. Codes with no
// registered status are exposed as 500.
func RegisterStatusCode(code CodeError, status int) {
	idStatus[code] = status
}

func (c CodeError) Uint16() uint16 {
	return uint16(c)
}

func (c CodeError) Int() int {
	return int(c)
}

func (c CodeError) String() string {
	return strconv.Itoa(c.Int())
}

// GetMessage walks the registered message functions and returns the first
// non-null message for the code.
func (c CodeError) GetMessage() string {
	if c == UnknownError {
		return UnknownMessage
	}

	for _, f := range idMsgFct {
		if m := f(c); m != NullMessage {
			return m
		}
	}

	return UnknownMessage
}

// StatusCode returns the HTTP status registered for the code, or
// http.StatusInternalServerError when none is registered.
func (c CodeError) StatusCode() int {
	if s, ok := idStatus[c]; ok {
		return s
	}

	return http.StatusInternalServerError
}

// Error builds an Error carrying this code and the given parents.
// Nil parents are skipped.
func (c CodeError) Error(parent ...error) Error {
	e := &ers{
		c: c,
		p: make([]error, 0, len(parent)),
	}

	e.AddParent(parent...)

	return e
}

// IfError returns an Error wrapping the parents only if at least one
// parent is non nil, otherwise nil.
func (c CodeError) IfError(parent ...error) Error {
	e := c.Error(parent...)

	if e.HasParent() {
		return e
	}

	return nil
}
