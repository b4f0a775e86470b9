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

// Package errors provides code-based error handling: each package of the
// module owns a block of the numeric code space, registers its messages at
// init time, and wraps underlying causes as parents. Errors stay compatible
// with the standard errors.Is / errors.As helpers.
package errors

import (
	"errors"
	"strings"
)

type Error interface {
	error

	// Code returns the numeric code of this error.
	Code() CodeError
	// IsCode checks the direct code of this error, ignoring parents.
	IsCode(code CodeError) bool
	// HasCode checks this error and every parent for the given code.
	HasCode(code CodeError) bool
	// StatusCode returns the HTTP status registered for the code.
	StatusCode() int

	// AddParent appends non-nil causes to the parent chain.
	AddParent(parent ...error)
	HasParent() bool
	GetParent() []error

	Is(target error) bool
	Unwrap() []error
}

// Has reports whether err carries the given code, directly or through
// any parent in its chain.
func Has(err error, code CodeError) bool {
	var e Error

	if errors.As(err, &e) {
		return e.HasCode(code)
	}

	return false
}

type ers struct {
	c CodeError
	p []error
}

func (e *ers) Error() string {
	var b strings.Builder

	b.WriteString("(")
	b.WriteString(e.c.String())
	b.WriteString(") ")
	b.WriteString(e.c.GetMessage())

	for _, p := range e.p {
		b.WriteString(", ")
		b.WriteString(p.Error())
	}

	return b.String()
}

func (e *ers) Code() CodeError {
	return e.c
}

func (e *ers) IsCode(code CodeError) bool {
	return e.c == code
}

func (e *ers) HasCode(code CodeError) bool {
	if e.c == code {
		return true
	}

	for _, p := range e.p {
		if Has(p, code) {
			return true
		}
	}

	return false
}

func (e *ers) StatusCode() int {
	return e.c.StatusCode()
}

func (e *ers) AddParent(parent ...error) {
	for _, p := range parent {
		if p == nil {
			continue
		}
		e.p = append(e.p, p)
	}
}

func (e *ers) HasParent() bool {
	return len(e.p) > 0
}

func (e *ers) GetParent() []error {
	return e.p
}

func (e *ers) Is(target error) bool {
	if t, ok := target.(Error); ok {
		return e.c == t.Code()
	}

	return false
}

func (e *ers) Unwrap() []error {
	return e.p
}
