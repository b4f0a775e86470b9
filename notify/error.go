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

package notify

import (
	"fmt"

	liberr "github.com/megfs/meg/errors"
)

const (
	ErrorNotification liberr.CodeError = iota + liberr.MinPkgNotify
	ErrorSubscribe
)

func init() {
	if liberr.ExistInMapMessage(ErrorNotification) {
		panic(fmt.Errorf("error code collision with package meg/notify"))
	}
	liberr.RegisterIdFctMessage(ErrorNotification, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorNotification:
		return "the bucket notification is invalid"
	case ErrorSubscribe:
		return "subscribing to the notification subject occurred an error"
	}

	return liberr.NullMessage
}
