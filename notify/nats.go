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
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	liberr "github.com/megfs/meg/errors"
)

// DefaultNatsSubject is the subject listened to when none is configured.
const DefaultNatsSubject = "meg.bucket"

// Subscriber is the slice of a nats connection the source needs;
// *nats.Conn satisfies it.
type Subscriber interface {
	ChanSubscribe(subject string, ch chan *nats.Msg) (*nats.Subscription, error)
}

// NatsSource subscribes to a subject of JSON bucket notifications and
// exposes it as a push channel. Cancelling the context unsubscribes and
// closes the channel.
func NatsSource(ctx context.Context, nc Subscriber, subject string, log logrus.FieldLogger) (<-chan BucketNotification, liberr.Error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	if subject == "" {
		subject = DefaultNatsSubject
	}

	mch := make(chan *nats.Msg, 64)

	sub, e := nc.ChanSubscribe(subject, mch)

	if e != nil {
		return nil, ErrorSubscribe.Error(e)
	}

	out := make(chan BucketNotification)

	go func() {
		defer close(out)
		defer func() {
			_ = sub.Unsubscribe()
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case m, ok := <-mch:
				if !ok {
					return
				}

				var n BucketNotification

				if e := json.Unmarshal(m.Data, &n); e != nil {
					log.WithError(e).Warn("undecodable bucket notification dropped")
					continue
				}

				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
