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

package notify_test

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	liberr "github.com/megfs/meg/errors"
	libntf "github.com/megfs/meg/notify"
)

// fakeConn hands the subscription channel back to the test so messages
// can be injected without a broker.
type fakeConn struct {
	subject string
	mch     chan *nats.Msg
	err     error
}

func (f *fakeConn) ChanSubscribe(subject string, ch chan *nats.Msg) (*nats.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.subject = subject
	f.mch = ch

	return &nats.Subscription{}, nil
}

var _ = Describe("Nats Source", func() {
	var (
		cnl context.CancelFunc
		ctx context.Context
		fcn *fakeConn
	)

	BeforeEach(func() {
		ctx, cnl = context.WithCancel(context.Background())
		fcn = &fakeConn{}
	})

	AfterEach(func() {
		cnl()
	})

	It("should decode pushed notifications onto the channel", func() {
		ch, e := libntf.NatsSource(ctx, fcn, "bucket.events", logrus.New())

		Expect(e).To(BeNil())
		Expect(fcn.subject).To(Equal("bucket.events"))

		fcn.mch <- &nats.Msg{
			Subject: "bucket.events",
			Data:    []byte(`{"change":"modify","path":"docs.zip","etag":"\"v2\""}`),
		}

		var n libntf.BucketNotification
		Eventually(ch).Should(Receive(&n))
		Expect(n.Change).To(Equal(libntf.ChangeModify))
		Expect(n.Path).To(Equal("docs.zip"))
		Expect(n.ETag).To(Equal(`"v2"`))
	})

	It("should drop undecodable payloads and keep going", func() {
		ch, e := libntf.NatsSource(ctx, fcn, "bucket.events", logrus.New())
		Expect(e).To(BeNil())

		fcn.mch <- &nats.Msg{Subject: "bucket.events", Data: []byte("not json")}
		fcn.mch <- &nats.Msg{Subject: "bucket.events", Data: []byte(`{"change":"delete","path":"docs.zip"}`)}

		var n libntf.BucketNotification
		Eventually(ch).Should(Receive(&n))
		Expect(n.Change).To(Equal(libntf.ChangeDelete))
	})

	It("should fall back to the default subject", func() {
		_, e := libntf.NatsSource(ctx, fcn, "", logrus.New())

		Expect(e).To(BeNil())
		Expect(fcn.subject).To(Equal(libntf.DefaultNatsSubject))
	})

	It("should close the channel on cancellation", func() {
		ch, e := libntf.NatsSource(ctx, fcn, "bucket.events", logrus.New())
		Expect(e).To(BeNil())

		cnl()

		Eventually(ch).Should(BeClosed())
	})

	It("should surface a subscription failure", func() {
		fcn.err = fmt.Errorf("no broker")

		_, e := libntf.NatsSource(ctx, fcn, "bucket.events", logrus.New())

		Expect(e).ToNot(BeNil())
		Expect(liberr.Has(e, libntf.ErrorSubscribe)).To(BeTrue())
	})

	It("should drive the listener purge end to end", func() {
		lay, str := freshLayers()
		defer func() {
			_ = lay.Close()
		}()

		lay.StoreArchive(ctx, "docs.zip", []byte("v1-bytes"), 0)

		ch, e := libntf.NatsSource(ctx, fcn, "bucket.events", logrus.New())
		Expect(e).To(BeNil())

		go libntf.New(str, lay, logrus.New(), 0).Listen(ctx, ch)

		fcn.mch <- &nats.Msg{Subject: "bucket.events", Data: []byte(`{"change":"modify","path":"docs.zip"}`)}

		Eventually(func() bool {
			_, ok := lay.PeekArchive(ctx, "docs.zip")
			return ok
		}).Should(BeFalse())
	})
})
