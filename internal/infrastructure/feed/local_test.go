package feed_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"luckyspot/internal/infrastructure/feed"
)

var _ = Describe("Local", func() {
	var (
		ctx context.Context
		l   *feed.Local
	)

	BeforeEach(func() {
		ctx = context.Background()
		l = feed.NewLocal()
	})

	It("signals subscribers of the published event only", func() {
		a, releaseA, err := l.Subscribe(ctx, "evt-a")
		Expect(err).NotTo(HaveOccurred())
		defer releaseA()
		b, releaseB, err := l.Subscribe(ctx, "evt-b")
		Expect(err).NotTo(HaveOccurred())
		defer releaseB()

		Expect(l.Publish(ctx, "evt-a")).To(Succeed())
		Expect(a).To(Receive())
		Expect(b).NotTo(Receive())
	})

	It("coalesces signals for a subscriber that has not drained", func() {
		ch, release, _ := l.Subscribe(ctx, "evt")
		defer release()

		for range 5 {
			Expect(l.Publish(ctx, "evt")).To(Succeed())
		}
		Expect(ch).To(Receive())
		Expect(ch).NotTo(Receive())
	})

	It("closes the channel and forgets the subscriber on release", func() {
		ch, release, _ := l.Subscribe(ctx, "evt")
		Expect(l.Subscribers("evt")).To(Equal(1))

		release()
		release()
		Expect(l.Subscribers("evt")).To(Equal(0))
		Expect(ch).To(BeClosed())
		Expect(l.Publish(ctx, "evt")).To(Succeed())
	})
})
