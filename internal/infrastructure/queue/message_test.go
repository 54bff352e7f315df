package queue

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
)

var _ = Describe("ParseMessage", func() {
	It("reads every field", func() {
		msg, err := ParseMessage(redis.XMessage{
			ID: "1-0",
			Values: map[string]any{
				"event_id": "evt-1",
				"reason":   "no show",
				"attempt":  "3",
				"trace_id": "4bf92f3577b34da6a3ce929d0e0e4736",
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.ID).To(Equal("1-0"))
		Expect(msg.EventID).To(Equal("evt-1"))
		Expect(msg.Reason).To(Equal("no show"))
		Expect(msg.Attempt).To(Equal(3))
		Expect(msg.TraceID).To(Equal("4bf92f3577b34da6a3ce929d0e0e4736"))
	})

	It("defaults the attempt to one", func() {
		msg, err := ParseMessage(redis.XMessage{Values: map[string]any{"event_id": "evt-1"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Attempt).To(Equal(1))
		Expect(msg.Reason).To(BeEmpty())
	})

	DescribeTable("rejects malformed messages",
		func(values map[string]any, want string) {
			_, err := ParseMessage(redis.XMessage{Values: values})
			Expect(err).To(MatchError(ContainSubstring(want)))
		},
		Entry("missing event", map[string]any{"attempt": "1"}, "missing event_id"),
		Entry("empty event", map[string]any{"event_id": ""}, "empty event_id"),
		Entry("bad attempt", map[string]any{"event_id": "evt-1", "attempt": "two"}, "parsing attempt"),
	)

	It("writes back what it parses with the next attempt", func() {
		in := Message{EventID: "evt-1", Reason: "expired", TraceID: "abc", Attempt: 1}
		values := messageValues(in, in.Attempt+1)

		out, err := ParseMessage(redis.XMessage{ID: "2-0", Values: values})
		Expect(err).NotTo(HaveOccurred())
		Expect(out.EventID).To(Equal("evt-1"))
		Expect(out.Reason).To(Equal("expired"))
		Expect(out.TraceID).To(Equal("abc"))
		Expect(out.Attempt).To(Equal(2))
	})
})
