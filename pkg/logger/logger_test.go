package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"luckyspot/pkg/logger"
)

var _ = Describe("TraceHandler", func() {
	var (
		buf *bytes.Buffer
		log *slog.Logger
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		log = slog.New(logger.NewTraceHandler(slog.NewJSONHandler(buf, nil)))
	})

	record := func() map[string]any {
		var out map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &out)).To(Succeed())
		return out
	}

	It("adds the context log fields", func() {
		ctx := logger.WithLogFields(context.Background(), logger.LogFields{
			EventID:   logger.Ptr("evt-1"),
			Component: "luckyspot.test",
		})
		ctx = logger.WithLogFields(ctx, logger.LogFields{EntrantID: logger.Ptr("E1")})

		log.InfoContext(ctx, "hello")
		Expect(record()).To(And(
			HaveKeyWithValue("event_id", "evt-1"),
			HaveKeyWithValue("entrant_id", "E1"),
			HaveKeyWithValue("component", "luckyspot.test"),
			Not(HaveKey("uid")),
		))
	})

	It("lets newer fields win", func() {
		ctx := logger.WithLogFields(context.Background(), logger.LogFields{EventID: logger.Ptr("a")})
		ctx = logger.WithLogFields(ctx, logger.LogFields{EventID: logger.Ptr("b")})

		Expect(*logger.GetLogFields(ctx).EventID).To(Equal("b"))
	})

	It("adds nothing without fields or span", func() {
		log.Info("plain")
		Expect(record()).NotTo(Or(HaveKey("trace_id"), HaveKey("event_id")))
	})

	It("keeps wrapping after WithAttrs", func() {
		ctx := logger.WithLogFields(context.Background(), logger.LogFields{UID: logger.Ptr("U1")})
		log.With("k", "v").InfoContext(ctx, "hello")
		Expect(record()).To(And(HaveKeyWithValue("uid", "U1"), HaveKeyWithValue("k", "v")))
	})
})

var _ = Describe("spans", func() {
	It("carries a propagated trace id", func() {
		const id = "4bf92f3577b34da6a3ce929d0e0e4736"
		sc := logger.StartSpanFromTraceID(context.Background(), id, "test")
		defer sc.End()
		Expect(logger.TraceID(sc.Context())).To(Equal(id))
	})

	It("starts an unlinked span for a malformed id", func() {
		sc := logger.StartSpanFromTraceID(context.Background(), "not-hex", "test")
		defer sc.End()
		Expect(logger.TraceID(sc.Context())).To(BeEmpty())
	})
})
