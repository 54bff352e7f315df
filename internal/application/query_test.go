package application_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"luckyspot/internal/application"
	"luckyspot/internal/domain"
	"luckyspot/internal/domain/entities"
	"luckyspot/internal/infrastructure/feed"
	"luckyspot/internal/infrastructure/memstore"
	"luckyspot/internal/live"
)

var _ = Describe("QueryEngine", func() {
	var (
		ctx    context.Context
		store  *memstore.Store
		engine *application.QueryEngine
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = memstore.New(feed.NewLocal(), memstore.WithClock((&clock{now: base}).Now))
		engine = application.NewQueryEngine(store, nil)
		seed(store, entities.Roster{},
			entities.Entrant{UID: "U1"},
			entities.Entrant{UID: "U2", Selected: true, SelectionTimestamp: at(1)},
			entities.Entrant{UID: "U3", Status: domain.StatusAccepted, Selected: true, SelectionTimestamp: at(2)},
			entities.Entrant{UID: "U4", Status: domain.StatusDeclined, Selected: true, SelectionTimestamp: at(3)},
			entities.Entrant{UID: "U5", Status: domain.StatusConfirmed, Selected: true, SelectionTimestamp: at(4), ConfirmationTimestamp: at(10)},
			entities.Entrant{UID: "U6", Status: domain.StatusCancelled, CancellationTimestamp: at(7), CancellationReason: "sick"},
		)
	})

	DescribeTable("lists exactly the records a filter matches, in order",
		func(f domain.Filter, want []string) {
			got, err := engine.Page(ctx, eventID, f, 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(uids(got)).To(Equal(want))

			again, _ := engine.Page(ctx, eventID, f, 0, 0)
			Expect(again).To(Equal(got))
		},
		Entry("selected", domain.FilterSelected, []string{"U5", "U4", "U3", "U2"}),
		Entry("pending", domain.FilterPending, []string{"U2", "U1"}),
		Entry("accepted", domain.FilterAccepted, []string{"U3"}),
		Entry("declined", domain.FilterDeclined, []string{"U4"}),
		Entry("confirmed", domain.FilterConfirmed, []string{"U5"}),
		Entry("cancelled", domain.FilterCancelled, []string{"U6"}),
		Entry("all", domain.FilterAll, []string{"U5", "U4", "U3", "U2", "U6", "U1"}),
	)

	It("agrees with each filter's predicate for every record", func() {
		all, _ := engine.Page(ctx, eventID, domain.FilterAll, 0, 0)
		for _, f := range domain.Filters {
			q, err := application.FilterQuery(f)
			Expect(err).NotTo(HaveOccurred())
			got, _ := engine.Page(ctx, eventID, f, 0, 0)
			for _, e := range all {
				if q.Where.Match(e) {
					Expect(uids(got)).To(ContainElement(e.UID), "filter %s", f)
				} else {
					Expect(uids(got)).NotTo(ContainElement(e.UID), "filter %s", f)
				}
			}
		}
	})

	It("orders equal confirmation times by uid descending", func() {
		const other = "evt-2"
		err := store.WithTx(ctx, other, func(tx outputTx) error {
			for _, uid := range []string{"A", "B"} {
				e := &entities.Entrant{ID: uid, UID: uid, Status: domain.StatusConfirmed, Selected: true, SelectionTimestamp: at(1), ConfirmationTimestamp: at(10)}
				if err := tx.Create(ctx, e); err != nil {
					return err
				}
			}
			return nil
		})
		Expect(err).NotTo(HaveOccurred())

		got, err := engine.Page(ctx, other, domain.FilterConfirmed, 0, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(uids(got)).To(Equal([]string{"B", "A"}))
	})

	It("pages in list order", func() {
		got, err := engine.Page(ctx, eventID, domain.FilterAll, 2, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(uids(got)).To(Equal([]string{"U4", "U3"}))
	})

	It("rejects an unknown filter", func() {
		_, err := engine.Page(ctx, eventID, domain.Filter(99), 0, 0)
		Expect(err).To(MatchError(domain.ErrInvalidFilter))
	})

	Describe("counts", func() {
		It("counts the selected and confirmed filters", func() {
			n, ok, err := engine.Count(ctx, eventID, domain.FilterSelected)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(n).To(Equal(4))

			n, ok, _ = engine.Count(ctx, eventID, domain.FilterConfirmed)
			Expect(ok).To(BeTrue())
			Expect(n).To(Equal(1))
		})

		It("has no count for the other filters", func() {
			for _, f := range []domain.Filter{domain.FilterPending, domain.FilterAccepted, domain.FilterDeclined, domain.FilterCancelled, domain.FilterAll} {
				_, ok, err := engine.Count(ctx, eventID, f)
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeFalse())

				sub, ok, err := engine.WatchCount(ctx, eventID, f)
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeFalse())
				Expect(sub).To(BeNil())
			}
		})
	})

	Describe("live", func() {
		It("pushes a fresh list after a cancellation", func() {
			sub, err := engine.Watch(ctx, eventID, domain.FilterCancelled)
			Expect(err).NotTo(HaveOccurred())
			defer sub.Close()

			Eventually(sub.Updates()).Should(Receive(WithTransform(listUIDs, Equal([]string{"U6"}))))

			entrants := application.NewEntrantService(store, nil, application.Config{MaxAttempts: 3})
			_, err = entrants.Cancel(ctx, eventID, "id-U2", "moved away")
			Expect(err).NotTo(HaveOccurred())

			Eventually(sub.Updates()).Should(Receive(WithTransform(listUIDs, Equal([]string{"U6", "U2"}))))
		})

		It("pushes a fresh count after a promotion", func() {
			sub, ok, err := engine.WatchCount(ctx, eventID, domain.FilterSelected)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			defer sub.Close()

			Eventually(sub.Updates()).Should(Receive(HaveField("Value", 4)))

			promotions := application.NewPromotionService(store, nil, nil, application.Config{MaxAttempts: 3})
			err = store.WithTx(ctx, eventID, func(tx outputTx) error {
				r, err := tx.Roster(ctx)
				if err != nil {
					return err
				}
				r.Join("U1")
				return tx.SaveRoster(ctx, r)
			})
			Expect(err).NotTo(HaveOccurred())
			_, err = promotions.Promote(ctx, eventID, "")
			Expect(err).NotTo(HaveOccurred())

			Eventually(sub.Updates()).Should(Receive(HaveField("Value", 5)))
		})
	})
})

func listUIDs(u live.Update[[]entities.Entrant]) []string { return uids(u.Value) }
