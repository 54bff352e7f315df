package viewmodel_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"luckyspot/internal/application"
	"luckyspot/internal/domain"
	"luckyspot/internal/domain/entities"
	"luckyspot/internal/infrastructure/feed"
	"luckyspot/internal/infrastructure/i18n"
	"luckyspot/internal/infrastructure/memstore"
	"luckyspot/internal/live"
	"luckyspot/internal/ports/input"
	"luckyspot/internal/ports/output"
	"luckyspot/internal/viewmodel"
)

const eventID = "evt-1"

type fakeQueue struct {
	mu      sync.Mutex
	reasons []string
	err     error
}

func (q *fakeQueue) EnqueuePromotion(_ context.Context, _, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reasons = append(q.reasons, reason)
	return q.err
}

// brokenPromotions fails every draw with a transient error.
type brokenPromotions struct {
	input.PromotionUseCase
}

func (brokenPromotions) Promote(context.Context, string, string) (*entities.Promotion, error) {
	return nil, domain.ErrTransient
}

// brokenQuery fails to open any list.
type brokenQuery struct {
	input.QueryUseCase
}

func (brokenQuery) Watch(context.Context, string, domain.Filter) (*live.Subscription[[]entities.Entrant], error) {
	return nil, errors.New("store offline")
}

func (brokenQuery) WatchCount(context.Context, string, domain.Filter) (*live.Subscription[int], bool, error) {
	return nil, false, nil
}

var _ = Describe("EntrantList", func() {
	var (
		ctx     context.Context
		changes *feed.Local
		store   *memstore.Store
		deps  viewmodel.Deps
		vm    *viewmodel.EntrantList
	)

	BeforeEach(func() {
		ctx = context.Background()
		changes = feed.NewLocal()
		store = memstore.New(changes)
		cfg := application.Config{MaxAttempts: 3, InvitationTTL: time.Hour}
		deps = viewmodel.Deps{
			Query:      application.NewQueryEngine(store, nil),
			Entrants:   application.NewEntrantService(store, nil, cfg),
			Promotions: application.NewPromotionService(store, nil, nil, cfg),
			T:          i18n.NewTranslator("en"),
			Locale:     "en",
		}

		drawnAt := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
		err := store.WithTx(ctx, eventID, func(tx output.EntrantTx) error {
			for _, e := range []entities.Entrant{
				{ID: "E1", UID: "U1", Status: domain.StatusPending, Selected: true, SelectionTimestamp: &drawnAt},
				{ID: "E2", UID: "U2", Status: domain.StatusConfirmed, Selected: true, SelectionTimestamp: &drawnAt},
				{ID: "E3", UID: "U3", Status: domain.StatusPending},
			} {
				if err := tx.Create(ctx, &e); err != nil {
					return err
				}
			}
			return tx.SaveRoster(ctx, &entities.Roster{
				Waitlist: []string{"U3"},
				Selected: []string{"U1", "U2"},
			})
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if vm != nil {
			vm.Close()
			vm = nil
		}
	})

	open := func(f domain.Filter) {
		vm = viewmodel.New(ctx, deps, eventID, f)
	}

	It("loads the initial filter and its count", func() {
		open(domain.FilterSelected)

		Eventually(vm.Loading.Get).Should(BeFalse())
		Eventually(func() []string { return uids(vm.Entrants.Get()) }).Should(ConsistOf("U1", "U2"))
		Eventually(vm.CountLabel.Get).Should(Equal("Selected: 2"))
	})

	It("has no count label for filters without a badge", func() {
		open(domain.FilterPending)

		Eventually(func() []string { return uids(vm.Entrants.Get()) }).Should(ConsistOf("U1", "U3"))
		Consistently(vm.CountLabel.Get, 100*time.Millisecond).Should(BeEmpty())
	})

	It("switches filters and ignores the current one", func() {
		open(domain.FilterSelected)
		Eventually(vm.CountLabel.Get).Should(Equal("Selected: 2"))

		vm.SetFilter(domain.FilterSelected)
		Expect(vm.Filter()).To(Equal(domain.FilterSelected))

		vm.SelectFilter("confirmed")
		Expect(vm.Filter()).To(Equal(domain.FilterConfirmed))
		Eventually(func() []string { return uids(vm.Entrants.Get()) }).Should(Equal([]string{"U2"}))
		Eventually(vm.CountLabel.Get).Should(Equal("Confirmed: 1"))
	})

	It("refreshes the list and count after a cancellation", func() {
		open(domain.FilterSelected)
		Eventually(vm.CountLabel.Get).Should(Equal("Selected: 2"))

		var out viewmodel.CancelOutcome
		Eventually(vm.Cancel("E1", "sick", false)).Should(Receive(&out))
		Expect(out.Err).NotTo(HaveOccurred())
		Expect(out.Entrant.Status).To(Equal(domain.StatusCancelled))

		Eventually(vm.CountLabel.Get).Should(Equal("Selected: 1"))
		Eventually(vm.Toast.Get).Should(Equal("Entrant cancelled"))
	})

	It("draws a replacement after a cancellation", func() {
		open(domain.FilterSelected)

		var out viewmodel.CancelOutcome
		Eventually(vm.Cancel("E1", "sick", true)).Should(Receive(&out))
		Expect(out.Err).NotTo(HaveOccurred())
		Expect(out.PromoteErr).NotTo(HaveOccurred())
		Expect(out.Promotion.UID).To(Equal("U3"))

		Eventually(vm.Toast.Get).Should(Equal("Entrant cancelled. U3 was drawn from the waiting list"))
		Eventually(vm.CountLabel.Get).Should(Equal("Selected: 2"))

		log, _ := store.Replacements(ctx, eventID)
		Expect(log).To(HaveLen(1))
		Expect(log[0].Reason).To(Equal(viewmodel.ReplacementReason))
	})

	It("reports a cancellation refused by the record state", func() {
		open(domain.FilterSelected)

		var out viewmodel.CancelOutcome
		Eventually(vm.Cancel("E2", "x", true)).Should(Receive(&out))
		Expect(out.Err).To(MatchError(domain.ErrNotPending))
		Expect(out.Promotion).To(BeNil())
		Eventually(vm.Toast.Get).Should(Equal("Only pending entrants can be cancelled"))
	})

	It("reports an empty waiting list", func() {
		open(domain.FilterSelected)

		Eventually(vm.RequestPromotion()).Should(Receive())
		Eventually(vm.RequestPromotion()).Should(Receive(HaveField("Err", MatchError(domain.ErrNoWaitlistParticipant))))
		Eventually(vm.Toast.Get).Should(Equal("Nobody is left on the waiting list"))
	})

	Context("when the draw fails", func() {
		var queue *fakeQueue

		BeforeEach(func() {
			queue = &fakeQueue{}
			deps.Promotions = brokenPromotions{PromotionUseCase: deps.Promotions}
			deps.Retry = queue
		})

		It("queues the draw for retry and keeps the cancellation", func() {
			open(domain.FilterSelected)

			var out viewmodel.CancelOutcome
			Eventually(vm.Cancel("E1", "", true)).Should(Receive(&out))
			Expect(out.Err).NotTo(HaveOccurred())
			Expect(out.PromoteErr).To(MatchError(domain.ErrTransient))
			Expect(out.Queued).To(BeTrue())
			Expect(queue.reasons).To(Equal([]string{viewmodel.ReplacementReason}))
			Eventually(vm.Toast.Get).Should(Equal("Entrant cancelled. The replacement draw will be retried"))

			e, _ := store.Get(ctx, eventID, "E1")
			Expect(e.Status).To(Equal(domain.StatusCancelled))
		})

		It("says so when the retry queue is unavailable", func() {
			queue.err = errors.New("redis down")
			open(domain.FilterSelected)

			var out viewmodel.PromotionOutcome
			Eventually(vm.RequestPromotion()).Should(Receive(&out))
			Expect(out.Queued).To(BeFalse())
			Eventually(vm.Toast.Get).Should(Equal("Replacement draw failed"))
		})
	})

	It("stops loading and shows a toast when the list cannot open", func() {
		deps.Query = brokenQuery{}
		open(domain.FilterSelected)

		Expect(vm.Loading.Get()).To(BeFalse())
		Expect(vm.Toast.Get()).To(Equal("Failed to load entrants"))
	})

	It("keeps one list and one count subscription across filter switches", func() {
		open(domain.FilterSelected)
		Eventually(vm.CountLabel.Get).Should(Equal("Selected: 2"))
		Expect(changes.Subscribers(eventID)).To(Equal(2))

		for _, f := range []domain.Filter{domain.FilterConfirmed, domain.FilterAll, domain.FilterCancelled, domain.FilterSelected} {
			vm.SetFilter(f)
		}
		Eventually(vm.CountLabel.Get).Should(Equal("Selected: 2"))
		Eventually(func() int { return changes.Subscribers(eventID) }).Should(Equal(2))

		vm.Close()
		Expect(changes.Subscribers(eventID)).To(BeZero())
	})

	It("emits nothing after Close", func() {
		open(domain.FilterSelected)
		Eventually(vm.CountLabel.Get).Should(Equal("Selected: 2"))

		labels, _ := vm.CountLabel.Subscribe()
		Expect(labels).To(Receive())
		vm.Close()
		Eventually(labels).Should(BeClosed())

		_, err := deps.Entrants.Cancel(ctx, eventID, "E1", "after close")
		Expect(err).NotTo(HaveOccurred())
		Consistently(vm.CountLabel.Get, 100*time.Millisecond).Should(Equal("Selected: 2"))

		vm.SetFilter(domain.FilterAll)
		Expect(vm.Filter()).To(Equal(domain.FilterSelected))
		vm = nil
	})
})

func uids(es []entities.Entrant) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.UID)
	}
	return out
}
