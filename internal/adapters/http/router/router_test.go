package router_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"luckyspot/internal/adapters/http/router"
	"luckyspot/internal/application"
	"luckyspot/internal/domain"
	"luckyspot/internal/domain/entities"
	"luckyspot/internal/infrastructure/feed"
	"luckyspot/internal/infrastructure/memstore"
	"luckyspot/internal/infrastructure/metrics"
)

const base = "/api/v1/events/evt-1"

type fakeQueue struct{ reasons []string }

func (q *fakeQueue) EnqueuePromotion(_ context.Context, _, reason string) error {
	q.reasons = append(q.reasons, reason)
	return nil
}

// failingPromotions fails every draw with a transient error.
type failingPromotions struct {
	*application.PromotionService
}

func (failingPromotions) Promote(context.Context, string, string) (*entities.Promotion, error) {
	return nil, domain.ErrTransient
}

// offlineQuery fails every page read the way an unreachable database does.
type offlineQuery struct {
	*application.QueryEngine
}

func (offlineQuery) Page(context.Context, string, domain.Filter, int, int) ([]entities.Entrant, error) {
	return nil, fmt.Errorf("list all entrants: %w: %w", domain.ErrTransient,
		errors.New("dial tcp 10.0.0.5:5432: connect: connection refused"))
}

var _ = Describe("API", func() {
	var (
		store    *memstore.Store
		services router.Services
		engine   *gin.Engine
	)

	BeforeEach(func() {
		store = memstore.New(feed.NewLocal())
		cfg := application.Config{MaxAttempts: 3, InvitationTTL: time.Hour}
		reg := prometheus.NewRegistry()
		rec := metrics.New(reg)
		services = router.Services{
			Entrants:   application.NewEntrantService(store, rec, cfg),
			Promotions: application.NewPromotionService(store, nil, rec, cfg),
			Query:      application.NewQueryEngine(store, rec),
		}
		engine = router.New(services, router.RouterConfig{Gatherer: reg})
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	decode := func(w *httptest.ResponseRecorder) map[string]any {
		var out map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &out)).To(Succeed())
		return out
	}

	join := func(uid string) string {
		w := do(http.MethodPost, base+"/entrants", `{"uid":"`+uid+`"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		return decode(w)["id"].(string)
	}

	It("answers health and metrics", func() {
		Expect(do(http.MethodGet, "/health", "").Code).To(Equal(http.StatusOK))

		join("U1")
		w := do(http.MethodGet, "/metrics", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`luckyspot_transitions_total{op="join",result="ok"} 1`))
	})

	Describe("entrants", func() {
		It("joins, lists and fetches", func() {
			id := join("U1")

			w := do(http.MethodGet, base+"/entrants?filter=pending", "")
			Expect(w.Code).To(Equal(http.StatusOK))
			body := decode(w)
			Expect(body["filter"]).To(Equal("pending"))
			Expect(body["entrants"]).To(HaveLen(1))

			w = do(http.MethodGet, base+"/entrants/"+id, "")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)).To(HaveKeyWithValue("uid", "U1"))
		})

		It("refuses a duplicate join with 409", func() {
			join("U1")
			w := do(http.MethodPost, base+"/entrants", `{"uid":"U1"}`)
			Expect(w.Code).To(Equal(http.StatusConflict))
			Expect(decode(w)).To(HaveKeyWithValue("code", "entrant_exists"))
		})

		It("rejects a join without uid", func() {
			Expect(do(http.MethodPost, base+"/entrants", `{}`).Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects unknown filters and bad pages", func() {
			w := do(http.MethodGet, base+"/entrants?filter=vip", "")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(w)).To(HaveKeyWithValue("code", "invalid_filter"))

			Expect(do(http.MethodGet, base+"/entrants?limit=0", "").Code).To(Equal(http.StatusBadRequest))
			Expect(do(http.MethodGet, base+"/entrants?offset=-1", "").Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for an unknown entrant", func() {
			w := do(http.MethodGet, base+"/entrants/nope", "")
			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(decode(w)).To(HaveKeyWithValue("code", "entrant_not_found"))
		})

		It("hides backend detail behind a generic message on read failures", func() {
			services.Query = offlineQuery{}
			engine = router.New(services, router.RouterConfig{Gatherer: prometheus.NewRegistry()})

			w := do(http.MethodGet, base+"/entrants?filter=all", "")
			Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
			body := decode(w)
			Expect(body).To(HaveKeyWithValue("code", "transient"))
			Expect(body).To(HaveKeyWithValue("error", "backend unavailable"))
			Expect(w.Body.String()).NotTo(ContainSubstring("10.0.0.5"))
		})

		It("counts only badge filters", func() {
			join("U1")
			w := do(http.MethodGet, base+"/entrants/count?filter=selected", "")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)).To(HaveKeyWithValue("count", BeEquivalentTo(0)))

			w = do(http.MethodGet, base+"/entrants/count?filter=pending", "")
			Expect(decode(w)).To(HaveKeyWithValue("count", BeNil()))
		})
	})

	Describe("cancel", func() {
		It("cancels and draws a replacement", func() {
			id := join("U1")
			join("U2")

			w := do(http.MethodPost, base+"/entrants/"+id+"/cancel", `{"reason":"sick","also_promote":true}`)
			Expect(w.Code).To(Equal(http.StatusOK))
			body := decode(w)
			Expect(body["entrant"]).To(HaveKeyWithValue("status", "cancelled"))
			Expect(body["entrant"]).To(HaveKeyWithValue("cancellation_reason", "sick"))
			Expect(body["promotion"]).To(HaveKeyWithValue("uid", "U2"))
			Expect(body).NotTo(HaveKey("promote_error"))
		})

		It("reports an empty pool next to a successful cancel", func() {
			id := join("U1")
			w := do(http.MethodPost, base+"/entrants/"+id+"/cancel", `{"also_promote":true}`)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)).To(HaveKeyWithValue("promote_error", "no_waitlist_participant"))
		})

		It("accepts an empty body", func() {
			id := join("U1")
			Expect(do(http.MethodPost, base+"/entrants/"+id+"/cancel", "").Code).To(Equal(http.StatusOK))
		})

		It("refuses a second cancel with 409", func() {
			id := join("U1")
			do(http.MethodPost, base+"/entrants/"+id+"/cancel", "")
			w := do(http.MethodPost, base+"/entrants/"+id+"/cancel", "")
			Expect(w.Code).To(Equal(http.StatusConflict))
			Expect(decode(w)).To(HaveKeyWithValue("code", "not_pending"))
		})

		It("queues a failed draw when a retry stream is configured", func() {
			queue := &fakeQueue{}
			services.Retry = queue
			services.Promotions = failingPromotions{services.Promotions.(*application.PromotionService)}
			engine = router.New(services, router.RouterConfig{})

			id := join("U1")
			w := do(http.MethodPost, base+"/entrants/"+id+"/cancel", `{"also_promote":true}`)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)).To(And(HaveKeyWithValue("promote_error", "transient"), HaveKeyWithValue("queued", true)))

			w = do(http.MethodPost, base+"/promotions", "")
			Expect(w.Code).To(Equal(http.StatusAccepted))
			Expect(queue.reasons).To(HaveLen(2))
		})
	})

	Describe("invitations", func() {
		It("walks an entrant from draw to confirmation", func() {
			id := join("U1")

			w := do(http.MethodPost, base+"/promotions", `{"reason":"opening"}`)
			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(decode(w)).To(HaveKeyWithValue("uid", "U1"))

			w = do(http.MethodPost, base+"/invitations/U1", `{"accept":true}`)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)).To(HaveKeyWithValue("status", "accepted"))

			w = do(http.MethodPost, base+"/entrants/"+id+"/confirm", "")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)).To(HaveKey("confirmation_timestamp"))
		})

		It("requires an explicit answer", func() {
			Expect(do(http.MethodPost, base+"/invitations/U1", `{}`).Code).To(Equal(http.StatusBadRequest))
		})

		It("refuses an entrant that was not drawn", func() {
			join("U1")
			w := do(http.MethodPost, base+"/invitations/U1", `{"accept":false}`)
			Expect(w.Code).To(Equal(http.StatusConflict))
			Expect(decode(w)).To(HaveKeyWithValue("code", "not_invited"))
		})
	})

	Describe("roster", func() {
		It("sets capacity and runs a lottery", func() {
			join("U1")
			join("U2")
			join("U3")

			w := do(http.MethodPut, base+"/roster", `{"capacity":2}`)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)).To(HaveKeyWithValue("capacity", BeEquivalentTo(2)))

			w = do(http.MethodPost, base+"/lottery", `{"winners":5}`)
			Expect(w.Code).To(Equal(http.StatusOK))
			body := decode(w)
			Expect(body["winners"]).To(HaveLen(2))
			Expect(body["remaining_pool"]).To(BeEquivalentTo(1))

			w = do(http.MethodGet, base+"/roster", "")
			Expect(decode(w)["selected"]).To(HaveLen(2))

			w = do(http.MethodPost, base+"/promotions", "")
			Expect(w.Code).To(Equal(http.StatusConflict))
			Expect(decode(w)).To(HaveKeyWithValue("code", "capacity_full"))
		})

		It("validates capacity and winners", func() {
			Expect(do(http.MethodPut, base+"/roster", `{"capacity":-1}`).Code).To(Equal(http.StatusBadRequest))
			Expect(do(http.MethodPut, base+"/roster", `{}`).Code).To(Equal(http.StatusBadRequest))
			Expect(do(http.MethodPost, base+"/lottery", `{"winners":0}`).Code).To(Equal(http.StatusBadRequest))
		})

		It("lists replacements", func() {
			join("U1")
			do(http.MethodPost, base+"/promotions", `{"reason":"no show"}`)

			w := do(http.MethodGet, base+"/replacements", "")
			Expect(w.Code).To(Equal(http.StatusOK))
			list := decode(w)["replacements"]
			Expect(list).To(HaveLen(1))
			Expect(list).To(ContainElement(HaveKeyWithValue("reason", "no show")))
		})
	})
})
