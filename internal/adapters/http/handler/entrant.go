package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"luckyspot/internal/adapters/http/dto"
	"luckyspot/internal/domain"
	"luckyspot/internal/ports/input"
	"luckyspot/internal/ports/output"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// CancelReplacementReason is logged for draws chained to an API cancellation.
const CancelReplacementReason = "Replacement for cancelled entrant"

type EntrantHandler struct {
	entrants   input.EntrantUseCase
	promotions input.PromotionUseCase
	query      input.QueryUseCase
	retry      output.PromotionQueue
}

func NewEntrantHandler(entrants input.EntrantUseCase, promotions input.PromotionUseCase, query input.QueryUseCase, retry output.PromotionQueue) *EntrantHandler {
	return &EntrantHandler{
		entrants:   entrants,
		promotions: promotions,
		query:      query,
		retry:      retry,
	}
}

// List returns one page of the entrants matching ?filter, in the filter's
// order.
func (h *EntrantHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	f, ok := parseFilter(c)
	if !ok {
		return
	}
	limit, offset, ok := parsePage(c)
	if !ok {
		return
	}

	list, err := h.query.Page(ctx, c.Param("eventID"), f, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.EntrantListResponse{
		Filter:   f.String(),
		Limit:    limit,
		Offset:   offset,
		Entrants: dto.ToEntrantResponses(list),
	})
}

func (h *EntrantHandler) Count(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}
	n, countable, err := h.query.Count(c.Request.Context(), c.Param("eventID"), f)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := dto.CountResponse{Filter: f.String()}
	if countable {
		resp.Count = &n
	}
	c.JSON(http.StatusOK, resp)
}

func (h *EntrantHandler) Join(c *gin.Context) {
	var req dto.JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: uid is required")
		return
	}
	e, err := h.entrants.Join(c.Request.Context(), c.Param("eventID"), req.UID, req.Name, req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToEntrantResponse(e))
}

func (h *EntrantHandler) Get(c *gin.Context) {
	e, err := h.entrants.Get(c.Request.Context(), c.Param("eventID"), c.Param("entrantID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToEntrantResponse(e))
}

// Cancel cancels a pending entrant and optionally draws a replacement. A
// failed draw is reported next to the cancelled entrant, never as a failure
// of the request.
func (h *EntrantHandler) Cancel(c *gin.Context) {
	ctx := c.Request.Context()
	eventID := c.Param("eventID")

	var req dto.CancelRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	e, err := h.entrants.Cancel(ctx, eventID, c.Param("entrantID"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := dto.CancelResponse{Entrant: dto.ToEntrantResponse(e)}
	if req.AlsoPromote {
		promo, err := h.promotions.Promote(ctx, eventID, CancelReplacementReason)
		if err != nil {
			resp.PromoteError = domain.Code(err)
			if resp.PromoteError == "" {
				resp.PromoteError = "internal"
			}
			if final(err) {
				c.JSON(http.StatusOK, resp)
				return
			}
			resp.Queued = enqueue(c, h.retry, eventID, CancelReplacementReason)
		}
		resp.Promotion = dto.ToPromotionResponse(promo)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *EntrantHandler) Confirm(c *gin.Context) {
	e, err := h.entrants.Confirm(c.Request.Context(), c.Param("eventID"), c.Param("entrantID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToEntrantResponse(e))
}

// Respond answers the invitation of the entrant identified by :uid.
func (h *EntrantHandler) Respond(c *gin.Context) {
	var req dto.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: accept is required")
		return
	}
	e, err := h.entrants.Respond(c.Request.Context(), c.Param("eventID"), c.Param("uid"), *req.Accept)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToEntrantResponse(e))
}

func parseFilter(c *gin.Context) (domain.Filter, bool) {
	f, ok := domain.ParseFilter(c.Query("filter"))
	if !ok {
		writeError(c, domain.ErrInvalidFilter)
		return f, false
	}
	return f, true
}

func parsePage(c *gin.Context) (limit, offset int, ok bool) {
	limit, offset = defaultPageSize, 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(c, "limit must be a positive integer")
			return 0, 0, false
		}
		limit = min(n, maxPageSize)
	}
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "offset must be zero or positive")
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}

// final reports whether a draw failure cannot be fixed by retrying.
func final(err error) bool {
	return errors.Is(err, domain.ErrNoWaitlistParticipant) || errors.Is(err, domain.ErrCapacityFull)
}

func enqueue(c *gin.Context, retry output.PromotionQueue, eventID, reason string) bool {
	if retry == nil {
		return false
	}
	ctx := c.Request.Context()
	if err := retry.EnqueuePromotion(ctx, eventID, reason); err != nil {
		slog.ErrorContext(ctx, "queueing replacement draw failed", "event_id", eventID, "error", err)
		return false
	}
	return true
}
