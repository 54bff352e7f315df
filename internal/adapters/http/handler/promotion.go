package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"luckyspot/internal/adapters/http/dto"
	"luckyspot/internal/ports/input"
	"luckyspot/internal/ports/output"
)

type PromotionHandler struct {
	promotions input.PromotionUseCase
	retry      output.PromotionQueue
}

func NewPromotionHandler(promotions input.PromotionUseCase, retry output.PromotionQueue) *PromotionHandler {
	return &PromotionHandler{promotions: promotions, retry: retry}
}

// Promote draws one replacement. A retryable failure is queued when a retry
// stream is configured and answered with 202.
func (h *PromotionHandler) Promote(c *gin.Context) {
	eventID := c.Param("eventID")
	var req dto.PromoteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	promo, err := h.promotions.Promote(c.Request.Context(), eventID, req.Reason)
	if err != nil {
		if !final(err) && enqueue(c, h.retry, eventID, req.Reason) {
			c.JSON(http.StatusAccepted, gin.H{"queued": true})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToPromotionResponse(promo))
}

func (h *PromotionHandler) Lottery(c *gin.Context) {
	var req dto.LotteryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: winners must be a positive integer")
		return
	}
	res, err := h.promotions.RunLottery(c.Request.Context(), c.Param("eventID"), req.Winners)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToLotteryResponse(res))
}

func (h *PromotionHandler) Roster(c *gin.Context) {
	r, err := h.promotions.Roster(c.Request.Context(), c.Param("eventID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToRosterResponse(r))
}

func (h *PromotionHandler) SetCapacity(c *gin.Context) {
	ctx := c.Request.Context()
	eventID := c.Param("eventID")
	var req dto.CapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: capacity must be zero or positive")
		return
	}
	if err := h.promotions.SetCapacity(ctx, eventID, *req.Capacity); err != nil {
		writeError(c, err)
		return
	}
	r, err := h.promotions.Roster(ctx, eventID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToRosterResponse(r))
}

func (h *PromotionHandler) Replacements(c *gin.Context) {
	list, err := h.promotions.Replacements(c.Request.Context(), c.Param("eventID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"replacements": dto.ToReplacementResponses(list)})
}
