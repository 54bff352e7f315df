package dto

import (
	"time"

	"luckyspot/internal/domain/entities"
)

type PromoteRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type LotteryRequest struct {
	Winners int `json:"winners" binding:"required,min=1"`
}

type CapacityRequest struct {
	Capacity *int `json:"capacity" binding:"required,min=0"`
}

type PromotionResponse struct {
	EventID string           `json:"event_id"`
	UID     string           `json:"uid"`
	Entrant *EntrantResponse `json:"entrant,omitempty"`
	DrawnAt time.Time        `json:"drawn_at"`
}

func ToPromotionResponse(p *entities.Promotion) *PromotionResponse {
	if p == nil {
		return nil
	}
	return &PromotionResponse{
		EventID: p.EventID,
		UID:     p.UID,
		Entrant: ToEntrantResponse(p.Entrant),
		DrawnAt: p.DrawnAt,
	}
}

type LotteryResponse struct {
	EventID       string            `json:"event_id"`
	Winners       []EntrantResponse `json:"winners"`
	RemainingPool int               `json:"remaining_pool"`
	RanAt         time.Time         `json:"ran_at"`
}

func ToLotteryResponse(r *entities.LotteryResult) *LotteryResponse {
	return &LotteryResponse{
		EventID:       r.EventID,
		Winners:       ToEntrantResponses(r.Winners),
		RemainingPool: r.RemainingPool,
		RanAt:         r.RanAt,
	}
}

type RosterResponse struct {
	EventID      string     `json:"event_id"`
	Capacity     int        `json:"capacity"`
	Waitlist     []string   `json:"waitlist"`
	Selected     []string   `json:"selected"`
	Cancelled    []string   `json:"cancelled"`
	Pool         []string   `json:"pool"`
	LotteryRunAt *time.Time `json:"lottery_run_at,omitempty"`
}

func ToRosterResponse(r *entities.Roster) *RosterResponse {
	return &RosterResponse{
		EventID:      r.EventID,
		Capacity:     r.Capacity,
		Waitlist:     nonNil(r.Waitlist),
		Selected:     nonNil(r.Selected),
		Cancelled:    nonNil(r.Cancelled),
		Pool:         nonNil(r.Pool()),
		LotteryRunAt: r.LotteryRunAt,
	}
}

type ReplacementResponse struct {
	UID     string    `json:"uid"`
	Reason  string    `json:"reason"`
	DrawnAt time.Time `json:"drawn_at"`
}

func ToReplacementResponses(list []entities.Replacement) []ReplacementResponse {
	out := make([]ReplacementResponse, 0, len(list))
	for _, r := range list {
		out = append(out, ReplacementResponse{UID: r.UID, Reason: r.Reason, DrawnAt: r.DrawnAt})
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
