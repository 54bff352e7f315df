package dto

import (
	"time"

	"luckyspot/internal/domain/entities"
)

type JoinRequest struct {
	UID   string `json:"uid" binding:"required,max=255"`
	Name  string `json:"name" binding:"max=255"`
	Email string `json:"email" binding:"omitempty,email,max=255"`
}

type CancelRequest struct {
	Reason      string `json:"reason" binding:"max=500"`
	AlsoPromote bool   `json:"also_promote"`
}

type RespondRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

type EntrantResponse struct {
	ID                    string     `json:"id"`
	EventID               string     `json:"event_id"`
	UID                   string     `json:"uid"`
	Name                  string     `json:"name,omitempty"`
	Email                 string     `json:"email,omitempty"`
	Status                string     `json:"status"`
	Selected              bool       `json:"selected"`
	SelectionTimestamp    *time.Time `json:"selection_timestamp,omitempty"`
	ConfirmationTimestamp *time.Time `json:"confirmation_timestamp,omitempty"`
	InvitationExpiry      *time.Time `json:"invitation_expiry,omitempty"`
	CancellationTimestamp *time.Time `json:"cancellation_timestamp,omitempty"`
	CancellationReason    string     `json:"cancellation_reason,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func ToEntrantResponse(e *entities.Entrant) *EntrantResponse {
	if e == nil {
		return nil
	}
	return &EntrantResponse{
		ID:                    e.ID,
		EventID:               e.EventID,
		UID:                   e.UID,
		Name:                  e.Name,
		Email:                 e.Email,
		Status:                e.Status.String(),
		Selected:              e.Selected,
		SelectionTimestamp:    e.SelectionTimestamp,
		ConfirmationTimestamp: e.ConfirmationTimestamp,
		InvitationExpiry:      e.InvitationExpiry,
		CancellationTimestamp: e.CancellationTimestamp,
		CancellationReason:    e.CancellationReason,
		CreatedAt:             e.CreatedAt,
		UpdatedAt:             e.UpdatedAt,
	}
}

func ToEntrantResponses(list []entities.Entrant) []EntrantResponse {
	out := make([]EntrantResponse, 0, len(list))
	for i := range list {
		out = append(out, *ToEntrantResponse(&list[i]))
	}
	return out
}

type EntrantListResponse struct {
	Filter   string            `json:"filter"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
	Entrants []EntrantResponse `json:"entrants"`
}

// CountResponse carries no count for filters without a badge.
type CountResponse struct {
	Filter string `json:"filter"`
	Count  *int   `json:"count"`
}

type CancelResponse struct {
	Entrant      *EntrantResponse   `json:"entrant"`
	Promotion    *PromotionResponse `json:"promotion,omitempty"`
	PromoteError string             `json:"promote_error,omitempty"`
	Queued       bool               `json:"queued,omitempty"`
}
