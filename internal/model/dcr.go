package model

import (
	"time"

	"github.com/google/uuid"
)

type DCRStatus string

const (
	DCRStatusDraft     DCRStatus = "DRAFT"
	DCRStatusSubmitted DCRStatus = "SUBMITTED"
	DCRStatusAccepted  DCRStatus = "ACCEPTED"
	DCRStatusRejected  DCRStatus = "REJECTED"
)

// Editable reports whether a branch actor may still change the report.
func (s DCRStatus) Editable() bool {
	return s == DCRStatusDraft || s == DCRStatusRejected
}

type DCRHeader struct {
	ID           uuid.UUID
	BranchID     uuid.UUID
	FormID       uuid.UUID // schema snapshot used at creation
	DCRNumber    string
	DCRDate      time.Time
	Status       DCRStatus
	RejectReason *string
	CreatedBy    uuid.UUID
	UpdatedBy    uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type DCRValue struct {
	DCRID   uuid.UUID
	FieldID uuid.UUID
	Value   float64
}

// DCRSummary is the list-view projection of a header.
type DCRSummary struct {
	ID        uuid.UUID `json:"id"`
	DCRNumber string    `json:"dcrNumber"`
	DCRDate   time.Time `json:"dcrDate"`
	Status    DCRStatus `json:"status"`
}

// DCRDetail is one report with its values keyed by field key code.
type DCRDetail struct {
	ID           uuid.UUID          `json:"id"`
	BranchID     uuid.UUID          `json:"branchId"`
	DCRNumber    string             `json:"dcrNumber"`
	DCRDate      time.Time          `json:"dcrDate"`
	Status       DCRStatus          `json:"status"`
	RejectReason *string            `json:"rejectReason,omitempty"`
	Values       map[string]float64 `json:"values"`
}
