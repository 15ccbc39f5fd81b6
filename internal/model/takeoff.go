package model

import (
	"time"

	"github.com/google/uuid"
)

type TakeoffVersionStatus string

const (
	VersionStatusDraft      TakeoffVersionStatus = "DRAFT"
	VersionStatusSubmitted  TakeoffVersionStatus = "SUBMITTED"
	VersionStatusApproved   TakeoffVersionStatus = "APPROVED"
	VersionStatusRejected   TakeoffVersionStatus = "REJECTED"
	VersionStatusSuperseded TakeoffVersionStatus = "SUPERSEDED"
)

// TakeoffVersion is a frozen snapshot of a project's design takeoff. The BOQ
// lines attached to it are the immutable input of estimate generation.
type TakeoffVersion struct {
	ID              uuid.UUID
	ProjectID       uuid.UUID
	VersionNumber   int
	Status          TakeoffVersionStatus
	Remarks         *string
	RejectionReason *string
	SubmittedByID   *uuid.UUID
	SubmittedAt     *time.Time
	ApprovedByID    *uuid.UUID
	ApprovedAt      *time.Time
	CreatedByUserID uuid.UUID
	CreatedAt       time.Time
}

type BOQLine struct {
	ID               uuid.UUID
	TakeoffVersionID uuid.UUID
	PayItemNumber    string
	Description      string
	Unit             string
	Quantity         float64
	SortOrder        int
}
