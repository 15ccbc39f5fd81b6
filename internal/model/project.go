package model

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID              uuid.UUID
	Name            string
	Location        string
	District        string
	ActiveVersionID *uuid.UUID
	CreatedByOrgID  uuid.UUID
	CreatedAt       time.Time
}
