package model

import "github.com/google/uuid"

type Role string

const (
	RoleEstimator Role = "ESTIMATOR"
	RoleReviewer  Role = "REVIEWER"
	RoleAdmin     Role = "ADMIN"
	RoleViewer    Role = "VIEWER"
)

type Principal struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Role   Role
}

func (p Principal) IsEstimator() bool { return p.Role == RoleEstimator || p.Role == RoleAdmin }
func (p Principal) IsReviewer() bool  { return p.Role == RoleReviewer || p.Role == RoleAdmin }
func (p Principal) IsAdmin() bool     { return p.Role == RoleAdmin }
