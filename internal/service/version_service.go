package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lagrosa/dpwh-estimates/internal/lifecycle"
	"github.com/lagrosa/dpwh-estimates/internal/model"
)

type VersionStore interface {
	GetVersion(ctx context.Context, id uuid.UUID) (*model.TakeoffVersion, error)
	SubmitVersion(ctx context.Context, versionID uuid.UUID, from model.TakeoffVersionStatus, submitterID uuid.UUID, at time.Time) (bool, error)
	ApproveVersion(ctx context.Context, versionID, projectID, approverID uuid.UUID, at time.Time) (bool, error)
	RejectVersion(ctx context.Context, versionID uuid.UUID, reason string) (bool, error)
	SupersedeVersion(ctx context.Context, versionID uuid.UUID) (bool, error)
	UpdateVersionRemarks(ctx context.Context, versionID uuid.UUID, remarks string) error
	CountEstimatesForVersion(ctx context.Context, versionID uuid.UUID) (int64, error)
	DeleteVersion(ctx context.Context, versionID uuid.UUID, current model.TakeoffVersionStatus) (bool, error)
}

// VersionService owns the TakeoffVersion side of the lifecycle: transitions,
// mutability rules, and the single-active-version swap on approval.
type VersionService struct {
	versions VersionStore
	log      zerolog.Logger
}

func NewVersionService(versions VersionStore, log zerolog.Logger) *VersionService {
	return &VersionService{versions: versions, log: log}
}

// TransitionVersionStatus validates an action against the current persisted
// status and applies it. The repository re-checks the status on write, so of
// two racing transitions exactly one wins and the loser gets ErrConflict.
func (s *VersionService) TransitionVersionStatus(
	ctx context.Context,
	versionID uuid.UUID,
	action lifecycle.Action,
	principal model.Principal,
	reason string,
) (*model.TakeoffVersion, error) {
	switch action {
	case lifecycle.ActionSubmit:
		if !principal.IsEstimator() {
			return nil, ErrPermissionDenied
		}
	case lifecycle.ActionApprove, lifecycle.ActionReject, lifecycle.ActionSupersede:
		if !principal.IsReviewer() {
			return nil, ErrPermissionDenied
		}
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}

	version, err := s.versions.GetVersion(ctx, versionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: takeoff version", ErrNotFound)
		}
		return nil, err
	}

	if _, err := lifecycle.NextVersionStatus(version.Status, action, reason); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	var updated bool
	switch action {
	case lifecycle.ActionSubmit:
		updated, err = s.versions.SubmitVersion(ctx, versionID, version.Status, principal.UserID, now)
	case lifecycle.ActionApprove:
		updated, err = s.versions.ApproveVersion(ctx, versionID, version.ProjectID, principal.UserID, now)
	case lifecycle.ActionReject:
		updated, err = s.versions.RejectVersion(ctx, versionID, strings.TrimSpace(reason))
	case lifecycle.ActionSupersede:
		updated, err = s.versions.SupersedeVersion(ctx, versionID)
	}
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, fmt.Errorf("%w: version status is no longer %s", ErrConflict, version.Status)
	}

	s.log.Info().
		Str("takeoff_version_id", versionID.String()).
		Str("action", string(action)).
		Str("actor", principal.UserID.String()).
		Msg("takeoff version transitioned")

	return s.versions.GetVersion(ctx, versionID)
}

// UpdateRemarks edits a version's remarks; only draft and rejected versions
// accept edits.
func (s *VersionService) UpdateRemarks(ctx context.Context, versionID uuid.UUID, remarks string, principal model.Principal) (*model.TakeoffVersion, error) {
	if !principal.IsEstimator() {
		return nil, ErrPermissionDenied
	}
	version, err := s.versions.GetVersion(ctx, versionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: takeoff version", ErrNotFound)
		}
		return nil, err
	}
	if !lifecycle.CanEditVersion(version.Status) {
		return nil, fmt.Errorf("%w: a %s version cannot be edited",
			ErrInvalidInput, strings.ToLower(string(version.Status)))
	}
	if err := s.versions.UpdateVersionRemarks(ctx, versionID, remarks); err != nil {
		return nil, err
	}
	return s.versions.GetVersion(ctx, versionID)
}

// DeleteVersion removes a draft or rejected version, provided no cost
// estimate references it.
func (s *VersionService) DeleteVersion(ctx context.Context, versionID uuid.UUID, principal model.Principal) error {
	if !principal.IsEstimator() {
		return ErrPermissionDenied
	}
	version, err := s.versions.GetVersion(ctx, versionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: takeoff version", ErrNotFound)
		}
		return err
	}
	if !lifecycle.CanEditVersion(version.Status) {
		return fmt.Errorf("%w: a %s version cannot be deleted",
			ErrInvalidInput, strings.ToLower(string(version.Status)))
	}
	dependents, err := s.versions.CountEstimatesForVersion(ctx, versionID)
	if err != nil {
		return err
	}
	if dependents > 0 {
		return fmt.Errorf("%w: %d cost estimate(s) reference this version", ErrInvalidInput, dependents)
	}
	deleted, err := s.versions.DeleteVersion(ctx, versionID, version.Status)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: version status is no longer %s", ErrConflict, version.Status)
	}
	return nil
}
