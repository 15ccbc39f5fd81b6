// Package lifecycle defines the legal status transitions of takeoff versions
// and cost estimates as a single FSM table, instead of per-action guard
// checks scattered across the service layer.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lagrosa/dpwh-estimates/internal/model"
)

type Action string

const (
	ActionSubmit    Action = "submit"
	ActionApprove   Action = "approve"
	ActionReject    Action = "reject"
	ActionSupersede Action = "supersede"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrReasonRequired    = errors.New("rejection reason is required")
)

type versionTransition struct {
	next           model.TakeoffVersionStatus
	requiresReason bool
}

// A rejected version is re-editable and may be resubmitted, mirroring draft.
// Superseded is terminal.
var versionTransitions = map[model.TakeoffVersionStatus]map[Action]versionTransition{
	model.VersionStatusDraft: {
		ActionSubmit: {next: model.VersionStatusSubmitted},
	},
	model.VersionStatusRejected: {
		ActionSubmit: {next: model.VersionStatusSubmitted},
	},
	model.VersionStatusSubmitted: {
		ActionApprove: {next: model.VersionStatusApproved},
		ActionReject:  {next: model.VersionStatusRejected, requiresReason: true},
	},
	model.VersionStatusApproved: {
		ActionSupersede: {next: model.VersionStatusSuperseded},
	},
}

var estimateTransitions = map[model.CostEstimateStatus]map[Action]model.CostEstimateStatus{
	model.EstimateStatusDraft: {
		ActionSubmit: model.EstimateStatusSubmitted,
	},
	model.EstimateStatusSubmitted: {
		ActionApprove: model.EstimateStatusApproved,
	},
}

// ParseAction maps a request string onto a lifecycle action.
func ParseAction(raw string) (Action, bool) {
	switch Action(strings.ToLower(strings.TrimSpace(raw))) {
	case ActionSubmit:
		return ActionSubmit, true
	case ActionApprove:
		return ActionApprove, true
	case ActionReject:
		return ActionReject, true
	case ActionSupersede:
		return ActionSupersede, true
	default:
		return "", false
	}
}

// NextVersionStatus validates an action against the current version status
// and returns the resulting status. Illegal transitions come back as a
// descriptive error, never as a silent no-op.
func NextVersionStatus(current model.TakeoffVersionStatus, action Action, reason string) (model.TakeoffVersionStatus, error) {
	transition, ok := versionTransitions[current][action]
	if !ok {
		return "", fmt.Errorf("%w: cannot %s a %s takeoff version", ErrInvalidTransition, action, strings.ToLower(string(current)))
	}
	if transition.requiresReason && strings.TrimSpace(reason) == "" {
		return "", ErrReasonRequired
	}
	return transition.next, nil
}

// NextEstimateStatus is the estimate counterpart of NextVersionStatus.
func NextEstimateStatus(current model.CostEstimateStatus, action Action) (model.CostEstimateStatus, error) {
	next, ok := estimateTransitions[current][action]
	if !ok {
		return "", fmt.Errorf("%w: cannot %s a %s cost estimate", ErrInvalidTransition, action, strings.ToLower(string(current)))
	}
	return next, nil
}

// CanEditVersion reports whether a version's fields may still change. Only
// draft and rejected versions accept edits or deletion.
func CanEditVersion(status model.TakeoffVersionStatus) bool {
	return status == model.VersionStatusDraft || status == model.VersionStatusRejected
}

// CanGenerateFor reports whether estimates may be generated against a
// version. Rejected and superseded versions refuse generation.
func CanGenerateFor(status model.TakeoffVersionStatus) bool {
	switch status {
	case model.VersionStatusDraft, model.VersionStatusSubmitted, model.VersionStatusApproved:
		return true
	default:
		return false
	}
}

// CanDeleteEstimate blocks deletion once an estimate is approved.
func CanDeleteEstimate(status model.CostEstimateStatus) bool {
	return status != model.EstimateStatusApproved
}
