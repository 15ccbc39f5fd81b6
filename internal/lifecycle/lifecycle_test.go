package lifecycle

import (
	"errors"
	"testing"

	"github.com/lagrosa/dpwh-estimates/internal/model"
)

func TestNextVersionStatus(t *testing.T) {
	tests := []struct {
		name    string
		current model.TakeoffVersionStatus
		action  Action
		reason  string
		want    model.TakeoffVersionStatus
		wantErr error
	}{
		{"submit from draft", model.VersionStatusDraft, ActionSubmit, "", model.VersionStatusSubmitted, nil},
		{"resubmit after rejection", model.VersionStatusRejected, ActionSubmit, "", model.VersionStatusSubmitted, nil},
		{"approve from submitted", model.VersionStatusSubmitted, ActionApprove, "", model.VersionStatusApproved, nil},
		{"reject with reason", model.VersionStatusSubmitted, ActionReject, "wrong grid spacing", model.VersionStatusRejected, nil},
		{"reject without reason", model.VersionStatusSubmitted, ActionReject, "  ", "", ErrReasonRequired},
		{"supersede approved", model.VersionStatusApproved, ActionSupersede, "", model.VersionStatusSuperseded, nil},
		{"submit from approved", model.VersionStatusApproved, ActionSubmit, "", "", ErrInvalidTransition},
		{"approve from draft", model.VersionStatusDraft, ActionApprove, "", "", ErrInvalidTransition},
		{"anything from superseded", model.VersionStatusSuperseded, ActionSubmit, "", "", ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextVersionStatus(tt.current, tt.action, tt.reason)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("next = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNextEstimateStatus(t *testing.T) {
	tests := []struct {
		name    string
		current model.CostEstimateStatus
		action  Action
		want    model.CostEstimateStatus
		wantErr bool
	}{
		{"submit from draft", model.EstimateStatusDraft, ActionSubmit, model.EstimateStatusSubmitted, false},
		{"approve from submitted", model.EstimateStatusSubmitted, ActionApprove, model.EstimateStatusApproved, false},
		{"approve from draft", model.EstimateStatusDraft, ActionApprove, "", true},
		{"submit from approved", model.EstimateStatusApproved, ActionSubmit, "", true},
		{"reject is not an estimate action", model.EstimateStatusSubmitted, ActionReject, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextEstimateStatus(tt.current, tt.action)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("err = %v, want ErrInvalidTransition", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("next = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEditAndGenerationGates(t *testing.T) {
	editable := map[model.TakeoffVersionStatus]bool{
		model.VersionStatusDraft:      true,
		model.VersionStatusRejected:   true,
		model.VersionStatusSubmitted:  false,
		model.VersionStatusApproved:   false,
		model.VersionStatusSuperseded: false,
	}
	for status, want := range editable {
		if got := CanEditVersion(status); got != want {
			t.Errorf("CanEditVersion(%s) = %v, want %v", status, got, want)
		}
	}

	generable := map[model.TakeoffVersionStatus]bool{
		model.VersionStatusDraft:      true,
		model.VersionStatusSubmitted:  true,
		model.VersionStatusApproved:   true,
		model.VersionStatusRejected:   false,
		model.VersionStatusSuperseded: false,
	}
	for status, want := range generable {
		if got := CanGenerateFor(status); got != want {
			t.Errorf("CanGenerateFor(%s) = %v, want %v", status, got, want)
		}
	}

	if CanDeleteEstimate(model.EstimateStatusApproved) {
		t.Error("CanDeleteEstimate(approved) = true, want false")
	}
	if !CanDeleteEstimate(model.EstimateStatusDraft) {
		t.Error("CanDeleteEstimate(draft) = false, want true")
	}
}

func TestParseAction(t *testing.T) {
	if action, ok := ParseAction(" Approve "); !ok || action != ActionApprove {
		t.Errorf("ParseAction(Approve) = (%q, %v)", action, ok)
	}
	if _, ok := ParseAction("archive"); ok {
		t.Error("ParseAction(archive) accepted an unknown action")
	}
}
