package applications

import (
	"errors"
	"testing"

	"pet-adoption/internal/domain/pets"
)

func apps(statuses ...Status) []Application {
	out := make([]Application, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, Application{Status: s})
	}
	return out
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		history []Application
		want    Eligibility
		wantErr error
	}{
		{"empty", nil, EligibilityNone, nil},
		{"rejected", apps(StatusRejected), EligibilityPriorRejected, ErrDuplicateRejected},
		{"pending", apps(StatusPending), EligibilityPriorPending, ErrAlreadyPending},
		{"approved", apps(StatusApproved), EligibilityPriorApproved, ErrAlreadyApproved},
		{"dirty pending beats rejected", apps(StatusRejected, StatusPending), EligibilityPriorPending, ErrAlreadyPending},
		{"dirty approved wins", apps(StatusPending, StatusApproved, StatusRejected), EligibilityPriorApproved, ErrAlreadyApproved},
		{"unknown status ignored", apps(Status("Withdrawn")), EligibilityNone, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.history)
			if got != tc.want {
				t.Fatalf("Classify = %s, want %s", got, tc.want)
			}
			if err := got.Err(); !errors.Is(err, tc.wantErr) {
				t.Fatalf("Err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestRecomputeStatus(t *testing.T) {
	cases := []struct {
		name string
		in   []Application
		want pets.Status
	}{
		{"no applications", nil, pets.StatusAvailable},
		{"only rejected", apps(StatusRejected, StatusRejected), pets.StatusAvailable},
		{"one pending", apps(StatusRejected, StatusPending), pets.StatusPending},
		{"approved wins", apps(StatusPending, StatusApproved), pets.StatusAdopted},
		{"approved first", apps(StatusApproved, StatusRejected), pets.StatusAdopted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RecomputeStatus(tc.in); got != tc.want {
				t.Fatalf("RecomputeStatus = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	if !StatusPending.Active() || StatusRejected.Active() {
		t.Fatalf("Active: only Pending/Approved are active")
	}
	if StatusPending.Decided() || !StatusApproved.Decided() || !StatusRejected.Decided() {
		t.Fatalf("Decided: Approved/Rejected only")
	}
	if Status("nope").Valid() {
		t.Fatalf("unknown status must be invalid")
	}
}
