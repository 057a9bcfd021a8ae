package services

import (
	"testing"

	"github.com/reospicespowders/product-backend-sub002/internal/models"
)

func reducerResult(id uint, email string, percentage int) *models.Result {
	return &models.Result{ID: id, RespondentEmail: email, Percentage: percentage}
}

func TestReduceResults(t *testing.T) {
	twoAttempts := []*models.Result{
		reducerResult(1, "a@x.com", 60),
		reducerResult(2, "a@x.com", 90),
	}

	tests := []struct {
		name    string
		results []*models.Result
		policy  models.ReducePolicy
		wantIDs []uint
	}{
		{name: "highest keeps the better percentage", results: twoAttempts, policy: models.ReduceHighest, wantIDs: []uint{2}},
		{name: "lowest keeps the worse percentage", results: twoAttempts, policy: models.ReduceLowest, wantIDs: []uint{1}},
		{name: "latest keeps the newest row", results: twoAttempts, policy: models.ReduceLatest, wantIDs: []uint{2}},
		{name: "earliest keeps the oldest row", results: twoAttempts, policy: models.ReduceEarliest, wantIDs: []uint{1}},
		{name: "empty policy passes everything through", results: twoAttempts, policy: models.ReduceNone, wantIDs: []uint{1, 2}},
		{
			name: "ties keep the earlier record",
			results: []*models.Result{
				reducerResult(1, "a@x.com", 70),
				reducerResult(2, "a@x.com", 70),
			},
			policy:  models.ReduceHighest,
			wantIDs: []uint{1},
		},
		{
			name: "respondents stay in first-seen order",
			results: []*models.Result{
				reducerResult(1, "b@x.com", 30),
				reducerResult(2, "a@x.com", 80),
				reducerResult(3, "b@x.com", 95),
			},
			policy:  models.ReduceHighest,
			wantIDs: []uint{3, 2},
		},
		{name: "empty input", results: nil, policy: models.ReduceHighest, wantIDs: []uint{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReduceResults(tt.results, tt.policy)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("ReduceResults() returned %d results, want %d", len(got), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got[i].ID != want {
					t.Errorf("ReduceResults()[%d].ID = %d, want %d", i, got[i].ID, want)
				}
			}
		})
	}
}
