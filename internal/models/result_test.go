package models

import (
	"testing"

	"gorm.io/datatypes"
)

func TestCriteriaBandContains(t *testing.T) {
	band := CriteriaBand{From: 50, To: 100, Title: "Pass"}

	tests := []struct {
		pct  float64
		want bool
	}{
		{pct: 49.9, want: false},
		{pct: 50, want: true},
		{pct: 75, want: true},
		{pct: 100, want: true},
		{pct: 100.1, want: false},
	}
	for _, tt := range tests {
		if got := band.Contains(tt.pct); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.pct, got, tt.want)
		}
	}
}

func TestDecodeBands(t *testing.T) {
	t.Run("preserves stored order", func(t *testing.T) {
		raw := datatypes.JSON(`[{"from":0,"to":50,"title":"Fail"},{"from":40,"to":100,"title":"Pass"}]`)
		bands, err := DecodeBands(raw)
		if err != nil {
			t.Fatalf("DecodeBands() error = %v", err)
		}
		if len(bands) != 2 || bands[0].Title != "Fail" || bands[1].Title != "Pass" {
			t.Errorf("DecodeBands() = %+v, want Fail then Pass", bands)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		bands, err := DecodeBands(nil)
		if err != nil || bands != nil {
			t.Errorf("DecodeBands(nil) = %v, %v, want nil, nil", bands, err)
		}
	})

	t.Run("malformed input errors", func(t *testing.T) {
		if _, err := DecodeBands(datatypes.JSON(`{broken`)); err == nil {
			t.Error("DecodeBands() accepted malformed JSON")
		}
	})
}

func TestResultGradeTitle(t *testing.T) {
	pass := "Pass"
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{name: "resolved band", result: Result{GradeBand: &pass}, want: "Pass"},
		{name: "nil band", result: Result{}, want: GradeUngraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.GradeTitle(); got != tt.want {
				t.Errorf("GradeTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReducePolicyIsValid(t *testing.T) {
	for _, p := range []ReducePolicy{ReduceNone, ReduceHighest, ReduceLowest, ReduceLatest, ReduceEarliest} {
		if !p.IsValid() {
			t.Errorf("%q should be valid", p)
		}
	}
	if ReducePolicy("best-of-three").IsValid() {
		t.Error("unknown policy reported valid")
	}
}
