package quality

import "testing"

func TestScorePerfect(t *testing.T) {
	report := NewScorer().Score(0.9, 10, 20, 0.5, 4)
	if report.Score != 100 {
		t.Fatalf("score = %v, want 100", report.Score)
	}
	if len(report.Issues) != 0 {
		t.Fatalf("unexpected issues: %v", report.Issues)
	}
}

func TestScorePenalties(t *testing.T) {
	// Low confidence -15, few sections -20, few chunks -10, low metadata -15.
	report := NewScorer().Score(0.5, 1, 2, 0.1, 0)
	if report.Score != 40 {
		t.Fatalf("score = %v, want 40", report.Score)
	}
	if len(report.Issues) != 4 {
		t.Fatalf("expected 4 issues, got %v", report.Issues)
	}
}

func TestScoreZeroReferencesWithChunks(t *testing.T) {
	report := NewScorer().Score(0.9, 5, 10, 0.5, 0)
	if report.Score != 95 {
		t.Fatalf("score = %v, want 95", report.Score)
	}
}

func TestScoreNeverNegative(t *testing.T) {
	report := NewScorer().Score(0, 0, 0, 0, 0)
	if report.Score < 0 {
		t.Fatalf("score must not go negative, got %v", report.Score)
	}
}
