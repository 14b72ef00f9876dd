package domain

import (
	"testing"
	"testing/quick"
)

func TestNormalizeStatusKnownValues(t *testing.T) {
	cases := []struct {
		raw  string
		want Status
	}{
		{"new", StatusNew},
		{"  In_Progress ", StatusInProgress},
		{"in progress", StatusInProgress},
		{"unassigned", StatusNew},
		{"closed_won", StatusWon},
		{"Closed-Lost", StatusLost},
		{"Under behandling", StatusInProgress},
		{"Tildelt", StatusAssigned},
		{"FULLFØRT", StatusCompleted},
		{"✅", StatusWon},
		{"✅ Vunnet", StatusWon},
		{"❌ Tapt", StatusLost},
		{"🏁", StatusCompleted},
		{"✔️", StatusCompleted},
		{"⏳ venter på kunde", StatusInProgress},
		{"🤷 tildelt", StatusAssigned},
	}

	for _, tc := range cases {
		if got := NormalizeStatus(tc.raw); got != tc.want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeStatusFallsBackAndReportsUnknown(t *testing.T) {
	var reported []string
	n := NewNormalizer(func(raw string) { reported = append(reported, raw) })

	for _, raw := range []string{"", "   ", "banana", "🤷"} {
		if got := n.Normalize(raw); got != FallbackStatus {
			t.Errorf("Normalize(%q) = %q, want fallback", raw, got)
		}
	}
	if len(reported) != 4 {
		t.Fatalf("expected 4 reported values, got %d", len(reported))
	}

	if got := n.Normalize("won"); got != StatusWon {
		t.Fatalf("expected won, got %q", got)
	}
	if len(reported) != 4 {
		t.Fatal("known values must not be reported")
	}
}

func TestNormalizeStatusIsTotalAndDeterministic(t *testing.T) {
	prop := func(raw string) bool {
		first := NormalizeStatus(raw)
		if !first.IsCanonical() {
			return false
		}
		stage := StatusToPipeline(first)
		return IsKnownPipelineStage(stage) &&
			NormalizeStatus(raw) == first &&
			StatusToPipeline(NormalizeStatus(raw)) == stage
	}
	if err := quick.Check(prop, &quick.Config{MaxCount: 2000}); err != nil {
		t.Fatal(err)
	}
}

func TestParseStatusIsStrict(t *testing.T) {
	if _, ok := ParseStatus("banana"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	if s, ok := ParseStatus("vunnet"); !ok || s != StatusWon {
		t.Fatalf("expected vunnet to parse as won, got %q %v", s, ok)
	}
}

func TestStatusToPipeline(t *testing.T) {
	cases := map[Status]PipelineStage{
		StatusNew:        PipelineStageNew,
		StatusAssigned:   PipelineStageNew,
		StatusInProgress: PipelineStageInProgress,
		StatusWon:        PipelineStageWon,
		StatusCompleted:  PipelineStageWon,
		StatusLost:       PipelineStageLost,
		Status("tapt"):   PipelineStageLost,
		Status("??"):     PipelineStageNew,
	}
	for status, want := range cases {
		if got := StatusToPipeline(status); got != want {
			t.Errorf("StatusToPipeline(%q) = %q, want %q", status, got, want)
		}
	}
}
