package theme

import (
	"strings"
	"testing"
)

func TestBar(t *testing.T) {
	tests := []struct {
		pct        float64
		wantFilled int
		wantLabel  string
	}{
		{0, 0, "  0%"},
		{50, 5, " 50%"},
		{100, 10, "100%"},
		{150, 10, "150%"},
		{-5, 0, " -5%"},
	}
	for _, tt := range tests {
		got := Bar(tt.pct, 10, ColorGoalMid)
		if n := strings.Count(got, "█"); n != tt.wantFilled {
			t.Errorf("Bar(%v): %d filled cells, want %d", tt.pct, n, tt.wantFilled)
		}
		if n := strings.Count(got, "█") + strings.Count(got, "░"); n != 10 {
			t.Errorf("Bar(%v): width %d, want 10", tt.pct, n)
		}
		if !strings.Contains(got, tt.wantLabel) {
			t.Errorf("Bar(%v) = %q, missing label %q", tt.pct, got, tt.wantLabel)
		}
	}
}

func TestGoalColor(t *testing.T) {
	if GoalColor(20) != ColorGoalLow || GoalColor(60) != ColorGoalMid || GoalColor(100) != ColorGoalDone || GoalColor(240) != ColorGoalDone {
		t.Error("GoalColor thresholds wrong")
	}
}

func TestCategoryColor(t *testing.T) {
	for _, c := range []string{"Getting Started", "Exploring", "Games", "Streaks"} {
		if CategoryColor(c) == ColorDefault {
			t.Errorf("CategoryColor(%q) fell back to default", c)
		}
	}
	if CategoryColor("Unknown") != ColorDefault {
		t.Error("unknown category should use default color")
	}
}
