package progress

import (
	"strings"
	"testing"
)

func TestLevels_PartitionPoints(t *testing.T) {
	for points := 0; points <= 10000; points++ {
		n := 0
		for _, l := range Levels() {
			if l.Contains(points) {
				n++
			}
		}
		if n != 1 {
			t.Fatalf("%d points fall in %d levels, want exactly 1", points, n)
		}
	}
}

func TestCurrentLevel(t *testing.T) {
	tests := []struct {
		points int
		want   int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{249, 2},
		{250, 3},
		{999, 4},
		{1000, 5},
		{3999, 6},
		{4000, 7},
		{1 << 40, 7},
	}
	for _, tt := range tests {
		if got := CurrentLevel(tt.points).Level; got != tt.want {
			t.Errorf("CurrentLevel(%d) = %d, want %d", tt.points, got, tt.want)
		}
	}
}

func TestCurrentLevel_NegativePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("CurrentLevel(-1) should panic")
		}
	}()
	CurrentLevel(-1)
}

func TestProgressToNextLevel(t *testing.T) {
	tests := []struct {
		points int
		want   float64
	}{
		{0, 0},
		{50, 50},
		{25, 25},
		{100, 0},
		{175, 50},
		{4000, 100},
		{99999, 100},
	}
	for _, tt := range tests {
		got := ProgressToNextLevel(tt.points, CurrentLevel(tt.points))
		if got != tt.want {
			t.Errorf("ProgressToNextLevel(%d) = %v, want %v", tt.points, got, tt.want)
		}
	}
}

func TestProgressToNextLevel_Clamped(t *testing.T) {
	first := Levels()[0]
	if got := ProgressToNextLevel(500, first); got != 100 {
		t.Errorf("points past the next level = %v, want 100", got)
	}
}

func TestLevelInfoFor(t *testing.T) {
	info := LevelInfoFor(130)
	if info.Current.Level != 2 {
		t.Errorf("Current.Level = %d, want 2", info.Current.Level)
	}
	if info.Next == nil || info.Next.Level != 3 {
		t.Fatalf("Next = %+v, want level 3", info.Next)
	}
	if info.PointsToNext != 120 {
		t.Errorf("PointsToNext = %d, want 120", info.PointsToNext)
	}

	top := LevelInfoFor(5000)
	if top.Next != nil {
		t.Errorf("terminal level should have no next level, got %+v", top.Next)
	}
	if top.ProgressToNext != 100 {
		t.Errorf("terminal ProgressToNext = %v, want 100", top.ProgressToNext)
	}
}

func TestValidateLevels(t *testing.T) {
	tests := []struct {
		name    string
		table   []Level
		wantErr string
	}{
		{"empty", nil, "empty"},
		{"not from zero", []Level{{Level: 1, MinPoints: 5, MaxPoints: Unbounded}}, "want 0"},
		{"gap", []Level{
			{Level: 1, MinPoints: 0, MaxPoints: 9},
			{Level: 2, MinPoints: 11, MaxPoints: Unbounded},
		}, "want 10"},
		{"overlap", []Level{
			{Level: 1, MinPoints: 0, MaxPoints: 9},
			{Level: 2, MinPoints: 9, MaxPoints: Unbounded},
		}, "want 10"},
		{"bounded end", []Level{{Level: 1, MinPoints: 0, MaxPoints: 9}}, "bounded"},
		{"inverted", []Level{{Level: 1, MinPoints: 0, MaxPoints: -1}}, "below min"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateLevels(tt.table)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validateLevels() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}

	if err := validateLevels(Levels()); err != nil {
		t.Errorf("built-in table invalid: %v", err)
	}
}
