package feed

import (
	"strings"
	"testing"
)

func TestAddEntry(t *testing.T) {
	m := New()
	m.Add(KindPoints, "+10 points")
	if len(m.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(m.Entries))
	}
	if m.Entries[0].Kind != KindPoints {
		t.Errorf("expected kind %q, got %q", KindPoints, m.Entries[0].Kind)
	}
	if m.Entries[0].Time.IsZero() {
		t.Error("entry time not set")
	}
}

func TestMaxEntries(t *testing.T) {
	m := New()
	for i := 0; i < maxEntries+50; i++ {
		m.Add(KindPoints, "msg")
	}
	if len(m.Entries) != maxEntries {
		t.Errorf("expected %d entries, got %d", maxEntries, len(m.Entries))
	}
}

func TestScrollUpDown(t *testing.T) {
	m := New()
	for i := 0; i < 20; i++ {
		m.Add(KindPoints, "msg")
	}

	m.ScrollUp(5)
	if m.Offset != 5 {
		t.Errorf("expected offset 5, got %d", m.Offset)
	}

	m.ScrollDown(3)
	if m.Offset != 2 {
		t.Errorf("expected offset 2, got %d", m.Offset)
	}

	m.ScrollDown(10)
	if m.Offset != 0 {
		t.Errorf("expected offset 0, got %d", m.Offset)
	}
}

func TestScrollUpCapped(t *testing.T) {
	m := New()
	for i := 0; i < 5; i++ {
		m.Add(KindPoints, "msg")
	}
	m.ScrollUp(100)
	if m.Offset != 4 {
		t.Errorf("expected offset 4, got %d", m.Offset)
	}
}

func TestAddResetsScroll(t *testing.T) {
	m := New()
	for i := 0; i < 10; i++ {
		m.Add(KindPoints, "msg")
	}
	m.ScrollUp(5)
	m.Addf(KindAchievement, "unlocked %s", "Bookworm")
	if m.Offset != 0 {
		t.Error("adding entry should reset scroll to 0")
	}
	if got := m.Entries[len(m.Entries)-1].Message; got != "unlocked Bookworm" {
		t.Errorf("Addf message = %q", got)
	}
}

func TestViewEmpty(t *testing.T) {
	v := New().View(80, 20)
	if !strings.Contains(v, "Nothing has happened yet") {
		t.Error("empty view should say nothing has happened")
	}
}

func TestViewWithEntries(t *testing.T) {
	m := New()
	m.Add(KindAchievement, "First Steps")
	m.Add(KindLevel, "Little Explorer")
	v := m.View(80, 20)
	for _, want := range []string{"First Steps", "Little Explorer", "2 events"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
