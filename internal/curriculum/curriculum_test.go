package curriculum

import "testing"

func TestChaptersOrder(t *testing.T) {
	chapters := Chapters()
	if len(chapters) != Count {
		t.Fatalf("expected %d chapters, got %d", Count, len(chapters))
	}
	if chapters[0] != BriefingRoom || chapters[Count-1] != Debrief {
		t.Errorf("unexpected course order: %v", chapters)
	}

	// Callers get a copy, not the catalog itself.
	chapters[0] = "Mutated"
	if Chapters()[0] != BriefingRoom {
		t.Error("Chapters() exposed internal state")
	}
}

func TestIndex(t *testing.T) {
	tests := []struct {
		name  string
		want  int
		found bool
	}{
		{"Briefing Room", 0, true},
		{"Debrief", 6, true},
		{"briefing room", 0, false}, // names are case sensitive
		{"Lobby", 0, false},
	}
	for _, tt := range tests {
		idx, ok := Index(tt.name)
		if ok != tt.found {
			t.Errorf("Index(%q): found = %v, want %v", tt.name, ok, tt.found)
			continue
		}
		if ok && idx != tt.want {
			t.Errorf("Index(%q) = %d, want %d", tt.name, idx, tt.want)
		}
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range Statuses() {
		if !ValidStatus(string(s)) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range []string{"Done", "completed", ""} {
		if ValidStatus(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}
