package report

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/piperalpha/training/internal/curriculum"
	"github.com/piperalpha/training/internal/model"
	"github.com/piperalpha/training/internal/session"
)

var reportTime = time.Date(2024, 5, 14, 9, 30, 0, 0, time.UTC)

// canonicalRecord builds a valid seven-chapter record with the given scores
// keyed by chapter; everything else becomes an NA placeholder.
func canonicalRecord(t *testing.T, scores map[curriculum.Chapter]int) model.SessionRecord {
	t.Helper()
	chapters := make([]model.ChapterResult, 0, curriculum.Count)
	for _, ch := range curriculum.Chapters() {
		result := model.ChapterResult{
			Chapter: ch,
			Score:   model.NA(),
			Status:  curriculum.StatusNotCompleted,
		}
		if v, ok := scores[ch]; ok {
			result.Score = model.NewScore(v)
			result.Status = curriculum.StatusCompleted
		}
		chapters = append(chapters, result)
	}
	return model.SessionRecord{
		ID:         42,
		OwnerEmail: "r@x.com",
		CreatedAt:  reportTime,
		Chapters:   chapters,
	}
}

func TestRemarks(t *testing.T) {
	avg := func(v float64) *float64 { return &v }

	tests := []struct {
		name  string
		stats session.Stats
		want  string
	}{
		{
			"two completed",
			session.Stats{CompletedCount: 2, AverageScore: avg(7.0)},
			"Trainee has completed 2 out of 7 chapters with an average score of 7.0.",
		},
		{
			"fractional average",
			session.Stats{CompletedCount: 3, AverageScore: avg(6.3)},
			"Trainee has completed 3 out of 7 chapters with an average score of 6.3.",
		},
		{
			// With nothing scored the average clause disappears entirely.
			"zero completed",
			session.Stats{CompletedCount: 0},
			"Trainee has completed 0 out of 7 chapters.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Remarks(tt.stats); got != tt.want {
				t.Errorf("Remarks:\n got %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestRenderProducesPDF(t *testing.T) {
	rec := canonicalRecord(t, map[curriculum.Chapter]int{
		curriculum.BriefingRoom:        8,
		curriculum.ArrivalOnPiperAlpha: 6,
	})
	stats := session.Derive(rec)

	out, err := Render("Rita Carlsen", "r@x.com", reportTime, rec, stats)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header")
	}
}

func TestRenderDeterministic(t *testing.T) {
	rec := canonicalRecord(t, map[curriculum.Chapter]int{
		curriculum.BriefingRoom: 8,
		curriculum.Debrief:      9,
	})
	stats := session.Derive(rec)

	first, err := Render("Rita Carlsen", "r@x.com", reportTime, rec, stats)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, err := Render("Rita Carlsen", "r@x.com", reportTime, rec, stats)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("identical inputs produced different documents")
	}
}

func TestRenderInvalidRecord(t *testing.T) {
	valid := canonicalRecord(t, nil)

	truncated := valid
	truncated.Chapters = valid.Chapters[:6]

	reordered := canonicalRecord(t, nil)
	reordered.Chapters[0], reordered.Chapters[6] = reordered.Chapters[6], reordered.Chapters[0]

	tests := []struct {
		name string
		rec  model.SessionRecord
	}{
		{"missing chapter", truncated},
		{"wrong order", reordered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render("Rita Carlsen", "r@x.com", reportTime, tt.rec, session.Derive(tt.rec))
			if !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("expected ErrInvalidRecord, got %v", err)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	got := Filename("Rita Carlsen", reportTime)
	want := "PiperAlpha_Report_Rita_Carlsen_20240514_093000.pdf"
	if got != want {
		t.Errorf("Filename: got %q, want %q", got, want)
	}
}
