package session

import (
	"math"

	"github.com/piperalpha/training/internal/model"
)

// Stats summarizes a normalized session record. AverageScore is nil when no
// chapter carries a numeric score.
type Stats struct {
	CompletedCount int      `json:"completed_count"`
	AverageScore   *float64 `json:"average_score,omitempty"`
}

// Derive computes summary statistics over the scored chapters of a record.
// NA placeholders are excluded from both the count and the average; a scored
// chapter counts even while its status is still Pending. The average is
// rounded to one decimal place for display.
func Derive(rec model.SessionRecord) Stats {
	var count, total int
	for _, c := range rec.Chapters {
		if c.Score.Scored() {
			count++
			total += c.Score.Value()
		}
	}

	stats := Stats{CompletedCount: count}
	if count > 0 {
		avg := math.Round(float64(total)/float64(count)*10) / 10
		stats.AverageScore = &avg
	}
	return stats
}
