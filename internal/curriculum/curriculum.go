// Package curriculum holds the fixed Piper Alpha course catalog: the seven
// canonical chapters in course order and the allowed completion statuses.
package curriculum

// Chapter is one of the seven canonical course chapters.
type Chapter string

const (
	BriefingRoom        Chapter = "Briefing Room"
	ArrivalOnPiperAlpha Chapter = "Arrival on Piper Alpha"
	MaintenanceArea     Chapter = "Maintenance Area"
	PrecursorToDisaster Chapter = "Precursor to Disaster"
	ExplosionSimulation Chapter = "Explosion Simulation"
	EscapeAftermath     Chapter = "Escape Aftermath"
	Debrief             Chapter = "Debrief"
)

// Count is the number of chapters in the course.
const Count = 7

var chapters = [Count]Chapter{
	BriefingRoom,
	ArrivalOnPiperAlpha,
	MaintenanceArea,
	PrecursorToDisaster,
	ExplosionSimulation,
	EscapeAftermath,
	Debrief,
}

// Chapters returns the canonical chapters in course order.
func Chapters() []Chapter {
	c := chapters
	return c[:]
}

// Index returns the course-order position of a chapter name, matched
// case-sensitively. The second return value is false for unknown names.
func Index(name string) (int, bool) {
	for i, c := range chapters {
		if string(c) == name {
			return i, true
		}
	}
	return 0, false
}

// Status is a chapter completion status.
type Status string

const (
	StatusCompleted    Status = "Completed"
	StatusPending      Status = "Pending"
	StatusNotCompleted Status = "Not Completed"
)

// Statuses returns the allowed completion statuses.
func Statuses() []Status {
	return []Status{StatusCompleted, StatusPending, StatusNotCompleted}
}

// ValidStatus reports whether s exactly matches an allowed status.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusCompleted, StatusPending, StatusNotCompleted:
		return true
	}
	return false
}
