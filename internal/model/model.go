package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/piperalpha/training/internal/curriculum"
)

// Role represents a user's access level.
type Role string

const (
	// RoleTrainee is a regular trainee account.
	RoleTrainee Role = "Trainee"
	// RoleAdmin can view every user's sessions and reports.
	RoleAdmin Role = "Admin"
)

// ValidRole reports whether r is a known role string.
func ValidRole(r string) bool {
	return Role(r) == RoleTrainee || Role(r) == RoleAdmin
}

// User represents a registered account.
type User struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	TraineeName  string    `json:"trainee_name"`
	CreatedAt    time.Time `json:"created_at"`
}

type userCtxKey struct{}

// ContextWithUser stores the authenticated user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Score is either an integer chapter score in [0,10] or the "NA" placeholder
// for a chapter the trainee never attempted. The zero value is the
// placeholder, so a score can only become numeric through NewScore; the
// "excluded from the average" rule lives in the type, not at call sites.
type Score struct {
	value  int
	scored bool
}

// NewScore returns a numeric score. The value is assumed validated against
// the [MinScore, MaxScore] range by the normalizer.
func NewScore(v int) Score {
	return Score{value: v, scored: true}
}

// NA returns the placeholder score for an unattempted chapter.
func NA() Score {
	return Score{}
}

// Scored reports whether the score carries a numeric value.
func (s Score) Scored() bool { return s.scored }

// Value returns the numeric score, or 0 for the placeholder.
func (s Score) Value() int { return s.value }

// String renders the score as its wire form: digits or "NA".
func (s Score) String() string {
	if !s.scored {
		return "NA"
	}
	return strconv.Itoa(s.value)
}

// Allowed score range for a chapter.
const (
	MinScore = 0
	MaxScore = 10
)

// MarshalJSON encodes a numeric score as a JSON number and the placeholder
// as the string "NA".
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.scored {
		return []byte(`"NA"`), nil
	}
	return []byte(strconv.Itoa(s.value)), nil
}

// UnmarshalJSON accepts a JSON integer in range or the string "NA". Stored
// records are canonical, so anything else is corruption.
func (s *Score) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if str != "NA" {
			return fmt.Errorf("invalid score %q", str)
		}
		*s = Score{}
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid score %s", data)
	}
	if v < MinScore || v > MaxScore {
		return fmt.Errorf("score %d out of range", v)
	}
	*s = Score{value: v, scored: true}
	return nil
}

// ChapterResult is one chapter's outcome inside a session record. A result
// with the NA score is the auto-completed placeholder for a chapter missing
// from the submission.
type ChapterResult struct {
	Chapter curriculum.Chapter `json:"chapter"`
	Score   Score              `json:"score"`
	Status  curriculum.Status  `json:"status"`
}

// SessionRecord is one normalized training session: exactly one result per
// canonical chapter, in course order. Records are immutable once persisted;
// a resubmission always creates a new record.
type SessionRecord struct {
	ID         int64           `json:"session_id"`
	OwnerEmail string          `json:"email"`
	CreatedAt  time.Time       `json:"session_timestamp"`
	Chapters   []ChapterResult `json:"chapters"`
}

// RawChapter is a single chapter entry as submitted by the game client,
// before any validation. Score is untyped because clients may send an
// integer or (invalidly) a string.
type RawChapter struct {
	Chapter string `json:"chapter"`
	Score   any    `json:"score"`
	Status  string `json:"status"`
}
