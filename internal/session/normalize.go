// Package session turns raw, untrusted chapter submissions into canonical
// seven-chapter session records and derives summary statistics from them.
package session

import (
	"fmt"
	"math"
	"time"

	"github.com/piperalpha/training/internal/curriculum"
	"github.com/piperalpha/training/internal/model"
)

// Directory resolves owner identities against the user store.
type Directory interface {
	OwnerExists(email string) (bool, error)
}

// Normalizer validates raw submissions and completes them into canonical
// session records. It is stateless and safe for concurrent use.
type Normalizer struct {
	dir Directory
	now func() time.Time
}

// NewNormalizer creates a Normalizer backed by the given identity directory.
func NewNormalizer(dir Directory) *Normalizer {
	return &Normalizer{dir: dir, now: time.Now}
}

// Normalize validates rawChapters against the curriculum, checks that
// ownerEmail belongs to a registered account, and returns a record with
// exactly one result per canonical chapter in course order. Chapters absent
// from the submission become NA placeholders. CreatedAt is stamped here;
// clients cannot backdate a session. The record's ID stays zero until the
// store persists it.
//
// Shape violations come back as *ValidationError with every offending field,
// a missing account as ErrUnknownOwner.
func (n *Normalizer) Normalize(ownerEmail string, rawChapters []model.RawChapter) (model.SessionRecord, error) {
	submitted, err := validateChapters(rawChapters)
	if err != nil {
		return model.SessionRecord{}, err
	}

	ok, err := n.dir.OwnerExists(ownerEmail)
	if err != nil {
		return model.SessionRecord{}, fmt.Errorf("look up owner %s: %w", ownerEmail, err)
	}
	if !ok {
		return model.SessionRecord{}, ErrUnknownOwner
	}

	// Complete in catalog order, not submission order, so two submissions
	// with the same chapters in different order normalize identically.
	chapters := make([]model.ChapterResult, 0, curriculum.Count)
	for _, ch := range curriculum.Chapters() {
		r, found := submitted[ch]
		if !found {
			r = model.ChapterResult{
				Chapter: ch,
				Score:   model.NA(),
				Status:  curriculum.StatusNotCompleted,
			}
		}
		chapters = append(chapters, r)
	}

	return model.SessionRecord{
		OwnerEmail: ownerEmail,
		CreatedAt:  n.now().UTC(),
		Chapters:   chapters,
	}, nil
}

func validateChapters(raw []model.RawChapter) (map[curriculum.Chapter]model.ChapterResult, error) {
	results := make(map[curriculum.Chapter]model.ChapterResult, len(raw))
	var fields []FieldError

	for _, rc := range raw {
		entryOK := true

		_, chapterOK := curriculum.Index(rc.Chapter)
		if !chapterOK {
			fields = append(fields, FieldError{Kind: InvalidChapterName, Value: rc.Chapter})
			entryOK = false
		}

		score, scoreOK := parseScore(rc.Score)
		if !scoreOK {
			fields = append(fields, FieldError{Kind: InvalidScore, Value: fmt.Sprint(rc.Score)})
			entryOK = false
		}

		if !curriculum.ValidStatus(rc.Status) {
			fields = append(fields, FieldError{Kind: InvalidStatus, Value: rc.Status})
			entryOK = false
		}

		if chapterOK {
			ch := curriculum.Chapter(rc.Chapter)
			if _, dup := results[ch]; dup {
				// Ambiguous input is rejected outright, never resolved
				// last-write-wins.
				fields = append(fields, FieldError{Kind: DuplicateChapter, Value: rc.Chapter})
				entryOK = false
			} else if entryOK {
				results[ch] = model.ChapterResult{
					Chapter: ch,
					Score:   score,
					Status:  curriculum.Status(rc.Status),
				}
			} else {
				// Remember the chapter so a later duplicate is still caught,
				// without keeping the invalid entry itself.
				results[ch] = model.ChapterResult{Chapter: ch}
			}
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	return results, nil
}

// parseScore accepts an integer-valued submission score in range. Strings,
// including an explicit "NA", are rejected: the placeholder is reserved for
// auto-completion.
func parseScore(v any) (model.Score, bool) {
	var n int
	switch t := v.(type) {
	case float64:
		// encoding/json decodes every number into float64.
		if t != math.Trunc(t) {
			return model.Score{}, false
		}
		n = int(t)
	case int:
		n = t
	default:
		return model.Score{}, false
	}
	if n < model.MinScore || n > model.MaxScore {
		return model.Score{}, false
	}
	return model.NewScore(n), true
}
