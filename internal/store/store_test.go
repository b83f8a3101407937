package store

import (
	"testing"
	"time"

	"github.com/piperalpha/training/internal/curriculum"
	"github.com/piperalpha/training/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestUser(t *testing.T, s *Store, email, name string, role model.Role) {
	t.Helper()
	err := s.CreateUser(model.User{
		Email:        email,
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
		Role:         role,
		TraineeName:  name,
		CreatedAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("insertTestUser: %v", err)
	}
}

func testRecord(email string, createdAt time.Time, scores map[curriculum.Chapter]int) model.SessionRecord {
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
	return model.SessionRecord{OwnerEmail: email, CreatedAt: createdAt, Chapters: chapters}
}

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)

	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 users, got %d", count)
	}

	insertTestUser(t, s, "r@x.com", "Rita Carlsen", model.RoleTrainee)

	u, err := s.GetUserByEmail("r@x.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}
	if u.TraineeName != "Rita Carlsen" || u.Role != model.RoleTrainee {
		t.Errorf("unexpected user: %+v", u)
	}

	// Missing user returns nil, not an error.
	u, err = s.GetUserByEmail("nobody@x.com")
	if err != nil {
		t.Fatalf("GetUserByEmail missing: %v", err)
	}
	if u != nil {
		t.Errorf("expected nil for missing user, got %+v", u)
	}

	// Email is the primary key.
	err = s.CreateUser(model.User{Email: "r@x.com", PasswordHash: "x", Role: model.RoleTrainee, TraineeName: "Other"})
	if err == nil {
		t.Error("expected error on duplicate email")
	}

	insertTestUser(t, s, "admin@x.com", "Administrator", model.RoleAdmin)
	users, err := s.ListUsers()
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}

func TestOwnerExists(t *testing.T) {
	s := newTestStore(t)
	insertTestUser(t, s, "r@x.com", "Rita Carlsen", model.RoleTrainee)

	ok, err := s.OwnerExists("r@x.com")
	if err != nil {
		t.Fatalf("OwnerExists: %v", err)
	}
	if !ok {
		t.Error("expected registered owner to exist")
	}

	ok, err = s.OwnerExists("stranger@x.com")
	if err != nil {
		t.Fatalf("OwnerExists: %v", err)
	}
	if ok {
		t.Error("expected unknown owner to not exist")
	}
}

func TestRecordRoundtrip(t *testing.T) {
	s := newTestStore(t)
	insertTestUser(t, s, "r@x.com", "Rita Carlsen", model.RoleTrainee)

	createdAt := time.Date(2024, 5, 14, 9, 30, 0, 0, time.UTC)
	rec := testRecord("r@x.com", createdAt, map[curriculum.Chapter]int{
		curriculum.BriefingRoom:        8,
		curriculum.ArrivalOnPiperAlpha: 6,
	})

	id, err := s.CreateRecord(rec)
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if id < 1 {
		t.Fatalf("expected allocated ID, got %d", id)
	}

	got, err := s.GetRecord(id)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got == nil {
		t.Fatal("expected record, got nil")
	}
	if got.ID != id || got.OwnerEmail != "r@x.com" {
		t.Errorf("unexpected record: %+v", got)
	}
	if !got.CreatedAt.Equal(createdAt) {
		t.Errorf("expected created_at %v, got %v", createdAt, got.CreatedAt)
	}
	if len(got.Chapters) != curriculum.Count {
		t.Fatalf("expected %d chapters, got %d", curriculum.Count, len(got.Chapters))
	}
	if got.Chapters[0].Score.Value() != 8 || !got.Chapters[0].Score.Scored() {
		t.Errorf("unexpected first chapter: %+v", got.Chapters[0])
	}
	// NA placeholders survive the round trip as placeholders, not zeros.
	if got.Chapters[2].Score.Scored() {
		t.Errorf("expected NA placeholder, got %+v", got.Chapters[2])
	}
	if got.Chapters[2].Status != curriculum.StatusNotCompleted {
		t.Errorf("unexpected placeholder status: %+v", got.Chapters[2])
	}

	// Missing record returns nil, not an error.
	got, err = s.GetRecord(9999)
	if err != nil {
		t.Fatalf("GetRecord missing: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing record, got %+v", got)
	}
}

func TestListRecords(t *testing.T) {
	s := newTestStore(t)
	insertTestUser(t, s, "r@x.com", "Rita Carlsen", model.RoleTrainee)
	insertTestUser(t, s, "b@x.com", "Bjorn Vik", model.RoleTrainee)

	base := time.Date(2024, 5, 14, 9, 0, 0, 0, time.UTC)
	var ids []int64
	for i, email := range []string{"r@x.com", "r@x.com", "b@x.com"} {
		id, err := s.CreateRecord(testRecord(email, base.Add(time.Duration(i)*time.Hour), nil))
		if err != nil {
			t.Fatalf("CreateRecord: %v", err)
		}
		ids = append(ids, id)
	}

	records, err := s.ListRecordsByOwner("r@x.com")
	if err != nil {
		t.Fatalf("ListRecordsByOwner: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// Newest first.
	if records[0].ID != ids[1] || records[1].ID != ids[0] {
		t.Errorf("expected newest-first order, got %d then %d", records[0].ID, records[1].ID)
	}

	all, err := s.ListAllRecords()
	if err != nil {
		t.Fatalf("ListAllRecords: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}

	count, err := s.RecordCount()
	if err != nil {
		t.Fatalf("RecordCount: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
}
