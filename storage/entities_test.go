package storage

import (
	"encoding/json"
	"testing"
	"time"

	"timetable-api/domain"
)

func TestTaskEntityRoundTrip(t *testing.T) {
	entry := domain.TimetableEntry{
		ID:          "task-1",
		Title:       "Morning run",
		Description: "5k",
		StartTime:   "06:30",
		EndTime:     "07:15",
		IsRecurring: true,
		ExcludeDays: []int{0, 6},
	}
	ent, err := encodeTaskEntity("user-1", entry)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if ent.PartitionKey != "user-1" || ent.RowKey != "task-1" {
		t.Fatalf("unexpected keys: %s/%s", ent.PartitionKey, ent.RowKey)
	}

	data, err := json.Marshal(ent)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := decodeTaskEntity(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Title != entry.Title || got.StartTime != entry.StartTime || !got.IsRecurring {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if len(got.ExcludeDays) != 2 || got.ExcludeDays[0] != 0 || got.ExcludeDays[1] != 6 {
		t.Fatalf("unexpected exclude days: %v", got.ExcludeDays)
	}
}

func TestDecodeTaskEntityEmptyExcludeDays(t *testing.T) {
	data, err := json.Marshal(taskEntity{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := decodeTaskEntity(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ExcludeDays == nil || len(got.ExcludeDays) != 0 {
		t.Fatalf("expected empty exclusion set, got %#v", got.ExcludeDays)
	}
}

func TestUserEntityRoundTrip(t *testing.T) {
	end := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	user := domain.User{
		ID:                 "user-1",
		Name:               "Dana",
		Email:              "dana@example.com",
		PasswordHash:       "$2a$10$hash",
		SubscriptionStatus: domain.SubscriptionActive,
		TrialEndsAt:        time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC),
		SubscriptionID:     "sub_123",
		SubscriptionEndsAt: &end,
		LastLoginAt:        time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		CreatedAt:          time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(encodeUserEntity(user))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := decodeUserEntity(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != user.ID || got.Email != user.Email || got.PasswordHash != user.PasswordHash {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.SubscriptionEndsAt == nil || !got.SubscriptionEndsAt.Equal(end) {
		t.Fatalf("unexpected subscription end: %v", got.SubscriptionEndsAt)
	}
	if !got.TrialEndsAt.Equal(user.TrialEndsAt) {
		t.Fatalf("unexpected trial end: %v", got.TrialEndsAt)
	}
}

func TestUserEntityNilSubscriptionEnd(t *testing.T) {
	user := domain.User{ID: "u", SubscriptionStatus: domain.SubscriptionTrial, TrialEndsAt: time.Now().UTC()}
	data, err := json.Marshal(encodeUserEntity(user))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := decodeUserEntity(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SubscriptionEndsAt != nil {
		t.Fatalf("expected nil subscription end, got %v", got.SubscriptionEndsAt)
	}
}

func TestDecodeCompletionEntity(t *testing.T) {
	ent := completionEntity{
		UserID:    "user-1",
		Status:    domain.StatusCompleted,
		Notes:     "felt good",
		UpdatedAt: "2025-06-02T08:00:00Z",
	}
	ent.PartitionKey = "task-1"
	ent.RowKey = "2025-06-02"
	data, err := json.Marshal(ent)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := decodeCompletionEntity(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TaskID != "task-1" || got.Date != "2025-06-02" || got.Status != domain.StatusCompleted {
		t.Fatalf("unexpected completion: %+v", got)
	}
	if got.UserID != "user-1" || got.Notes != "felt good" {
		t.Fatalf("unexpected completion fields: %+v", got)
	}
}
