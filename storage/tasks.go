package storage

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"timetable-api/domain"
)

// Timetable rows are partitioned by owner, so every query is scoped to one
// user by construction.
type taskEntity struct {
	aztables.Entity
	Title       string `json:"Title"`
	Description string `json:"Description"`
	StartTime   string `json:"StartTime"`
	EndTime     string `json:"EndTime"`
	IsRecurring bool   `json:"IsRecurring"`
	ExcludeDays string `json:"ExcludeDays"`
}

func encodeTaskEntity(userID string, e domain.TimetableEntry) (taskEntity, error) {
	days, err := json.Marshal(e.ExcludeDays)
	if err != nil {
		return taskEntity{}, err
	}
	return taskEntity{
		Entity:      aztables.Entity{PartitionKey: userID, RowKey: e.ID},
		Title:       e.Title,
		Description: e.Description,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		IsRecurring: e.IsRecurring,
		ExcludeDays: string(days),
	}, nil
}

func decodeTaskEntity(data []byte) (domain.TimetableEntry, error) {
	var ent taskEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.TimetableEntry{}, err
	}
	entry := domain.TimetableEntry{
		ID:          ent.RowKey,
		Title:       ent.Title,
		Description: ent.Description,
		StartTime:   ent.StartTime,
		EndTime:     ent.EndTime,
		IsRecurring: ent.IsRecurring,
		ExcludeDays: []int{},
	}
	if ent.ExcludeDays != "" {
		if err := json.Unmarshal([]byte(ent.ExcludeDays), &entry.ExcludeDays); err != nil {
			return domain.TimetableEntry{}, err
		}
	}
	return entry, nil
}

// FetchTasks retrieves all timetable entries for the provided user, sorted by
// start time.
func (s *Storage) FetchTasks(ctx context.Context, userID string) ([]domain.TimetableEntry, error) {
	filter := "PartitionKey eq '" + userID + "'"
	pager := s.tasks.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	entries := []domain.TimetableEntry{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			entry, err := decodeTaskEntity(e)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].StartTime < entries[j].StartTime })
	return entries, nil
}

// TaskByID fetches one entry owned by userID; a foreign or missing id is
// domain.ErrNotFound either way.
func (s *Storage) TaskByID(ctx context.Context, userID, id string) (domain.TimetableEntry, error) {
	resp, err := s.tasks.GetEntity(ctx, userID, id, nil)
	if err != nil {
		return domain.TimetableEntry{}, notFoundErr(err)
	}
	return decodeTaskEntity(resp.Value)
}

// InsertTask stores a new timetable entry.
func (s *Storage) InsertTask(ctx context.Context, userID string, e domain.TimetableEntry) error {
	ent, err := encodeTaskEntity(userID, e)
	if err != nil {
		return err
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.tasks.AddEntity(ctx, data, nil)
	return err
}

// UpdateTask replaces an existing entry; domain.ErrNotFound when absent.
func (s *Storage) UpdateTask(ctx context.Context, userID string, e domain.TimetableEntry) error {
	ent, err := encodeTaskEntity(userID, e)
	if err != nil {
		return err
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.tasks.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return notFoundErr(err)
}

// DeleteTask removes an entry; domain.ErrNotFound when absent.
func (s *Storage) DeleteTask(ctx context.Context, userID, id string) error {
	_, err := s.tasks.DeleteEntity(ctx, userID, id, nil)
	return notFoundErr(err)
}
