package storage

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"timetable-api/domain"
)

// Completion rows are keyed (PartitionKey=task id, RowKey=date), so the
// (task, date) uniqueness constraint is the key itself and marking the same
// pair twice replaces the row in a single table operation.
type completionEntity struct {
	aztables.Entity
	UserID    string `json:"UserID"`
	Status    string `json:"Status"`
	Notes     string `json:"Notes"`
	UpdatedAt string `json:"UpdatedAt"`
}

func decodeCompletionEntity(data []byte) (domain.Completion, error) {
	var ent completionEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Completion{}, err
	}
	c := domain.Completion{
		TaskID: ent.PartitionKey,
		UserID: ent.UserID,
		Date:   ent.RowKey,
		Status: ent.Status,
		Notes:  ent.Notes,
	}
	if ent.UpdatedAt != "" {
		at, err := time.Parse(time.RFC3339, ent.UpdatedAt)
		if err != nil {
			return domain.Completion{}, err
		}
		c.UpdatedAt = at
	}
	return c, nil
}

// UpsertCompletion stores the record, replacing any existing row for the same
// (task, date) pair atomically. Never emulated with a read-then-write.
func (s *Storage) UpsertCompletion(ctx context.Context, c domain.Completion) (domain.Completion, error) {
	c.UpdatedAt = time.Now().UTC()
	ent := completionEntity{
		Entity:    aztables.Entity{PartitionKey: c.TaskID, RowKey: c.Date},
		UserID:    c.UserID,
		Status:    c.Status,
		Notes:     c.Notes,
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return domain.Completion{}, err
	}
	if _, err := s.completions.UpsertEntity(ctx, data, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace}); err != nil {
		return domain.Completion{}, err
	}
	return c, nil
}

func (s *Storage) queryCompletions(ctx context.Context, filter string) ([]domain.Completion, error) {
	pager := s.completions.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	completions := []domain.Completion{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			c, err := decodeCompletionEntity(e)
			if err != nil {
				return nil, err
			}
			completions = append(completions, c)
		}
	}
	return completions, nil
}

// CompletionsForUser returns every completion record owned by the user,
// across all of their timetable entries.
func (s *Storage) CompletionsForUser(ctx context.Context, userID string) ([]domain.Completion, error) {
	return s.queryCompletions(ctx, "UserID eq '"+userID+"'")
}

// CompletionsInRange returns the user's records with from <= date <= to. Date
// row keys sort lexically, which for YYYY-MM-DD is chronological.
func (s *Storage) CompletionsInRange(ctx context.Context, userID, from, to string) ([]domain.Completion, error) {
	return s.queryCompletions(ctx, "UserID eq '"+userID+"' and RowKey ge '"+from+"' and RowKey le '"+to+"'")
}

// CompletionsForTask returns all records for one entry, newest date first.
func (s *Storage) CompletionsForTask(ctx context.Context, taskID string) ([]domain.Completion, error) {
	completions, err := s.queryCompletions(ctx, "PartitionKey eq '"+taskID+"'")
	if err != nil {
		return nil, err
	}
	sort.Slice(completions, func(i, j int) bool { return completions[i].Date > completions[j].Date })
	return completions, nil
}
