package storage

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"timetable-api/domain"
)

type targetEntity struct {
	aztables.Entity
	Title       string `json:"Title"`
	Description string `json:"Description"`
	Deadline    string `json:"Deadline"`
	IsCompleted bool   `json:"IsCompleted"`
	CreatedAt   string `json:"CreatedAt"`
}

func encodeTargetEntity(userID string, t domain.Target) targetEntity {
	return targetEntity{
		Entity:      aztables.Entity{PartitionKey: userID, RowKey: t.ID},
		Title:       t.Title,
		Description: t.Description,
		Deadline:    t.Deadline.Format(time.RFC3339),
		IsCompleted: t.IsCompleted,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}

func decodeTargetEntity(data []byte) (domain.Target, error) {
	var ent targetEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Target{}, err
	}
	t := domain.Target{
		ID:          ent.RowKey,
		Title:       ent.Title,
		Description: ent.Description,
		IsCompleted: ent.IsCompleted,
	}
	var err error
	if t.Deadline, err = parseTime(ent.Deadline); err != nil {
		return domain.Target{}, err
	}
	if t.CreatedAt, err = parseTime(ent.CreatedAt); err != nil {
		return domain.Target{}, err
	}
	return t, nil
}

// FetchTargets returns the user's targets sorted by deadline ascending.
func (s *Storage) FetchTargets(ctx context.Context, userID string) ([]domain.Target, error) {
	filter := "PartitionKey eq '" + userID + "'"
	pager := s.targets.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	targets := []domain.Target{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			t, err := decodeTargetEntity(e)
			if err != nil {
				return nil, err
			}
			targets = append(targets, t)
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Deadline.Before(targets[j].Deadline) })
	return targets, nil
}

// TargetByID fetches one target owned by userID.
func (s *Storage) TargetByID(ctx context.Context, userID, id string) (domain.Target, error) {
	resp, err := s.targets.GetEntity(ctx, userID, id, nil)
	if err != nil {
		return domain.Target{}, notFoundErr(err)
	}
	return decodeTargetEntity(resp.Value)
}

// InsertTarget stores a new target.
func (s *Storage) InsertTarget(ctx context.Context, userID string, t domain.Target) error {
	data, err := json.Marshal(encodeTargetEntity(userID, t))
	if err != nil {
		return err
	}
	_, err = s.targets.AddEntity(ctx, data, nil)
	return err
}

// UpdateTarget replaces an existing target; domain.ErrNotFound when absent.
func (s *Storage) UpdateTarget(ctx context.Context, userID string, t domain.Target) error {
	data, err := json.Marshal(encodeTargetEntity(userID, t))
	if err != nil {
		return err
	}
	_, err = s.targets.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return notFoundErr(err)
}

// DeleteTarget removes a target; domain.ErrNotFound when absent.
func (s *Storage) DeleteTarget(ctx context.Context, userID, id string) error {
	_, err := s.targets.DeleteEntity(ctx, userID, id, nil)
	return notFoundErr(err)
}
