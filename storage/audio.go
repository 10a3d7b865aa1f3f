package storage

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"timetable-api/domain"
)

type audioEntity struct {
	aztables.Entity
	Title        string `json:"Title"`
	OriginalLink string `json:"OriginalLink"`
	FileID       string `json:"FileID"`
	AddedAt      string `json:"AddedAt"`
}

func encodeAudioEntity(userID string, a domain.Audio) audioEntity {
	return audioEntity{
		Entity:       aztables.Entity{PartitionKey: userID, RowKey: a.ID},
		Title:        a.Title,
		OriginalLink: a.OriginalLink,
		FileID:       a.FileID,
		AddedAt:      a.AddedAt.Format(time.RFC3339),
	}
}

func decodeAudioEntity(data []byte) (domain.Audio, error) {
	var ent audioEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Audio{}, err
	}
	a := domain.Audio{
		ID:           ent.RowKey,
		Title:        ent.Title,
		OriginalLink: ent.OriginalLink,
		FileID:       ent.FileID,
	}
	var err error
	if a.AddedAt, err = parseTime(ent.AddedAt); err != nil {
		return domain.Audio{}, err
	}
	return a, nil
}

// FetchAudio returns the user's audio links, newest first.
func (s *Storage) FetchAudio(ctx context.Context, userID string) ([]domain.Audio, error) {
	filter := "PartitionKey eq '" + userID + "'"
	pager := s.audio.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	links := []domain.Audio{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			a, err := decodeAudioEntity(e)
			if err != nil {
				return nil, err
			}
			links = append(links, a)
		}
	}
	sort.Slice(links, func(i, j int) bool { return links[i].AddedAt.After(links[j].AddedAt) })
	return links, nil
}

// AudioByID fetches one audio link owned by userID.
func (s *Storage) AudioByID(ctx context.Context, userID, id string) (domain.Audio, error) {
	resp, err := s.audio.GetEntity(ctx, userID, id, nil)
	if err != nil {
		return domain.Audio{}, notFoundErr(err)
	}
	return decodeAudioEntity(resp.Value)
}

// InsertAudio stores a new audio link.
func (s *Storage) InsertAudio(ctx context.Context, userID string, a domain.Audio) error {
	data, err := json.Marshal(encodeAudioEntity(userID, a))
	if err != nil {
		return err
	}
	_, err = s.audio.AddEntity(ctx, data, nil)
	return err
}

// UpdateAudio replaces an existing audio link; domain.ErrNotFound when absent.
func (s *Storage) UpdateAudio(ctx context.Context, userID string, a domain.Audio) error {
	data, err := json.Marshal(encodeAudioEntity(userID, a))
	if err != nil {
		return err
	}
	_, err = s.audio.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return notFoundErr(err)
}
