package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"timetable-api/domain"
)

// User rows live under a fixed partition keyed by id; a second partition of
// email index rows gives the unique-email guarantee, because AddEntity on an
// existing key is rejected atomically by the table service.
const (
	userPartition  = "user"
	emailPartition = "email"
)

type userEntity struct {
	aztables.Entity
	Name               string `json:"Name"`
	Email              string `json:"Email"`
	PasswordHash       string `json:"PasswordHash"`
	SubscriptionStatus string `json:"SubscriptionStatus"`
	TrialEndsAt        string `json:"TrialEndsAt"`
	SubscriptionID     string `json:"SubscriptionID"`
	CustomerID         string `json:"CustomerID"`
	OrderID            string `json:"OrderID"`
	SubscriptionEndsAt string `json:"SubscriptionEndsAt"`
	LastLoginAt        string `json:"LastLoginAt"`
	CreatedAt          string `json:"CreatedAt"`
}

type emailIndexEntity struct {
	aztables.Entity
	UserID string `json:"UserID"`
}

func encodeUserEntity(u domain.User) userEntity {
	ent := userEntity{
		Entity:             aztables.Entity{PartitionKey: userPartition, RowKey: u.ID},
		Name:               u.Name,
		Email:              u.Email,
		PasswordHash:       u.PasswordHash,
		SubscriptionStatus: u.SubscriptionStatus,
		TrialEndsAt:        u.TrialEndsAt.Format(time.RFC3339),
		SubscriptionID:     u.SubscriptionID,
		CustomerID:         u.CustomerID,
		OrderID:            u.OrderID,
		LastLoginAt:        u.LastLoginAt.Format(time.RFC3339),
		CreatedAt:          u.CreatedAt.Format(time.RFC3339),
	}
	if u.SubscriptionEndsAt != nil {
		ent.SubscriptionEndsAt = u.SubscriptionEndsAt.Format(time.RFC3339)
	}
	return ent
}

func decodeUserEntity(data []byte) (domain.User, error) {
	var ent userEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.User{}, err
	}
	u := domain.User{
		ID:                 ent.RowKey,
		Name:               ent.Name,
		Email:              ent.Email,
		PasswordHash:       ent.PasswordHash,
		SubscriptionStatus: ent.SubscriptionStatus,
		SubscriptionID:     ent.SubscriptionID,
		CustomerID:         ent.CustomerID,
		OrderID:            ent.OrderID,
	}
	var err error
	if u.TrialEndsAt, err = parseTime(ent.TrialEndsAt); err != nil {
		return domain.User{}, err
	}
	if u.LastLoginAt, err = parseTime(ent.LastLoginAt); err != nil {
		return domain.User{}, err
	}
	if u.CreatedAt, err = parseTime(ent.CreatedAt); err != nil {
		return domain.User{}, err
	}
	if ent.SubscriptionEndsAt != "" {
		end, err := time.Parse(time.RFC3339, ent.SubscriptionEndsAt)
		if err != nil {
			return domain.User{}, err
		}
		u.SubscriptionEndsAt = &end
	}
	return u, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

// CreateUser inserts a new user, failing with domain.ErrEmailTaken when the
// email is already registered. The email index row is written first so two
// racing signups cannot both succeed.
func (s *Storage) CreateUser(ctx context.Context, u domain.User) error {
	idx := emailIndexEntity{
		Entity: aztables.Entity{PartitionKey: emailPartition, RowKey: strings.ToLower(u.Email)},
		UserID: u.ID,
	}
	data, err := json.Marshal(idx)
	if err != nil {
		return err
	}
	if _, err := s.users.AddEntity(ctx, data, nil); err != nil {
		if hasStatus(err, http.StatusConflict) {
			return domain.ErrEmailTaken
		}
		return err
	}

	data, err = json.Marshal(encodeUserEntity(u))
	if err != nil {
		return err
	}
	_, err = s.users.AddEntity(ctx, data, nil)
	return err
}

// UserByID fetches a single user row.
func (s *Storage) UserByID(ctx context.Context, id string) (domain.User, error) {
	resp, err := s.users.GetEntity(ctx, userPartition, id, nil)
	if err != nil {
		return domain.User{}, notFoundErr(err)
	}
	return decodeUserEntity(resp.Value)
}

// UserByEmail resolves the email index row and loads the referenced user.
func (s *Storage) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	resp, err := s.users.GetEntity(ctx, emailPartition, strings.ToLower(email), nil)
	if err != nil {
		return domain.User{}, notFoundErr(err)
	}
	var idx emailIndexEntity
	if err := json.Unmarshal(resp.Value, &idx); err != nil {
		return domain.User{}, err
	}
	return s.UserByID(ctx, idx.UserID)
}

// UserBySubscriptionID scans the user partition for a gateway subscription id.
// Webhooks are rare enough that a filtered scan is fine here.
func (s *Storage) UserBySubscriptionID(ctx context.Context, subscriptionID string) (domain.User, error) {
	filter := "PartitionKey eq '" + userPartition + "' and SubscriptionID eq '" + subscriptionID + "'"
	pager := s.users.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return domain.User{}, err
		}
		for _, e := range resp.Entities {
			return decodeUserEntity(e)
		}
	}
	return domain.User{}, domain.ErrNotFound
}

// UpdateUser replaces the stored user row.
func (s *Storage) UpdateUser(ctx context.Context, u domain.User) error {
	data, err := json.Marshal(encodeUserEntity(u))
	if err != nil {
		return err
	}
	_, err = s.users.UpsertEntity(ctx, data, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return err
}

// ListUsers returns every user row. Used by the subscription sweeper.
func (s *Storage) ListUsers(ctx context.Context) ([]domain.User, error) {
	filter := "PartitionKey eq '" + userPartition + "'"
	pager := s.users.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	users := []domain.User{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			u, err := decodeUserEntity(e)
			if err != nil {
				return nil, err
			}
			users = append(users, u)
		}
	}
	return users, nil
}
