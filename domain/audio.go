package domain

import "time"

// Audio is a saved audio link. Entries are permanent; there is no delete.
type Audio struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	OriginalLink string    `json:"originalLink"`
	FileID       string    `json:"fileId"`
	AddedAt      time.Time `json:"addedAt"`
}
