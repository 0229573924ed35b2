package domain

import (
	"encoding/json"
	"time"
)

// Project groups tasks. The server scopes projects to the session's user.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// UnmarshalJSON accepts both "id" and Mongo-style "_id".
func (p *Project) UnmarshalJSON(data []byte) error {
	type plain Project
	var raw struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Project(raw.plain)
	if p.ID == "" {
		p.ID = raw.MongoID
	}
	return nil
}
