package entities

import (
	"time"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
)

// WorkflowRun — запись о прогоне создания с привязками.
type WorkflowRun struct {
	ID          uuid.UUID
	Entity      string
	ParentID    string
	UserID      uint64
	LinksTotal  int
	LinksFailed int
	CreatedAt   time.Time
}

// LinkFailure — привязка, которая не прошла. Родитель при этом уже создан.
type LinkFailure struct {
	ID              uint64
	RunID           uuid.UUID
	Entity          string
	ParentID        string
	AssociationType string
	AssociationID   string
	Path            string
	Error           string
	Attempts        int
	LastAttemptAt   null.Time
	ResolvedAt      null.Time
	CreatedAt       time.Time
}

func (f *LinkFailure) Resolved() bool { return f.ResolvedAt.Valid }
