package dto

import (
	"time"

	"fieldservice-admin/pkg/restclient"
)

// CreateRecordDTO — форма создания родителя. Payload уходит в бэкенд как есть,
// Selections — выбранные id по типу ассоциации.
type CreateRecordDTO struct {
	Payload    map[string]interface{}     `json:"payload" validate:"required"`
	Selections map[string][]restclient.ID `json:"selections"`
}

type LinkOutcomeDTO struct {
	AssociationType string `json:"associationType"`
	AssociationID   string `json:"associationId"`
	Path            string `json:"path"`
	OK              bool   `json:"ok"`
	Error           string `json:"error,omitempty"`
}

// WorkflowReportDTO — ответ на создание: родитель создан, привязки могли
// пройти частично.
type WorkflowReportDTO struct {
	RunID    string           `json:"runId"`
	Entity   string           `json:"entity"`
	ParentID string           `json:"parentId"`
	Complete bool             `json:"complete"`
	Links    []LinkOutcomeDTO `json:"links"`
}

type LinkFailureDTO struct {
	ID              uint64     `json:"id"`
	RunID           string     `json:"runId"`
	Entity          string     `json:"entity"`
	ParentID        string     `json:"parentId"`
	AssociationType string     `json:"associationType"`
	AssociationID   string     `json:"associationId"`
	Path            string     `json:"path"`
	Error           string     `json:"error"`
	Attempts        int        `json:"attempts"`
	LastAttemptAt   *time.Time `json:"lastAttemptAt,omitempty"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// LinkFailureFilterDTO — фильтр журнала из query-параметров.
type LinkFailureFilterDTO struct {
	Entity          string `query:"entity" validate:"omitempty,entity_name"`
	From            string `query:"from" validate:"omitempty,date_ymd"`
	To              string `query:"to" validate:"omitempty,date_ymd,not_before=From"`
	IncludeResolved bool   `query:"includeResolved"`
	Limit           uint64 `query:"limit" validate:"omitempty,max=500"`
	Page            uint64 `query:"page"`
}
