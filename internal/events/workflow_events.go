package events

import (
	"github.com/google/uuid"

	"fieldservice-admin/internal/workflow"
)

const WorkflowCompleted = "workflow.completed"

// WorkflowCompletedEvent — родитель создан, все привязки отработали
// (успешно или нет).
type WorkflowCompletedEvent struct {
	RunID  uuid.UUID
	UserID uint64
	Report *workflow.Report
}

func (e WorkflowCompletedEvent) Name() string {
	return WorkflowCompleted
}

const RecordDeleted = "record.deleted"

type RecordDeletedEvent struct {
	UserID uint64
	Entity string
	ID     string
}

func (e RecordDeletedEvent) Name() string {
	return RecordDeleted
}
