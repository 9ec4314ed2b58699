package listeners

import (
	"context"

	"go.uber.org/zap"

	"fieldservice-admin/internal/events"
	"fieldservice-admin/internal/services"
	"fieldservice-admin/pkg/eventbus"
	"fieldservice-admin/pkg/websocket"
)

// WorkflowListener после каждого прогона пишет журнал и просит UI обновить
// список.
type WorkflowListener struct {
	journal  services.JournalServiceInterface
	notifier services.WebSocketNotificationServiceInterface
	logger   *zap.Logger
}

func NewWorkflowListener(
	journal services.JournalServiceInterface,
	notifier services.WebSocketNotificationServiceInterface,
	logger *zap.Logger,
) *WorkflowListener {
	return &WorkflowListener{journal: journal, notifier: notifier, logger: logger}
}

func (l *WorkflowListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.WorkflowCompleted, l.handleWorkflowCompleted)
	bus.Subscribe(events.RecordDeleted, l.handleRecordDeleted)
	l.logger.Info("WorkflowListener подписан на события",
		zap.Strings("events", []string{events.WorkflowCompleted, events.RecordDeleted}))
}

func (l *WorkflowListener) handleWorkflowCompleted(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.WorkflowCompletedEvent)
	if !ok || e.Report == nil {
		return nil
	}

	// UI обновляется даже если журнал недоступен
	journalErr := l.journal.Record(ctx, e.RunID, e.UserID, e.Report)

	payload := websocket.RefreshPayload{
		Entity:   e.Report.Entity,
		ParentID: e.Report.ParentID.String(),
		Complete: e.Report.Complete(),
		Failed:   len(e.Report.Failed()),
	}
	if err := l.notifier.SendNotification(e.UserID, payload, websocket.TypeListRefresh); err != nil {
		l.logger.Error("Не удалось отправить сигнал обновления", zap.Uint64("userID", e.UserID), zap.Error(err))
	}
	return journalErr
}

func (l *WorkflowListener) handleRecordDeleted(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.RecordDeletedEvent)
	if !ok {
		return nil
	}
	return l.notifier.Broadcast(websocket.RefreshPayload{Entity: e.Entity, Complete: true}, websocket.TypeListRefresh)
}
