package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fieldservice-admin/internal/listing"
	"fieldservice-admin/internal/services"
	apperrors "fieldservice-admin/pkg/errors"
	"fieldservice-admin/pkg/service"
	appwebsocket "fieldservice-admin/pkg/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketController struct {
	hub            *appwebsocket.Hub
	jwtService     service.JWTService
	listingService services.ListingServiceInterface
	logger         *zap.Logger
}

func NewWebSocketController(
	hub *appwebsocket.Hub,
	jwtService service.JWTService,
	listingService services.ListingServiceInterface,
	logger *zap.Logger,
) *WebSocketController {
	return &WebSocketController{
		hub:            hub,
		jwtService:     jwtService,
		listingService: listingService,
		logger:         logger,
	}
}

// ServeWs — access-токен приходит в query-параметре token.
func (ctrl *WebSocketController) ServeWs(c echo.Context) error {
	tokenString := c.QueryParam("token")
	if tokenString == "" {
		return c.String(http.StatusUnauthorized, "Missing token")
	}

	claims, err := ctrl.jwtService.ValidateToken(tokenString)
	if err != nil || claims.IsRefreshToken {
		return c.String(http.StatusUnauthorized, "Invalid token")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		ctrl.logger.Error("WebSocket: не удалось улучшить соединение", zap.Error(err))
		return err
	}

	client := appwebsocket.NewClient(ctrl.hub, conn, claims.UserID)
	ctrl.hub.Register(client)

	session := newListSession(ctrl.listingService, ctrl.logger.With(zap.Uint64("user_id", claims.UserID)))

	go client.WritePump()
	go func() {
		client.ReadPump(session.handle)
		session.close()
	}()
	return nil
}

// listSession — живой список одного соединения. Открытие нового списка
// закрывает предыдущий.
type listSession struct {
	listingService services.ListingServiceInterface
	logger         *zap.Logger

	mu     sync.Mutex
	view   *listing.View
	cancel context.CancelFunc
}

func newListSession(listingService services.ListingServiceInterface, logger *zap.Logger) *listSession {
	return &listSession{listingService: listingService, logger: logger}
}

func (s *listSession) handle(client *appwebsocket.Client, msg appwebsocket.Inbound) {
	var err error
	switch msg.Type {
	case appwebsocket.TypeListOpen:
		err = s.open(client, msg.Entity)
	case appwebsocket.TypeListQuery:
		err = s.withView(func(v *listing.View) error {
			v.SetQuery(msg.Query)
			return nil
		})
	case appwebsocket.TypeListFilter:
		err = s.withView(func(v *listing.View) error { return v.SetFilter(msg.Key, msg.Value) })
	case appwebsocket.TypeListSort:
		err = s.withView(func(v *listing.View) error { return v.SetSort(msg.Key) })
	default:
		err = apperrors.NewBadRequestError(fmt.Sprintf("Unknown message type %q.", msg.Type))
	}

	if err != nil {
		s.logger.Debug("WebSocket: команда отклонена", zap.String("type", msg.Type), zap.Error(err))
		_ = client.SendEnvelope(appwebsocket.TypeError, appwebsocket.ErrorPayload{Message: userMessage(err)})
	}
}

func (s *listSession) open(client *appwebsocket.Client, entity string) error {
	ctx, cancel := context.WithCancel(context.Background())
	view, err := s.listingService.NewLiveView(ctx, entity, func(snap listing.Snapshot) {
		_ = client.SendEnvelope(appwebsocket.TypeListSnapshot, snap)
	})
	if err != nil {
		cancel()
		return err
	}

	s.mu.Lock()
	s.closeLocked()
	s.view, s.cancel = view, cancel
	s.mu.Unlock()

	view.Load()
	return nil
}

func (s *listSession) withView(fn func(v *listing.View) error) error {
	s.mu.Lock()
	view := s.view
	s.mu.Unlock()
	if view == nil {
		return apperrors.NewBadRequestError("No list is open.")
	}
	return fn(view)
}

func (s *listSession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *listSession) closeLocked() {
	if s.view != nil {
		s.view.Close()
		s.cancel()
		s.view, s.cancel = nil, nil
	}
}

func userMessage(err error) string {
	var httpErr *apperrors.HttpError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Message
	case errors.Is(err, listing.ErrUnknownFilter):
		return "Unknown filter."
	case errors.Is(err, listing.ErrUnknownSortKey):
		return "Unknown sort field."
	default:
		return "Request failed."
	}
}
