package websocket

import "time"

// Типы сообщений. Входящие шлёт браузер, исходящие — сервер.
const (
	TypeListOpen   = "list.open"
	TypeListQuery  = "list.query"
	TypeListFilter = "list.filter"
	TypeListSort   = "list.sort"

	TypeListSnapshot = "list.snapshot"
	TypeListRefresh  = "list.refresh"
	TypeError        = "error"
)

// Envelope — конверт исходящего сообщения.
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Inbound — команда от браузера для открытого списка.
type Inbound struct {
	Type   string `json:"type"`
	Entity string `json:"entity,omitempty"`
	Query  string `json:"query,omitempty"`
	Key    string `json:"key,omitempty"`
	Value  string `json:"value,omitempty"`
}

// RefreshPayload — сигнал UI перечитать список сущности.
type RefreshPayload struct {
	Entity   string `json:"entity"`
	ParentID string `json:"parentId,omitempty"`
	Complete bool   `json:"complete"`
	Failed   int    `json:"failed"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
