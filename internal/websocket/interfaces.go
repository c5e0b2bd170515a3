package websocket

import (
	"context"
	"time"

	"avancofisico/pkg/contracts/domain"
)

// Connection is the part of a websocket connection the client pumps use.
// *websocket.Conn satisfies it.
type Connection interface {
	// WriteMessage writes a message with the given message type and payload
	WriteMessage(messageType int, data []byte) error

	// ReadMessage reads a message from the connection
	ReadMessage() (messageType int, p []byte, err error)

	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
}

// Renderer produces dashboards for client filter selections
type Renderer interface {
	Status() domain.DatasetStatus
	Render(ctx context.Context, spec domain.FilterSpec) (domain.Dashboard, error)
}

// Validator checks decoded client filters
type Validator interface {
	Struct(s any) error
}
