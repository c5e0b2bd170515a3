// Package events contains the websocket message contracts of the live
// dashboard channel.
package events

import (
	"time"

	api "avancofisico/pkg/contracts/api/v1"
	"avancofisico/pkg/contracts/domain"
)

// ProtocolVersion is sent with the status message on connect
const ProtocolVersion = "1.0"

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Client to server
	MessageTypeFilters MessageType = "filters"
	MessageTypeReset   MessageType = "reset"
	MessageTypePing    MessageType = "ping"

	// Server to client
	MessageTypeDashboard MessageType = "dashboard"
	MessageTypeStatus    MessageType = "status"
	MessageTypePong      MessageType = "pong"
	MessageTypeError     MessageType = "error"
)

// ClientMessage is a message sent by a dashboard client. Filters is read for
// MessageTypeFilters only.
type ClientMessage struct {
	ID      string             `json:"id,omitempty"`
	Type    MessageType        `json:"type"`
	Filters *api.FilterRequest `json:"filters,omitempty"`
}

// BaseMessage represents the base structure for all server messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// ErrorData describes a rejected client message
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// StatusData is sent once when a client connects
type StatusData struct {
	Protocol string               `json:"protocol"`
	ClientID string               `json:"client_id"`
	Dataset  domain.DatasetStatus `json:"dataset"`
}

// ServerMessage is a message sent to a dashboard client. Exactly one payload
// field is set, matching Type.
type ServerMessage struct {
	BaseMessage
	Dashboard *domain.Dashboard `json:"dashboard,omitempty"`
	Status    *StatusData       `json:"status,omitempty"`
	Error     *ErrorData        `json:"error,omitempty"`
}

// NewServerMessage stamps a message of the given type, replying to id
func NewServerMessage(typ MessageType, id string) ServerMessage {
	return ServerMessage{BaseMessage: BaseMessage{ID: id, Type: typ, Timestamp: time.Now().UTC()}}
}
