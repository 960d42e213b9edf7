package websocket

import (
	"encoding/json"
	"time"
)

// Message types exchanged with the preview page
const (
	TypeConnection = "connection"
	TypeHeartbeat  = "heartbeat"
	TypePreview    = "preview"
	TypeLicense    = "license"
	TypeError      = "error"
)

// Inbound is a message sent by the browser. For preview messages Request
// holds a services.LayoutRequest; omitted fields keep the form defaults.
type Inbound struct {
	Type    string          `json:"type"`
	Request json.RawMessage `json:"request,omitempty"`
}

// Outbound is a message sent to the browser
type Outbound struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// ErrorData describes a rejected preview request
type ErrorData struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func newOutbound(msgType string, data interface{}, traceID string) ([]byte, error) {
	return json.Marshal(Outbound{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
		TraceID:   traceID,
	})
}
