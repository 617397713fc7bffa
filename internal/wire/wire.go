package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Channel event names.
const (
	EventWindowRequest   = "window_request"
	EventWindowResponse  = "window_response"
	EventWindowEventLoop = "window_eventloop"
	EventBridgeAPI       = "bridge:api"
	EventInvokeResult    = "invoke:result"
	EventInvokeError     = "invoke:error"
)

// Protocol names multiplexed over EventBridgeAPI.
const (
	ProtocolUIResult       = "ui:result"
	ProtocolCommandInvoker = "command-invoker"
	ProtocolMenu           = "menu"
)

// DefaultNamespace is the namespace handlers register under unless told otherwise.
const DefaultNamespace = "/"

// ErrMalformed reports an inbound payload that does not match its schema.
var ErrMalformed = errors.New("malformed payload")

// Envelope is the single message shape carried by the channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into an envelope for event.
func NewEnvelope(event string, payload any) (Envelope, error) {
	if strings.TrimSpace(event) == "" {
		return Envelope{}, fmt.Errorf("envelope: %w: empty event", ErrMalformed)
	}
	if raw, ok := payload.(json.RawMessage); ok {
		return Envelope{Event: event, Data: raw}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return Envelope{Event: event, Data: data}, nil
}

// DecodeEnvelope parses one channel message.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("envelope: %w: %v", ErrMalformed, err)
	}
	if strings.TrimSpace(env.Event) == "" {
		return Envelope{}, fmt.Errorf("envelope: %w: missing event", ErrMalformed)
	}
	return env, nil
}

// Frame is an outbound request addressed to the UI process.
type Frame struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Args   any    `json:"args"`
}

// ResponseKind tags the variant carried by a Response.
type ResponseKind int

const (
	KindResult ResponseKind = iota
	KindError
)

func (k ResponseKind) String() string {
	if k == KindError {
		return "error"
	}
	return "result"
}

// Response is the UI process's answer to a Frame. Exactly one of Result or
// Error is meaningful, selected by Kind.
type Response struct {
	ID     string
	Kind   ResponseKind
	Result json.RawMessage
	Error  json.RawMessage
}

// ErrorMessage renders the error payload as text. String payloads are
// unquoted and objects with a "message" field use it.
func (r Response) ErrorMessage() string {
	if r.Kind != KindError {
		return ""
	}
	var text string
	if err := json.Unmarshal(r.Error, &text); err == nil {
		return text
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(r.Error, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return string(bytes.TrimSpace(r.Error))
}

// DecodeResponse parses a response object. The id field is required; the
// presence of an "error" key selects KindError, otherwise the result (or null)
// is carried.
func DecodeResponse(raw json.RawMessage) (Response, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return Response{}, fmt.Errorf("response: %w", err)
	}
	id, err := requiredString(fields, "id")
	if err != nil {
		return Response{}, fmt.Errorf("response: %w", err)
	}
	if errPayload, ok := fields["error"]; ok {
		return Response{ID: id, Kind: KindError, Error: errPayload}, nil
	}
	result := fields["result"]
	if len(result) == 0 {
		result = json.RawMessage("null")
	}
	return Response{ID: id, Kind: KindResult, Result: result}, nil
}

// APIMessage is the body of an EventBridgeAPI event.
type APIMessage struct {
	Protocol string          `json:"protocol"`
	Payload  json.RawMessage `json:"payload"`
}

// DecodeAPIMessage parses a protocol invocation event body.
func DecodeAPIMessage(raw json.RawMessage) (APIMessage, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return APIMessage{}, fmt.Errorf("api message: %w", err)
	}
	protocol, err := requiredString(fields, "protocol")
	if err != nil {
		return APIMessage{}, fmt.Errorf("api message: %w", err)
	}
	payload := fields["payload"]
	if len(payload) == 0 || string(payload) == "null" {
		payload = json.RawMessage("{}")
	}
	return APIMessage{Protocol: protocol, Payload: payload}, nil
}

// Invocation is the payload of an APIMessage. When Cmd is set the UI expects an
// answer addressed to ResultID or ErrorID.
type Invocation struct {
	Cmd      string
	ResultID string
	ErrorID  string
	Payload  map[string]any
}

// DecodeInvocation parses an APIMessage payload. A payload carrying "cmd" is
// unwrapped to its nested "payload"; any other object is taken as-is.
func DecodeInvocation(raw json.RawMessage) (Invocation, error) {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return Invocation{}, fmt.Errorf("invocation: %w: %v", ErrMalformed, err)
	}
	if body == nil {
		body = map[string]any{}
	}
	cmdValue, ok := body["cmd"]
	if !ok {
		return Invocation{Payload: body}, nil
	}
	cmd, ok := cmdValue.(string)
	if !ok {
		return Invocation{}, fmt.Errorf("invocation: %w: cmd must be a string", ErrMalformed)
	}
	inv := Invocation{Cmd: cmd, Payload: map[string]any{}}
	inv.ResultID, _ = body["result_id"].(string)
	inv.ErrorID, _ = body["error_id"].(string)
	switch nested := body["payload"].(type) {
	case nil:
	case map[string]any:
		inv.Payload = nested
	default:
		return Invocation{}, fmt.Errorf("invocation: %w: payload must be an object", ErrMalformed)
	}
	return inv, nil
}

// Data returns the mapping handed to a protocol handler: the payload, with the
// command name under "cmd" when present.
func (inv Invocation) Data() map[string]any {
	data := make(map[string]any, len(inv.Payload)+1)
	for k, v := range inv.Payload {
		data[k] = v
	}
	if inv.Cmd != "" {
		data["cmd"] = inv.Cmd
	}
	return data
}

// InvokeResult answers a successful command invocation.
type InvokeResult struct {
	ID     string `json:"id"`
	Result any    `json:"result"`
}

// InvokeError answers a failed command invocation.
type InvokeError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// EventLoopMessage is the body of an EventWindowEventLoop notification.
type EventLoopMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected object", ErrMalformed)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return fields, nil
}

func requiredString(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %s", ErrMalformed, key)
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("%w: %s must be a string", ErrMalformed, key)
	}
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: empty %s", ErrMalformed, key)
	}
	return value, nil
}

// Handler consumes one inbound event from the connection identified by conn.
type Handler func(ctx context.Context, conn string, data json.RawMessage) error
