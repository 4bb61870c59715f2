package protocol

import (
	"encoding/json"
	"fmt"
)

// Result codes carried in [Response.Result].
const (
	CodeWrongCommand         = "wrong_command"
	CodeError                = "error"
	CodeIncompleteParameters = "incomplete_parameters"
	CodeNoSuchFile           = "no_such_file"
	CodeTooBigSignature      = "too_big_signature"
	CodeNotASignature        = "not_a_signature"
	CodeMoved                = "moved"

	// Reported by the client, under [Failure.Message], when the daemon
	// refuses the connection.
	CodeConnectionRefused = "connection_refused"
)

// Command names understood by the daemon.
const (
	CmdCheckLocalFile      = "CheckLocalFile"
	CmdQuarantineLocalFile = "QuarantineLocalFile"
)

// Command parameters, keyed by parameter name.
type Params map[string]any

// A request sent by a client.
type Message struct {
	Name   string `json:"name"`
	Params Params `json:"params"`
}

// The server's answer to a single [Message].
//
// Result holds a result code, a list of offsets, or nil. Both keys are
// always encoded.
type Response struct {
	Status bool `json:"status"`
	Result any  `json:"result"`
}

// Reported by the client when no exchange with the daemon took place.
//
// Uses a "message" key rather than "result" so callers can tell transport
// failures from server answers.
type Failure struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

// Returns a successful response carrying result.
func OK(result any) Response {
	return Response{Status: true, Result: result}
}

// Returns an unsuccessful response carrying the result code.
func Fail(code string) Response {
	return Response{Status: false, Result: code}
}

// Returns a transport failure with the given message.
func NewFailure(message string) Failure {
	return Failure{Status: false, Message: message}
}

// Returns the string parameter called name.
//
// The second return value is false when the parameter is absent or null. A
// present parameter of any other type is an error.
func (p Params) String(name string) (string, bool, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", true, fmt.Errorf("%w: %s must be a string, got %T", ErrParameter, name, v)
	}
	return s, true, nil
}

// Encodes a response for the wire.
func Encode(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return data, nil
}

// Encodes a request for the wire.
func EncodeMessage(name string, params Params) ([]byte, error) {
	data, err := json.Marshal(Message{Name: name, Params: params})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return data, nil
}

// Decodes a complete JSON document into a [Message].
//
// The document must be an object. A missing or non-string name yields an
// empty name, which no command matches. Missing or null params yield empty
// params; params of any other non-object type are an error.
func Decode(doc []byte) (*Message, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(doc, &envelope); err != nil || envelope == nil {
		return nil, fmt.Errorf("%w: request is not an object", ErrMalformed)
	}

	msg := &Message{Params: Params{}}

	if raw, ok := envelope["name"]; ok {
		var name string
		if json.Unmarshal(raw, &name) == nil {
			msg.Name = name
		}
	}

	if raw, ok := envelope["params"]; ok {
		var params Params
		if err := json.Unmarshal(raw, &params); err != nil {
			return msg, fmt.Errorf("%w: params must be an object", ErrParameter)
		}
		if params != nil {
			msg.Params = params
		}
	}

	return msg, nil
}
