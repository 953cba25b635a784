// Package wire defines the msgpack envelopes exchanged with submitters.
// Every frame is a self-describing map with string keys; one frame per
// connection in each direction.
package wire

// Request is a task submission. Pointer fields distinguish an absent key
// from a zero value so validation can name the missing field.
type Request struct {
	ID        *string `msgpack:"id"`
	Text      *string `msgpack:"text"`
	Callback  *string `msgpack:"callback"`
	ModelID   *uint64 `msgpack:"model_id"`
	Ranked    *bool   `msgpack:"ranked"`
	Priority  *string `msgpack:"priority"`
	MaxTokens *uint32 `msgpack:"max_tokens"`
}

// Ack acknowledges an accepted submission on the inbound connection.
type Ack struct {
	ID     string `msgpack:"id"`
	Status string `msgpack:"status"`
}

// ErrorFrame reports a failure, either synchronously on the inbound
// connection or asynchronously on the callback endpoint.
type ErrorFrame struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"error"`
	Code  int    `msgpack:"code"`
}

// Result carries a completed inference to the callback endpoint.
type Result struct {
	ID            string `msgpack:"id"`
	ModelID       uint64 `msgpack:"model_id"`
	ToolID        string `msgpack:"tool_id"`
	ToolInputJSON string `msgpack:"tool_input_json"`
	Priority      string `msgpack:"priority"`
}

// MissingField returns the name of the first required field absent from r,
// checked in the order id, text, callback. An empty id or callback counts
// as absent; an empty text does not. Empty string means complete.
func (r *Request) MissingField() string {
	if r.ID == nil || *r.ID == "" {
		return "id"
	}
	if r.Text == nil {
		return "text"
	}
	if r.Callback == nil || *r.Callback == "" {
		return "callback"
	}
	return ""
}
