package constants

// Request/response field names on the wire.
const (
	FieldID        = "id"
	FieldText      = "text"
	FieldCallback  = "callback"
	FieldModelID   = "model_id"
	FieldRanked    = "ranked"
	FieldPriority  = "priority"
	FieldMaxTokens = "max_tokens"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldCode      = "code"
	FieldToolID    = "tool_id"
	FieldToolInput = "tool_input_json"
)

// StatusAccepted is the ack status token.
const StatusAccepted = "accepted"

// ToolChat is the tool id carried on chat results.
const ToolChat = "__chat__"

// UnknownID is reported when a request fails before its id could be parsed.
const UnknownID = "unknown"

// DefaultMaxTokens applies when a request omits max_tokens.
const DefaultMaxTokens = 256

// RankingMaxTokens bounds the classification generation. 10 tokens is the
// minimum for the priority line; 24 leaves room for backends that tokenize
// the label across several pieces.
const RankingMaxTokens = 24
