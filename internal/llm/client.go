package llm

import (
	"context"
	"errors"
)

// Client defines the interface for LLM providers. Generate returns the raw
// text of the model's reply, which is JSON when the request carries a Schema.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
	Close() error
}

// Role identifies the author of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Image is inline image data attached to a user turn.
type Image struct {
	MIMEType string
	Data     []byte
}

// Message is one conversation turn. The last message of a Request is the
// prompt; earlier ones are history.
type Message struct {
	Image *Image
	Role  Role
	Text  string
}

// SchemaType is the JSON type of a schema node.
type SchemaType string

// Schema types understood by every provider.
const (
	TypeString  SchemaType = "string"
	TypeBoolean SchemaType = "boolean"
	TypeArray   SchemaType = "array"
	TypeObject  SchemaType = "object"
)

// Schema constrains structured output.
type Schema struct {
	Properties  map[string]*Schema
	Items       *Schema
	Type        SchemaType
	Description string
	Required    []string
}

// Request is a single structured chat completion.
type Request struct {
	Schema      *Schema
	System      string
	Messages    []Message
	Temperature float32
}

// ErrEmptyResponse is returned when the provider produced no text.
var ErrEmptyResponse = errors.New("empty response from LLM")

// UserText builds a user turn.
func UserText(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// ModelText builds a model turn, used to replay earlier answers.
func ModelText(text string) Message {
	return Message{Role: RoleModel, Text: text}
}
