package completion

import "errors"

// User-visible failure messages.
const (
	msgGenerationFailed = "Failed to generate content from Gemini API."
	msgChatSendFailed   = "Failed to send message to Gemini API chat."
)

var (
	errMissingAPIKey  = errors.New("API key is not configured")
	errMissingBackend = errors.New("no completion backend configured")
	errEmptyResponse  = errors.New("empty response from model")
)

// ConfigurationError reports that the model service cannot be used.
// Startup never fails on it; the AI entry points are disabled instead.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return "AI service is not configured: " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// GenerationError is returned when a single-shot generation fails.
// Its message is meant to be shown to the user verbatim.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return msgGenerationFailed }

func (e *GenerationError) Unwrap() error { return e.Err }

// ChatSendError is returned when a chat turn cannot be streamed.
type ChatSendError struct {
	Err error
}

func (e *ChatSendError) Error() string { return msgChatSendFailed }

func (e *ChatSendError) Unwrap() error { return e.Err }
