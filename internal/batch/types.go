package batch

import "encoding/json"

// Batch job statuses as reported by the provider.
const (
	StatusValidating = "validating"
	StatusInProgress = "in_progress"
	StatusFinalizing = "finalizing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusExpired    = "expired"
	StatusCancelled  = "cancelled"
)

// IsTerminal reports whether no further status transition can occur.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// IsFailure reports a terminal status other than completed.
func IsFailure(status string) bool {
	return IsTerminal(status) && status != StatusCompleted
}

// Job is the client-side view of a remote batch job. It is created on
// submission and only ever refreshed from the provider.
type Job struct {
	ID           string `json:"id"`
	InputFileID  string `json:"input_file_id"`
	Status       string `json:"status"`
	OutputFileID string `json:"output_file_id,omitempty"`
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one line of a batch input file.
type Request struct {
	CustomID string      `json:"custom_id"`
	Method   string      `json:"method"`
	URL      string      `json:"url"`
	Body     RequestBody `json:"body"`
}

// RequestBody is the chat-completion payload carried by a request line.
// The response format is kept as raw JSON so request files round-trip
// through disk unchanged.
type RequestBody struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat json.RawMessage `json:"response_format,omitempty"`
}

// SystemMessage returns the content of the first system turn, or "".
func (b RequestBody) SystemMessage() string {
	return b.firstContent("system")
}

// UserMessage returns the content of the first user turn, or "".
func (b RequestBody) UserMessage() string {
	return b.firstContent("user")
}

func (b RequestBody) firstContent(role string) string {
	for _, m := range b.Messages {
		if m.Role == role {
			return m.Content
		}
	}
	return ""
}

// Response is one line of a batch output file.
type Response struct {
	ID       string         `json:"id,omitempty"`
	CustomID string         `json:"custom_id"`
	Response *ResponseBody  `json:"response"`
	Error    *ResponseError `json:"error,omitempty"`
}

// ResponseBody wraps the status code and completion for one request.
type ResponseBody struct {
	StatusCode int            `json:"status_code"`
	RequestID  string         `json:"request_id,omitempty"`
	Body       CompletionBody `json:"body"`
}

// CompletionBody is the subset of a chat completion the pipeline reads.
type CompletionBody struct {
	Model   string   `json:"model,omitempty"`
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Message Message `json:"message"`
}

// ResponseError carries a per-line provider error.
type ResponseError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// AssistantContent returns the first choice's content for a successful
// response, or "" when the line failed or came back empty.
func (r Response) AssistantContent() string {
	if r.Response == nil || r.Response.StatusCode != 200 {
		return ""
	}
	if len(r.Response.Body.Choices) == 0 {
		return ""
	}
	return r.Response.Body.Choices[0].Message.Content
}
