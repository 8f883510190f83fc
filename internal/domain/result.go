package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ResultKind discriminates the content variants a tool can produce.
// Unlike ResultType it never takes the value "mixed": a captured artifact is
// always one concrete kind.
type ResultKind string

// Possible result content kinds
const (
	ResultKindText  ResultKind = "text"
	ResultKindImage ResultKind = "image"
	ResultKindVideo ResultKind = "video"
)

// Common validation errors for result content
var (
	ErrEmptyResultText   = errors.New("text result cannot be empty")
	ErrEmptyResultImages = errors.New("image result must carry at least one URL")
	ErrEmptyResultVideo  = errors.New("video result must carry a URL")
)

// ResultContent is the tagged union describing one captured artifact:
// raw text, one or more image URLs, or a single video URL. Exactly the
// fields matching Kind are populated.
type ResultContent struct {
	Kind      ResultKind `json:"kind"`
	Text      string     `json:"text,omitempty"`
	ImageURLs []string   `json:"image_urls,omitempty"`
	VideoURL  string     `json:"video_url,omitempty"`
}

// TextContent builds a text-kind ResultContent.
func TextContent(text string) ResultContent {
	return ResultContent{Kind: ResultKindText, Text: text}
}

// ImageContent builds an image-kind ResultContent.
func ImageContent(urls ...string) ResultContent {
	return ResultContent{Kind: ResultKindImage, ImageURLs: urls}
}

// VideoContent builds a video-kind ResultContent.
func VideoContent(url string) ResultContent {
	return ResultContent{Kind: ResultKindVideo, VideoURL: url}
}

// Validate checks that the populated fields match the content kind.
func (c ResultContent) Validate() error {
	switch c.Kind {
	case ResultKindText:
		if c.Text == "" {
			return ErrEmptyResultText
		}
	case ResultKindImage:
		if len(c.ImageURLs) == 0 {
			return ErrEmptyResultImages
		}
	case ResultKindVideo:
		if c.VideoURL == "" {
			return ErrEmptyResultVideo
		}
	default:
		return ErrInvalidResultContent
	}
	return nil
}

// RemoteURLs returns the remote media URLs referenced by the content, in
// order. Text content references none.
func (c ResultContent) RemoteURLs() []string {
	switch c.Kind {
	case ResultKindImage:
		return append([]string(nil), c.ImageURLs...)
	case ResultKindVideo:
		return []string{c.VideoURL}
	default:
		return nil
	}
}

// ParseResultContent decodes serialized result content. Historical records
// stored content as an opaque string rather than the tagged shape; anything
// that does not decode into a content object with a known kind is preserved
// as text content carrying the raw payload.
func ParseResultContent(raw []byte) ResultContent {
	var c ResultContent
	if err := json.Unmarshal(raw, &c); err == nil && c.Validate() == nil {
		return c
	}

	// Legacy path: the payload may be a JSON-encoded string, or not JSON
	// at all.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return TextContent(s)
	}
	return TextContent(string(raw))
}

// TaskResult records one captured artifact appended to a task's history.
// Immutable once created, except that media cache handles are attached after
// the best-effort caching pass completes.
type TaskResult struct {
	ID           uuid.UUID     `json:"id"`
	TaskID       uuid.UUID     `json:"task_id"`
	Content      ResultContent `json:"content"`
	CacheHandles []uuid.UUID   `json:"cache_handles,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// NewTaskResult creates a TaskResult for the given task and content.
// Returns an error if the content fails validation.
func NewTaskResult(taskID uuid.UUID, content ResultContent) (*TaskResult, error) {
	if taskID == uuid.Nil {
		return nil, ErrInvalidID
	}
	if err := content.Validate(); err != nil {
		return nil, err
	}

	return &TaskResult{
		ID:        uuid.New(),
		TaskID:    taskID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}, nil
}
