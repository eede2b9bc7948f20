package assistant

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabrieljoian/portfolio/backend/internal/service/ai"
)

const (
	// GenericFailure is shown when nothing more specific is known.
	GenericFailure = "Failed to send message. Please try again."
	// MissingCredential is shown when no API key is configured.
	MissingCredential = "OpenAI API key not configured. Please add OPENAI_API_KEY to your environment."
)

// Describe returns the most specific user-facing text for err: a
// server-supplied message, then a status-coded message, then GenericFailure.
func Describe(err error) string {
	var (
		serviceErr *ai.ServiceError
		malformed  *ai.MalformedResponseError
	)

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ai.ErrMissingCredential):
		return MissingCredential
	case errors.As(err, &serviceErr):
		if msg := strings.TrimSpace(serviceErr.Message); msg != "" {
			return msg
		}
		return fmt.Sprintf("API error: %d", serviceErr.Status)
	case errors.As(err, &malformed):
		return fmt.Sprintf("API error: %d (unexpected response)", malformed.Status)
	default:
		return GenericFailure
	}
}

// NotificationFor builds the destructive toast shown for err.
func NotificationFor(err error) Notification {
	return Notification{
		Title:       "Error",
		Description: Describe(err),
		Variant:     "destructive",
	}
}

// IsSubmitKeystroke reports whether a keystroke submits the draft. Enter
// submits; Enter with a modifier inserts a newline instead.
func IsSubmitKeystroke(key string, modified bool) bool {
	return strings.EqualFold(key, "enter") && !modified
}
