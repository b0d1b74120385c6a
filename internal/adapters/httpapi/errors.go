package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/bnema/siteforge-cli/internal/domain"
)

const maxMessageLength = 512

func responseError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	return &domain.APIError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Message:    serverMessage(body),
		Kind:       domain.KindForStatus(resp.StatusCode),
	}
}

// serverMessage extracts {"message"} or {"error"} from a JSON error body and
// falls back to the trimmed raw body.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return truncateMessage(payload.Message)
		}
		if payload.Error != "" {
			return truncateMessage(payload.Error)
		}
	}

	return truncateMessage(strings.TrimSpace(string(body)))
}

// truncateMessage caps msg at maxMessageLength bytes without splitting a rune.
func truncateMessage(msg string) string {
	if len(msg) <= maxMessageLength {
		return msg
	}
	cut := maxMessageLength
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut] + "..."
}
