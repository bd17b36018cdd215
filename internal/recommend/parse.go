package recommend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spacesedan/mindtrack/internal/models"
)

var ErrEmptyReply = errors.New("reply has no suggestions or actions")

const defaultPriority = "medium"

type Reply struct {
	Suggestions      []models.Suggestion `json:"suggestions"`
	ImmediateActions []string            `json:"immediate_actions"`
}

// ParseReply decodes a model reply. Markdown fences are stripped, and a
// reply that fails to decode gets one repair pass that escapes raw control
// characters inside string literals.
func ParseReply(raw string) (Reply, error) {
	cleaned := cleanReply(raw)
	if cleaned == "" {
		return Reply{}, ErrEmptyReply
	}

	var reply Reply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		repaired := escapeControlChars(cleaned)
		if repairErr := json.Unmarshal([]byte(repaired), &reply); repairErr != nil {
			return Reply{}, fmt.Errorf("decode reply: %w", err)
		}
	}

	suggestions := make([]models.Suggestion, 0, len(reply.Suggestions))
	for _, s := range reply.Suggestions {
		if strings.TrimSpace(s.Title) == "" && strings.TrimSpace(s.Description) == "" {
			continue
		}
		if s.Priority == "" {
			s.Priority = defaultPriority
		}
		suggestions = append(suggestions, s)
	}
	actions := make([]string, 0, len(reply.ImmediateActions))
	for _, a := range reply.ImmediateActions {
		if a = strings.TrimSpace(a); a != "" {
			actions = append(actions, a)
		}
	}

	if len(suggestions) == 0 && len(actions) == 0 {
		return Reply{}, ErrEmptyReply
	}
	return Reply{Suggestions: suggestions, ImmediateActions: actions}, nil
}

func cleanReply(response string) string {
	response = strings.TrimSpace(response)

	if _, after, ok := strings.Cut(response, "```json"); ok {
		response, _, _ = strings.Cut(after, "```")
	} else if parts := strings.Split(response, "```"); len(parts) >= 3 {
		response = parts[1]
	}

	response = strings.ReplaceAll(response, "“", `"`)
	response = strings.ReplaceAll(response, "”", `"`)

	response = strings.TrimSpace(response)
	if start, end := strings.Index(response, "{"), strings.LastIndex(response, "}"); start >= 0 && end > start {
		response = response[start : end+1]
	}
	return response
}

// escapeControlChars escapes newlines, carriage returns and tabs that appear
// inside JSON string literals and leaves structural whitespace alone.
func escapeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString, escaped := false, false
	for _, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			case r == '\n':
				b.WriteString(`\n`)
				continue
			case r == '\r':
				b.WriteString(`\r`)
				continue
			case r == '\t':
				b.WriteString(`\t`)
				continue
			}
		} else if r == '"' {
			inString = true
		}
		b.WriteRune(r)
	}
	return b.String()
}
