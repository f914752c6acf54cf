package mirror

import (
	"strconv"
	"strings"
	"time"

	"vault-planning/internal/models"
)

// FrontmatterVersion is written as fm_version in every task note.
const FrontmatterVersion = 2

// Whitelist is the set of system-managed keys, in the order they are written.
var Whitelist = []string{
	"fm_version", "id", "title", "status", "priority",
	"tags", "estimate_min", "due_date", "created_at", "updated_at",
}

const delimiter = "---"

// Fields is a flat front-matter block.
type Fields map[string]string

func isWhitelisted(key string) bool {
	for _, k := range Whitelist {
		if k == key {
			return true
		}
	}
	return false
}

// ParseFrontmatter splits content into its front-matter block and body. The
// body is everything after the closing delimiter line, byte for byte. A block
// without a closing delimiter, or with a line that is not "key: value", is
// malformed: ok is false and the whole content is returned as body.
func ParseFrontmatter(content string) (Fields, string, bool) {
	first, rest, found := strings.Cut(content, "\n")
	if !found || strings.TrimRight(first, "\r") != delimiter {
		return nil, content, false
	}

	fields := Fields{}
	for {
		line, tail, found := strings.Cut(rest, "\n")
		line = strings.TrimRight(line, "\r")
		if line == delimiter {
			return fields, tail, true
		}
		if !found {
			return nil, content, false
		}
		rest = tail

		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, hasColon := strings.Cut(line, ":")
		if !hasColon || strings.TrimSpace(key) == "" {
			return nil, content, false
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
}

// RenderFrontmatter serializes the whitelisted keys of fields, fm_version
// first, followed by body unchanged.
func RenderFrontmatter(fields Fields, body string) string {
	var b strings.Builder
	b.WriteString(delimiter + "\n")
	b.WriteString("fm_version: " + strconv.Itoa(FrontmatterVersion) + "\n")
	for _, key := range Whitelist[1:] {
		value, ok := fields[key]
		if !ok {
			continue
		}
		b.WriteString(key + ": " + flatten(value) + "\n")
	}
	b.WriteString(delimiter + "\n")
	b.WriteString(body)
	return b.String()
}

func flatten(v string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(v)
}

// Project returns the whitelisted front-matter view of a task.
func Project(t *models.Task) Fields {
	fields := Fields{
		"fm_version":   strconv.Itoa(FrontmatterVersion),
		"id":           t.ID,
		"title":        t.Title,
		"status":       string(t.Status),
		"priority":     "p3",
		"tags":         "[" + strings.Join(t.Tags, ", ") + "]",
		"estimate_min": "null",
		"due_date":     "null",
		"created_at":   FormatTime(t.CreatedAt),
		"updated_at":   FormatTime(t.UpdatedAt),
	}
	if t.Priority != nil {
		fields["priority"] = t.Priority.Code()
	}
	if t.EstimateMin != nil {
		fields["estimate_min"] = strconv.FormatInt(*t.EstimateMin, 10)
	}
	if t.HasDueDate() {
		fields["due_date"] = *t.DueDate
	}
	return fields
}

// Diff returns the keys of after whose values differ from before.
func Diff(before, after Fields) Fields {
	delta := Fields{}
	for k, v := range after {
		if old, ok := before[k]; !ok || old != v {
			delta[k] = v
		}
	}
	return delta
}

// FormatTime renders timestamps the way notes and API responses carry them.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
