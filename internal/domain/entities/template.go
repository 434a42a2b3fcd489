package entities

import (
	"regexp"
	"time"
)

// MessageTemplate is a reusable message body with {variable} placeholders
// substituted at send time.
type MessageTemplate struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Body      string    `json:"content" db:"content"`
	Variables []string  `json:"variables" db:"variables"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

var templateVariablePattern = regexp.MustCompile(`\{([^}]+)\}`)

// ExtractTemplateVariables returns the placeholder names found in body, in
// first-occurrence order with duplicates removed. Variables are a pure
// projection of the body text, never edited independently.
func ExtractTemplateVariables(body string) []string {
	matches := templateVariablePattern.FindAllStringSubmatch(body, -1)

	variables := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, match := range matches {
		name := match[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		variables = append(variables, name)
	}
	return variables
}
