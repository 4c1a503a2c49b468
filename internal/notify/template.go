package notify

import (
	"fmt"
	"regexp"
)

// DefaultResultTemplate is used when no result_message_template setting
// is configured.
const DefaultResultTemplate = "Subject: {subject}\nGrade: {grade}\nRank: {rank}\nPercentile: {percentile}%"

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_]+)\}`)

// RenderTemplate substitutes {placeholder} tokens in tmpl from vars.
// A token with no matching variable is a configuration error; the
// dashboard runs the same check before a template is saved.
func RenderTemplate(tmpl string, vars map[string]string) (string, error) {
	var unknown []string

	rendered := placeholderPattern.ReplaceAllStringFunc(tmpl, func(token string) string {
		name := placeholderPattern.FindStringSubmatch(token)[1]
		value, ok := vars[name]
		if !ok {
			unknown = append(unknown, name)
			return token
		}
		return value
	})

	if len(unknown) > 0 {
		return "", fmt.Errorf("template references unknown placeholders %v", unknown)
	}
	return rendered, nil
}
