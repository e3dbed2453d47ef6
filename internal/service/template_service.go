// internal/service/template_service.go
package service

import (
	"regexp"
	"strings"
)

var placeholder = regexp.MustCompile(`\{[a-z_]+\}`)

// RenderTemplate substitutes {key} placeholders from data in one pass.
// Placeholders without a value render as empty.
func RenderTemplate(template string, data map[string]string) string {
	result := placeholder.ReplaceAllStringFunc(template, func(m string) string {
		return data[m[1:len(m)-1]]
	})
	return strings.TrimSpace(result)
}
