package reports

import (
	"strings"
	"time"
)

// PathTemplate generates report output directories from templates
type PathTemplate struct {
	template string
}

// NewPathTemplate creates a new PathTemplate instance
func NewPathTemplate(template string) *PathTemplate {
	return &PathTemplate{template: template}
}

// Generate replaces placeholders in the template with actual values
// Supports: {name}, {YYYY}, {MM}, {DD}, {HH}
func (pt *PathTemplate) Generate(name string, timestamp time.Time) string {
	result := pt.template

	result = strings.ReplaceAll(result, "{name}", name)

	result = strings.ReplaceAll(result, "{YYYY}", timestamp.Format("2006"))
	result = strings.ReplaceAll(result, "{MM}", timestamp.Format("01"))
	result = strings.ReplaceAll(result, "{DD}", timestamp.Format("02"))
	result = strings.ReplaceAll(result, "{HH}", timestamp.Format("15"))

	return result
}
