// internal/service/template/renderer.go
package template

import (
	"regexp"

	"studylink-service/internal/domain/communication"

	"go.uber.org/zap"
)

// Placeholder syntax is {{variableName}}: case-sensitive, no nesting, no
// escaping. A literal "{{" cannot be produced.
var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

type Rendered struct {
	Subject string
	Body    string
}

// Renderer substitutes named variables into subject/body templates.
// Placeholders with no matching variable are left verbatim: missing
// variables degrade output instead of aborting a send.
type Renderer struct {
	logger *zap.Logger
}

func NewRenderer(logger *zap.Logger) *Renderer {
	return &Renderer{logger: logger}
}

// Render substitutes variables into the template. Variables outside the
// template's declared set are logged for telemetry, never rejected.
func (r *Renderer) Render(tpl *communication.Template, variables map[string]string) Rendered {
	if len(tpl.Variables) > 0 {
		declared := make(map[string]bool, len(tpl.Variables))
		for _, name := range tpl.Variables {
			declared[name] = true
		}
		for name := range variables {
			if !declared[name] {
				r.logger.Warn("template variable not declared",
					zap.String("template", tpl.Name),
					zap.String("variable", name),
				)
			}
		}
	}

	return Rendered{
		Subject: Substitute(tpl.Subject, variables),
		Body:    Substitute(tpl.Body, variables),
	}
}

// Substitute replaces every {{name}} occurrence with variables[name],
// leaving unresolved placeholders untouched.
func Substitute(text string, variables map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := match[2 : len(match)-2]
		if value, ok := variables[name]; ok {
			return value
		}
		return match
	})
}
