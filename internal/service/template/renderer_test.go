// internal/service/template/renderer_test.go
package template

import (
	"testing"

	"studylink-service/internal/domain/communication"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		variables map[string]string
		want      string
	}{
		{
			name:      "replaces known placeholders",
			text:      "Hello {{name}}, your site is {{hospital}}.",
			variables: map[string]string{"name": "Dr. Okoth", "hospital": "St. Anne"},
			want:      "Hello Dr. Okoth, your site is St. Anne.",
		},
		{
			name:      "unresolved placeholder left verbatim",
			text:      "Hello {{name}}, status: {{status}}",
			variables: map[string]string{"name": "Dr. Okoth"},
			want:      "Hello Dr. Okoth, status: {{status}}",
		},
		{
			name:      "repeated placeholder replaced everywhere",
			text:      "{{x}} and {{x}} again",
			variables: map[string]string{"x": "one"},
			want:      "one and one again",
		},
		{
			name:      "case sensitive names",
			text:      "{{Name}}",
			variables: map[string]string{"name": "lower"},
			want:      "{{Name}}",
		},
		{
			name:      "malformed braces untouched",
			text:      "{{not closed and {single}",
			variables: map[string]string{"single": "x"},
			want:      "{{not closed and {single}",
		},
		{
			name:      "no variables",
			text:      "plain text",
			variables: nil,
			want:      "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Substitute(tt.text, tt.variables))
		})
	}
}

func TestRendererRender(t *testing.T) {
	r := NewRenderer(zap.NewNop())

	tpl := &communication.Template{
		Name:      "ethics-reminder",
		Subject:   "Ethics pending at {{hospital}}",
		Body:      "Approval for {{hospital}} has been pending {{days}} days.",
		Variables: []string{"hospital", "days"},
	}

	out := r.Render(tpl, map[string]string{
		"hospital": "Mercy General",
		"days":     "21",
		// Undeclared variables are tolerated and still substituted.
		"extra": "ignored",
	})

	assert.Equal(t, "Ethics pending at Mercy General", out.Subject)
	assert.Equal(t, "Approval for Mercy General has been pending 21 days.", out.Body)
}

func TestRendererRenderMissingVariable(t *testing.T) {
	r := NewRenderer(zap.NewNop())

	tpl := &communication.Template{
		Name:    "partial",
		Subject: "{{greeting}}",
		Body:    "{{greeting}}, see {{link}}",
	}

	out := r.Render(tpl, map[string]string{"greeting": "Hello"})

	assert.Equal(t, "Hello", out.Subject)
	assert.Equal(t, "Hello, see {{link}}", out.Body)
}
