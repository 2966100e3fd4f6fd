package display

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// templateFuncs provides utility functions for templates.
var templateFuncs = sprig.TxtFuncMap()

// ExpandTemplate expands a template string using the provided data.
// The data can be any struct - templates access fields via {{ .FieldName }}.
func ExpandTemplate(tmplStr string, data any) (string, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}

// roomTemplate renders the narration a player sees on entering a room.
var roomTemplate = `{{ .Name }}
{{ .Description }}
{{- if .Occupants }}
Also here: {{ join ", " .Occupants }}.
{{- end }}
{{- if .Monsters }}
Lurking here: {{ join ", " .Monsters }}.
{{- end }}
{{- if .Exits }}
Exits lead to rooms {{ join ", " .Exits }}.
{{- end }}`

// RoomView is the data a room narration is rendered from.
type RoomView struct {
	Name        string
	Description string
	Occupants   []string
	Monsters    []string
	Exits       []string
}

// RenderRoom expands the room narration for one viewer and word-wraps it.
func RenderRoom(view RoomView) (string, error) {
	out, err := ExpandTemplate(roomTemplate, view)
	if err != nil {
		return "", fmt.Errorf("rendering room: %w", err)
	}
	return Wrap(out), nil
}
