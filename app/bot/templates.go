package bot

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/rbhz/zh-dictionary/app/db"
)

const entriesTemplate = `
{{- range $i, $e := .Entries }}
{{- if $i }}
___
{{ end -}}
<b>{{ $e.Simplified }}</b>
{{- if ne $e.Simplified $e.Traditional }} ({{ $e.Traditional }}){{ end }} <i>{{ pinyin $e }}</i>
{{- range $d := $e.Definitions }}
• {{ $d.Definition }}
{{- end }}
{{- end }}`

const quizTemplate = `<i>HSK {{ .Level }}</i>
<b>{{ .Word.Simplified }}</b> <i>{{ .Word.Pinyin }}</i>
Pick the meaning:
{{- range $i, $c := .Choices }}
<b>{{ inc $i }}</b>: {{ $c.Definition }}
{{- end }}`

const quizResultTemplate = `<i>HSK {{ .Level }}</i>
<b>{{ .Answer.Simplified }}</b> <i>{{ .Answer.Pinyin }}</i>
✅ {{ .Answer.Definition }}
{{- if not .Correct }}
☑️ {{ .Choice.Definition }}
{{- end }}`

var templates = template.Must(template.New("bot").Funcs(template.FuncMap{
	"inc": func(i int) int {
		return i + 1
	},
	"pinyin": func(e db.Entry) string {
		syllables := make([]string, 0, len(e.Pronunciations))
		for _, p := range e.Pronunciations {
			syllables = append(syllables, p.Pinyin)
		}
		return strings.Join(syllables, " ")
	},
}).Parse(`{{ define "entries" }}` + entriesTemplate + `{{ end }}` +
	`{{ define "quiz" }}` + quizTemplate + `{{ end }}` +
	`{{ define "quizResult" }}` + quizResultTemplate + `{{ end }}`))

// render executes named template with data
func render(name string, data any) (string, error) {
	buf := &bytes.Buffer{}
	if err := templates.ExecuteTemplate(buf, name, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", name, err)
	}
	return buf.String(), nil
}

// GetEntriesMessageText formats dictionary entries as HTML message
func GetEntriesMessageText(entries []db.Entry) (string, error) {
	return render("entries", map[string]any{"Entries": entries})
}
