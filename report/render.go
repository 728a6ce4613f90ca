package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/template"
)

// The rendered documents are markdown; the data contract above is what
// matters, the templates only shape it for human eyes.

var summaryTemplate = template.Must(template.New("summary").Parse(
	`# Test results
{{range .}}
## {{.Name}} - {{.Passed}}/{{.Total}} ({{printf "%.2f" .Percent}}%)

| Sub-group | Passed | Total | % |
| --- | ---: | ---: | ---: |
{{- range .SubGroups}}
| {{.Name}} | {{.Passed}} | {{.Total}} | {{printf "%.2f" .Percent}} |
{{- end}}
{{end}}`))

var detailsTemplate = template.Must(template.New("details").Parse(
	`# Test results{{if .Filter}} ({{.Filter}}){{end}} - {{.Passed}}/{{len .Tests}} passed

| Test | Outcome |
| --- | --- |
{{- range .Tests}}
| {{.Name}} | {{.Outcome}} |
{{- end}}
`))

// WriteSummary renders the flat per-group summary view.
func WriteSummary(w io.Writer, groups []GroupStats) error {
	return summaryTemplate.Execute(w, groups)
}

// WriteDetails renders the detailed per-test view. The filter string is
// informational only; filtering happens in Details.
func WriteDetails(w io.Writer, tests []TestResult, filter string) error {
	passed := 0
	for _, test := range tests {
		if test.Outcome.Passed() {
			passed++
		}
	}
	return detailsTemplate.Execute(w, struct {
		Filter string
		Passed int
		Tests  []TestResult
	}{filter, passed, tests})
}

// WriteSummaryFile writes the summary view to <dir>/summary.md.
func WriteSummaryFile(dir string, groups []GroupStats) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(dir, "summary.md")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report: %w", err)
	}
	defer file.Close()
	if err := WriteSummary(file, groups); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return path, nil
}
