package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/audit-tools/fee-atlas/pkg/models/api"
)

type TableConfig struct {
	TypeWidth        int
	SeverityWidth    int
	AmountWidth      int
	DescriptionWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		TypeWidth:        26,
		SeverityWidth:    10,
		AmountWidth:      14,
		DescriptionWidth: 70,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

func (c *Reporter) Handle(report *api.AnalysisReport) error {
	funcMap := template.FuncMap{
		"formatRow": func(typ string, severity string, amount interface{}, desc string) string {
			amountStr := fmt.Sprintf("%v", amount)
			if v, ok := amount.(float64); ok {
				amountStr = fmt.Sprintf("%.0f", v)
			}
			if len(desc) > c.config.DescriptionWidth {
				desc = desc[:c.config.DescriptionWidth-3] + "..."
			}
			return fmt.Sprintf("| %-*s | %-*s | %*s | %-*s |",
				c.config.TypeWidth, typ,
				c.config.SeverityWidth, severity,
				c.config.AmountWidth, amountStr,
				c.config.DescriptionWidth, desc)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.TypeWidth+2),
				strings.Repeat("-", c.config.SeverityWidth+2),
				strings.Repeat("-", c.config.AmountWidth+2),
				strings.Repeat("-", c.config.DescriptionWidth+2))
		},
	}

	tmpl := `
Analysis {{.Id}} [{{.Summary.Status}}]
Mode: {{.Mode}} | Transactions: {{.Statistics.TotalTransactions}} | Anomalies: {{.Statistics.TotalAnomalies}}
Potential savings: {{printf "%.0f" .Statistics.PotentialSavings}} FCFA

{{if .Anomalies}}{{separator}}
{{formatRow "Type" "Severity" "Amount FCFA" "Description"}}
{{separator}}
{{range .Anomalies}}{{formatRow .Type (printf "%s" .Severity) .Amount .Description}}
{{end}}{{separator}}
{{end}}
{{if .Summary.KeyFindings}}=== Key findings ===
{{range .Summary.KeyFindings}}- {{.}}
{{end}}{{end}}
{{if .Summary.Recommendations}}=== Recommendations ===
{{range .Summary.Recommendations}}- {{.}}
{{end}}{{end}}
{{if .ModuleErrors}}=== Module errors ===
{{range .ModuleErrors}}- [{{.Source}}] {{.Module}}: {{.Error}}
{{end}}{{end}}`

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}
