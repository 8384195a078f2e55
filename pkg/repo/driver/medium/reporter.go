package medium

import (
	"context"
	"fmt"
	"text/template"

	"github.com/JacMa99/appless-workout-mvp/pkg/entities"
	"github.com/JacMa99/appless-workout-mvp/utilities"
)

// Reporter tells operators how a nudge run went. runErr is the top-level
// failure, nil when the run completed.
type Reporter interface {
	Report(ctx context.Context, summary *entities.NudgeRunSummary, runErr error) error
	Name() string
}

var reportTemplate = template.Must(template.New("report").Parse(
	`Nudge run {{.Summary.RunID}} for {{.Summary.Today}}{{if .Summary.DryRun}} (dry run){{end}}
{{- if .Err}}
FAILED: {{.Err}}
{{- else}}
groups: {{.Summary.Groups}} (errors: {{.Summary.GroupErrors}})
considered: {{.Summary.Considered}}
sent: {{.Summary.Sent}} failed: {{.Summary.Failed}}
group support: triggered {{.Summary.GroupTriggered}}, sent {{.Summary.GroupSent}}, deduped {{.Summary.GroupDeduped}}
private check-in: triggered {{.Summary.PrivateTriggered}}, sent {{.Summary.PrivateSent}}, deduped {{.Summary.PrivateDeduped}}
ledger errors: {{.Summary.LedgerErrors}}
{{- end}}
`))

// RenderReport formats a run summary as plain text.
func RenderReport(summary *entities.NudgeRunSummary, runErr error) (string, error) {
	if summary == nil {
		summary = &entities.NudgeRunSummary{}
	}

	data := struct {
		Summary *entities.NudgeRunSummary
		Err     error
	}{summary, runErr}

	body, err := utilities.TemplateRendering(reportTemplate, data)
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	return body.String(), nil
}

func reportSubject(summary *entities.NudgeRunSummary, runErr error) string {
	today := ""
	if summary != nil {
		today = summary.Today
	}
	if runErr != nil {
		return fmt.Sprintf("Nudge run failed %s", today)
	}
	if summary != nil && (summary.Failed > 0 || summary.GroupErrors > 0 || summary.LedgerErrors > 0) {
		return fmt.Sprintf("Nudge run %s completed with errors", today)
	}

	return fmt.Sprintf("Nudge run %s completed", today)
}
