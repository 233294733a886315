package reporting

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/voicelearn/vleval/internal/gradelevel"
	"github.com/voicelearn/vleval/internal/models"
	"github.com/voicelearn/vleval/internal/regression"
	"github.com/voicelearn/vleval/internal/statistics"
)

// md renders shared-report markdown. Tables are needed for score breakdowns.
var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// RunReport bundles everything a shared report shows for one run.
type RunReport struct {
	Model      models.ModelSpec
	Run        models.EvalRun
	Rating     *models.GradeLevelRating
	Regression *regression.Report
}

// BuildMarkdown renders the shared run report as markdown.
func BuildMarkdown(report RunReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Evaluation report: %s\n\n", report.Model.Name)
	fmt.Fprintf(&b, "- **Model:** %s (%s)\n", report.Model.Slug, report.Model.ModelType)
	fmt.Fprintf(&b, "- **Status:** %s\n", report.Run.Status)
	if report.Run.CompletedAt != "" {
		fmt.Fprintf(&b, "- **Completed:** %s\n", report.Run.CompletedAt)
	}
	if report.Run.OverallScore != nil {
		fmt.Fprintf(&b, "- **Overall score:** %.2f — %s\n",
			*report.Run.OverallScore, InterpretScore(*report.Run.OverallScore))
	}
	b.WriteString("\n")

	if report.Rating != nil {
		b.WriteString("## Grade-level rating\n\n")
		if report.Rating.MaxPassingTier != nil {
			fmt.Fprintf(&b, "Certified up to **%s** (threshold %.0f).\n\n",
				gradelevel.TierLabels[*report.Rating.MaxPassingTier], report.Rating.Threshold)
		} else {
			fmt.Fprintf(&b, "Not certified at any tier (threshold %.0f).\n\n", report.Rating.Threshold)
		}

		b.WriteString("| Tier | Score | Verdict |\n|---|---|---|\n")
		for _, tier := range gradelevel.TierOrder {
			score, ok := report.Rating.TierScores[tier]
			if !ok {
				continue
			}
			verdict := "fail"
			if gradelevel.Passes(score, report.Rating.Threshold) {
				verdict = "pass"
			}
			fmt.Fprintf(&b, "| %s | %.2f | %s |\n", gradelevel.TierLabels[tier], score, verdict)
		}
		b.WriteString("\n")
	}

	if len(report.Run.Results) > 0 {
		summary := statistics.Aggregate(report.Run.Results)
		b.WriteString("## Task results\n\n")
		if summary.Mean != nil {
			fmt.Fprintf(&b, "%d scored tasks, mean %.2f, range %.2f-%.2f.\n\n",
				summary.Count, *summary.Mean, *summary.Min, *summary.Max)
			if ci := scoreInterval(report.Run.Results); ci.NumBootstraps > 0 {
				fmt.Fprintf(&b, "Bootstrap %.0f%% CI of the mean: %.2f to %.2f.\n\n",
					ci.ConfidenceLevel*100, ci.Lower, ci.Upper)
			}
		}

		b.WriteString("| Task | Score | Tier |\n|---|---|---|\n")
		for _, res := range report.Run.Results {
			score := "-"
			if res.Scored() {
				score = fmt.Sprintf("%.2f", *res.Score)
			}
			tier := string(res.EducationTier)
			if tier == "" {
				tier = "-"
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", res.TaskName, score, tier)
		}
		b.WriteString("\n")
	}

	if report.Regression != nil {
		b.WriteString("## Regression check\n\n")
		b.WriteString(InterpretRegression(*report.Regression))
		b.WriteString("\n")
	}

	return b.String()
}

// scoreInterval bootstraps a confidence interval over the scored results.
// The interval is skipped in the report when fewer than 2 tasks scored.
func scoreInterval(results []models.TaskResult) statistics.ConfidenceInterval {
	var scores []float64
	for _, res := range results {
		if res.Scored() {
			scores = append(scores, *res.Score)
		}
	}
	return statistics.BootstrapCI(scores, statistics.DefaultConfidenceLevel)
}

// RenderHTML renders the shared report as a standalone HTML page.
func RenderHTML(report RunReport) (string, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(BuildMarkdown(report)), &body); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}

	var page strings.Builder
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>Evaluation report: %s</title>\n", htmlEscape(report.Model.Name))
	page.WriteString("<style>\n")
	page.WriteString("body{font-family:sans-serif;max-width:860px;margin:2rem auto;padding:0 1rem;color:#1a1a2e}\n")
	page.WriteString("table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:4px 10px;text-align:left}\n")
	page.WriteString("</style>\n</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.String(), nil
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
