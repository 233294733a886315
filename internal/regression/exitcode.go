package regression

// CI exit codes. External pipelines branch on these values; the three bands
// must be preserved exactly.
const (
	ExitOK   = 0 // no regression detected
	ExitWarn = 1 // minor or moderate regressions
	ExitFail = 2 // severe or critical regressions
)

// CIExitCode maps a report's overall severity to its CI exit code.
func CIExitCode(report Report) int {
	switch report.OverallSeverity {
	case SeverityCritical, SeveritySevere:
		return ExitFail
	case SeverityModerate, SeverityMinor:
		return ExitWarn
	}
	return ExitOK
}
