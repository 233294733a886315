package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"

	"github.com/voicelearn/vleval/internal/regression"
)

// JUnit XML schema types. Regression checks emit one testcase per compared
// task so CI systems can surface regressions as test failures.

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one regression check.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one compared task.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
}

// JUnitFailure marks a task whose score regressed.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit converts a regression report to JUnit XML. name labels the
// check (typically "<model> vs <baseline>").
func ConvertToJUnit(name string, report regression.Report) *JUnitTestSuites {
	suite := JUnitTestSuite{
		Name:      name,
		Tests:     report.TotalTasksCompared,
		Failures:  report.RegressionCount,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "overall_severity", Value: string(report.OverallSeverity)},
			{Name: "average_delta", Value: fmt.Sprintf("%.2f", report.AverageDelta)},
		},
	}

	for _, task := range report.Tasks {
		tc := JUnitTestCase{
			Name:      task.TaskName,
			Classname: name,
		}
		if task.Severity != regression.SeverityNone {
			tc.Failure = &JUnitFailure{
				Message: fmt.Sprintf("%s: %.2f -> %.2f (%+.1f%%)",
					task.TaskName, task.BaselineScore, task.CurrentScore, task.DeltaPercent),
				Type: "ScoreRegression",
				Body: fmt.Sprintf("severity=%s delta=%.2f", task.Severity, task.Delta),
			}
		}
		suite.TestCases = append(suite.TestCases, tc)
	}

	return &JUnitTestSuites{
		Tests:      report.TotalTasksCompared,
		Failures:   report.RegressionCount,
		TestSuites: []JUnitTestSuite{suite},
	}
}

// WriteJUnitXML writes the regression report as JUnit XML to path.
func WriteJUnitXML(name string, report regression.Report, path string) error {
	suites := ConvertToJUnit(name, report)

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	return os.WriteFile(path, output, 0o644)
}
