package analyze

import (
	"fmt"
	"io"
	"strings"
)

const (
	reportBannerRuneConstant       = "#"
	reportBannerWidthConstant      = 80
	reportHeaderTemplateConstant   = "%s: %s (%d)\n"
	reportLineSuffixConstant       = "\n"
	reportSectionSeparatorConstant = "\n"
)

// WriteReport renders the run results in the text format downstream report
// consumers depend on: per check, a banner, a "name: description (count)"
// header, a banner, then one finding per line.
func WriteReport(outputWriter io.Writer, results []CheckResult) error {
	banner := strings.Repeat(reportBannerRuneConstant, reportBannerWidthConstant) + reportLineSuffixConstant

	for _, checkResult := range results {
		if _, writeError := io.WriteString(outputWriter, banner); writeError != nil {
			return writeError
		}
		header := fmt.Sprintf(reportHeaderTemplateConstant, checkResult.Check.Name, checkResult.Check.Description, len(checkResult.Findings))
		if _, writeError := io.WriteString(outputWriter, header); writeError != nil {
			return writeError
		}
		if _, writeError := io.WriteString(outputWriter, banner); writeError != nil {
			return writeError
		}

		for _, finding := range checkResult.Findings {
			if _, writeError := io.WriteString(outputWriter, finding.Text+reportLineSuffixConstant); writeError != nil {
				return writeError
			}
		}

		if _, writeError := io.WriteString(outputWriter, reportSectionSeparatorConstant); writeError != nil {
			return writeError
		}
	}

	return nil
}
