package analyze

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	outputTimestampLayoutConstant    = "20060102_150405"
	outputFileTemplateConstant       = "panaudit_%s_%s%s.txt"
	outputScopeSuffixTemplateConst   = "_%s"
	outputFileSourcedSuffixConstant  = "_file"
	outputChecksSuffixSeparatorConst = "_"
	outputLimitSuffixTemplateConst   = "_limit%d"
)

// defaultOutputFilePath derives the report file name from the run shape so
// repeated runs never clobber one another.
func defaultOutputFilePath(outputDirectory string, options CommandOptions, now time.Time) string {
	var suffixBuilder strings.Builder

	if len(strings.TrimSpace(options.ScopeFilter)) > 0 {
		suffixBuilder.WriteString(fmt.Sprintf(outputScopeSuffixTemplateConst, options.ScopeFilter))
	}
	if len(strings.TrimSpace(options.ExportFilePath)) > 0 {
		suffixBuilder.WriteString(outputFileSourcedSuffixConstant)
	}
	if len(options.CheckNames) > 0 {
		sortedNames := make([]string, len(options.CheckNames))
		copy(sortedNames, options.CheckNames)
		sort.Strings(sortedNames)
		suffixBuilder.WriteString(outputChecksSuffixSeparatorConst + strings.Join(sortedNames, outputChecksSuffixSeparatorConst))
	}
	if options.RuleLimitEnabled {
		suffixBuilder.WriteString(fmt.Sprintf(outputLimitSuffixTemplateConst, options.RuleLimit))
	}

	fileName := fmt.Sprintf(outputFileTemplateConstant, options.Mode, now.Format(outputTimestampLayoutConstant), suffixBuilder.String())
	if len(outputDirectory) == 0 {
		return fileName
	}
	return filepath.Join(outputDirectory, fileName)
}
