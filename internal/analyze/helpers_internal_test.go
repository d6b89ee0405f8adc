package analyze

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultOutputFilePath(testInstance *testing.T) {
	referenceTime := time.Date(2026, time.August, 25, 10, 30, 0, 0, time.UTC)

	testCases := []struct {
		name            string
		outputDirectory string
		options         CommandOptions
		expectedPath    string
	}{
		{
			name:         "bare validate run",
			options:      CommandOptions{Mode: RunModeValidate},
			expectedPath: "panaudit_validate_20260825_103000.txt",
		},
		{
			name:            "fully qualified fix run",
			outputDirectory: "reports",
			options: CommandOptions{
				Mode:             RunModeFix,
				ScopeFilter:      "dmz",
				ExportFilePath:   "export.xml",
				CheckNames:       []string{"Zulu", "Alpha"},
				RuleLimit:        50,
				RuleLimitEnabled: true,
			},
			expectedPath: filepath.Join("reports", "panaudit_fix_20260825_103000_dmz_file_Alpha_Zulu_limit50.txt"),
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			derivedPath := defaultOutputFilePath(testCase.outputDirectory, testCase.options, referenceTime)
			require.Equal(subtestInstance, testCase.expectedPath, derivedPath)
		})
	}
}

func TestCommandConfigurationSanitize(testInstance *testing.T) {
	configuration := CommandConfiguration{
		Endpoint:                " firewall.example.com ",
		APIKeyFile:              " /etc/panaudit/key ",
		IgnoredHostnamePrefixes: []string{" test- ", "", "lab-"},
		OutputDirectory:         " reports ",
	}

	sanitized := configuration.sanitize()

	require.Equal(testInstance, "firewall.example.com", sanitized.Endpoint)
	require.Equal(testInstance, "/etc/panaudit/key", sanitized.APIKeyFile)
	require.Equal(testInstance, []string{"test-", "lab-"}, sanitized.IgnoredHostnamePrefixes)
	require.Equal(testInstance, "reports", sanitized.OutputDirectory)
}
