package analyze_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/panosec/panaudit/internal/analyze"
)

const validPlanContentConstant = `checks:
  - name: BadHostname
    with:
      ignored_hostname_prefixes:
        - test-
        - lab-
  - name: DisabledPolicies
`

func writePlanFile(testInstance *testing.T, planContent string) string {
	planFilePath := filepath.Join(testInstance.TempDir(), "plan.yaml")
	require.NoError(testInstance, os.WriteFile(planFilePath, []byte(planContent), 0o644))
	return planFilePath
}

func TestLoadPlan(testInstance *testing.T) {
	loadedPlan, loadError := analyze.LoadPlan(writePlanFile(testInstance, validPlanContentConstant))
	require.NoError(testInstance, loadError)

	require.Equal(testInstance, []string{"BadHostname", "DisabledPolicies"}, loadedPlan.CheckNames())

	planOptions, decodeError := loadedPlan.DecodeOptions()
	require.NoError(testInstance, decodeError)
	require.Equal(testInstance, []string{"test-", "lab-"}, planOptions.IgnoredHostnamePrefixes)
}

func TestLoadPlanValidation(testInstance *testing.T) {
	testCases := []struct {
		name        string
		planContent string
	}{
		{
			name:        "empty check list",
			planContent: "checks: []\n",
		},
		{
			name:        "missing check name",
			planContent: "checks:\n  - with:\n      ignored_hostname_prefixes: []\n",
		},
		{
			name:        "duplicate check names",
			planContent: "checks:\n  - name: BadHostname\n  - name: BadHostname\n",
		},
		{
			name:        "malformed yaml",
			planContent: "checks: [unclosed\n",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			_, loadError := analyze.LoadPlan(writePlanFile(subtestInstance, testCase.planContent))
			require.Error(subtestInstance, loadError)
		})
	}
}

func TestLoadPlanMissingFile(testInstance *testing.T) {
	_, loadError := analyze.LoadPlan(filepath.Join(testInstance.TempDir(), "absent.yaml"))
	require.Error(testInstance, loadError)

	_, emptyPathError := analyze.LoadPlan("   ")
	require.Error(testInstance, emptyPathError)
}
