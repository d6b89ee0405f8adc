package analyze_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/panosec/panaudit/internal/analyze"
	"github.com/panosec/panaudit/internal/fixers"
	"github.com/panosec/panaudit/internal/validators"
)

func TestBuildChecksCommandListsRegisteredChecks(testInstance *testing.T) {
	validators.RegisterBuiltins()
	fixers.RegisterBuiltins()

	builder := analyze.CommandBuilder{}
	checksCommand, buildError := builder.BuildChecksCommand()
	require.NoError(testInstance, buildError)

	var outputBuffer bytes.Buffer
	checksCommand.SetOut(&outputBuffer)
	checksCommand.SetArgs([]string{})
	require.NoError(testInstance, checksCommand.Execute())

	commandOutput := outputBuffer.String()
	require.Contains(testInstance, commandOutput, "Validators:")
	require.Contains(testInstance, commandOutput, "Fixers:")
	require.Contains(testInstance, commandOutput, validators.BadHostnameValidatorName)
	require.Contains(testInstance, commandOutput, fixers.ConsolidateAddressesFixerName)
}

func TestBuildRunCommandsCarryExpectedFlags(testInstance *testing.T) {
	builder := analyze.CommandBuilder{}

	validateCommand, validateError := builder.BuildValidateCommand()
	require.NoError(testInstance, validateError)
	fixCommand, fixError := builder.BuildFixCommand()
	require.NoError(testInstance, fixError)

	for _, flagName := range []string{"scope", "limit", "check", "export-file", "output", "plan", "api-key"} {
		require.NotNil(testInstance, validateCommand.Flags().Lookup(flagName))
		require.NotNil(testInstance, fixCommand.Flags().Lookup(flagName))
	}
}
