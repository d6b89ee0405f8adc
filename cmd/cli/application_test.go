package cli_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/panosec/panaudit/cmd/cli"
)

func TestNewApplicationConstructsRepeatedly(testInstance *testing.T) {
	// Builtin check registration must stay idempotent across instances.
	require.NotPanics(testInstance, func() {
		firstApplication := cli.NewApplication()
		require.NotNil(testInstance, firstApplication)

		secondApplication := cli.NewApplication()
		require.NotNil(testInstance, secondApplication)
	})
}
