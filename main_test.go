package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunApplicationReportsExecutionError(testInstance *testing.T) {
	var errorOutput bytes.Buffer
	executeCommand := func() error {
		return errors.New("live runs require a management API credential")
	}

	exitCode := runApplication(&errorOutput, executeCommand)

	require.Equal(testInstance, 1, exitCode)
	require.Equal(testInstance, "live runs require a management API credential\n", errorOutput.String())
}

func TestRunApplicationStaysSilentOnSuccess(testInstance *testing.T) {
	var errorOutput bytes.Buffer

	exitCode := runApplication(&errorOutput, func() error { return nil })

	require.Equal(testInstance, 0, exitCode)
	require.Empty(testInstance, errorOutput.String())
}
