package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseServeMode(testingT *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedMode  ServeMode
		expectedError bool
	}{
		{name: "blank defaults to monolith", input: "", expectedMode: ServeModeMonolith},
		{name: "web", input: "web", expectedMode: ServeModeWeb},
		{name: "api with padding and case", input: "  API ", expectedMode: ServeModeAPI},
		{name: "unknown", input: "worker", expectedError: true},
	}

	for _, testCase := range testCases {
		testingT.Run(testCase.name, func(subTest *testing.T) {
			mode, parseErr := ParseServeMode(testCase.input)
			if testCase.expectedError {
				require.ErrorIs(subTest, parseErr, ErrInvalidServeMode)
				return
			}
			require.NoError(subTest, parseErr)
			require.Equal(subTest, testCase.expectedMode, mode)
		})
	}
}

func TestServeModeRouteGroups(testingT *testing.T) {
	require.True(testingT, ServeModeMonolith.ServesWeb())
	require.True(testingT, ServeModeMonolith.ServesAPI())
	require.True(testingT, ServeModeWeb.ServesWeb())
	require.False(testingT, ServeModeWeb.ServesAPI())
	require.False(testingT, ServeModeAPI.ServesWeb())
	require.True(testingT, ServeModeAPI.ServesAPI())
}
