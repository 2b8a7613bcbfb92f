package hotkey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseToggleEditModeBinding(testingT *testing.T) {
	binding, parseErr := Parse(ToggleEditMode)
	require.NoError(testingT, parseErr)
	require.Equal(testingT, Binding{Modifier: ModifierMod, Key: "e"}, binding)
	require.Equal(testingT, "mod+e", binding.String())
	require.Equal(testingT, "Ctrl/⌘ + E", binding.Label())
}

func TestParseRejectsMalformedBindings(testingT *testing.T) {
	for _, rawBinding := range []string{"", "E", "mod+", "hyper+E", "mod+shift+E"} {
		_, parseErr := Parse(rawBinding)
		require.ErrorIs(testingT, parseErr, ErrInvalidBinding, rawBinding)
	}
	require.Panics(testingT, func() { MustParse("E") })
}

func TestLabelsNameEveryModifier(testingT *testing.T) {
	testCases := []struct {
		rawBinding    string
		expectedLabel string
	}{
		{rawBinding: "ctrl+k", expectedLabel: "Ctrl + K"},
		{rawBinding: "meta+k", expectedLabel: "⌘ + K"},
		{rawBinding: "alt+k", expectedLabel: "Alt + K"},
		{rawBinding: "shift+k", expectedLabel: "Shift + K"},
		{rawBinding: " Mod + E ", expectedLabel: "Ctrl/⌘ + E"},
	}

	for _, testCase := range testCases {
		testingT.Run(testCase.rawBinding, func(subTest *testing.T) {
			require.Equal(subTest, testCase.expectedLabel, MustParse(testCase.rawBinding).Label())
		})
	}
}
