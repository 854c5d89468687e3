package lang

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToFLORES(t *testing.T) {
	require.Equal(t, "hin_Deva", ToFLORES("hi"))
	require.Equal(t, "eng_Latn", ToFLORES("en"))

	// FLORES tags pass through.
	require.Equal(t, "tam_Taml", ToFLORES("tam_Taml"))

	// Unmapped codes are returned unchanged.
	require.Equal(t, "xx", ToFLORES("xx"))
}

func TestToISO(t *testing.T) {
	require.Equal(t, "hi", ToISO("hin_Deva"))
	require.Equal(t, "en", ToISO("eng_Latn"))
	require.Equal(t, "zh", ToISO("zho_Hans"))

	// ISO codes pass through.
	require.Equal(t, "hi", ToISO("hi"))
	require.Equal(t, "brx", ToISO("brx_Deva"))
}

func TestRoundTrip(t *testing.T) {
	for iso, flores := range ISOToFLORES {
		require.Equal(t, iso, ToISO(flores), "round trip for %s", flores)
	}
}

func TestIsIndicPair(t *testing.T) {
	require.True(t, IsIndicPair("hin_Deva", "tam_Taml"))
	require.False(t, IsIndicPair("hin_Deva", "eng_Latn"))
	require.False(t, IsIndicPair("eng_Latn", "tam_Taml"))
	require.False(t, IsIndicPair("", ""))
}
