package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel(" Debug ")
	require.NoError(t, err)
	require.Equal(t, zerolog.DebugLevel, lvl)

	_, err = ParseLevel("")
	require.Error(t, err)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })

	SetLevel(zerolog.WarnLevel)
	Infof("hidden %d", 1)
	Warnf("shown %d", 2)
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown 2")

	buf.Reset()
	SetLevel(zerolog.TraceLevel)
	Tracef("trace %s", "me")
	require.True(t, strings.Contains(buf.String(), "trace me"), buf.String())
	SetLevel(zerolog.WarnLevel)
}
