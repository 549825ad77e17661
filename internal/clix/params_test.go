package clix

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTicketIDs(t *testing.T) {
	ids, err := ParseTicketIDs([]string{"3", "1,2", " 4 , ", "3"})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2, 4}, ids)

	for _, bad := range [][]string{{"abc"}, {"0"}, {"-2"}, {}, {" , "}} {
		_, err := ParseTicketIDs(bad)
		assert.Error(t, err, "%v", bad)
	}
}

func TestParseDescriptions(t *testing.T) {
	flags := pflag.NewFlagSet("batch", pflag.ContinueOnError)
	flags.String("file", "", "")

	got, err := ParseDescriptions(flags, []string{"login broken", "refund"})
	require.NoError(t, err)
	assert.Equal(t, []string{"login broken", "refund"}, got)

	path := filepath.Join(t.TempDir(), "tickets.txt")
	require.NoError(t, os.WriteFile(path, []byte("login broken\r\n\r\nrefund please\n"), 0o644))
	require.NoError(t, flags.Set("file", path))

	got, err = ParseDescriptions(flags, []string{"ignored"})
	require.NoError(t, err)
	assert.Equal(t, []string{"login broken", "refund please"}, got)
}
