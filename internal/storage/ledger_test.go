package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2025, time.February, 20, 12, 0, 0, 0, time.UTC)
}

func TestOpenLedgerMissing(t *testing.T) {
	dir := t.TempDir()
	l, err := OpenLedger(dir)
	require.NoError(t, err)
	assert.Empty(t, l.Entries())
	assert.Equal(t, filepath.Join(dir, "triggers.txt"), l.Path())
}

func TestLedgerRoundTrip(t *testing.T) {
	dir := t.TempDir()

	l, err := OpenLedger(dir)
	require.NoError(t, err)
	l.now = fixedClock

	require.NoError(t, l.Record("a!b@c", ".ping now in #x"))
	require.NoError(t, l.Record("d!e@f", ".ping in #y"))

	data, err := os.ReadFile(filepath.Join(dir, "triggers.txt"))
	require.NoError(t, err)
	assert.Equal(t,
		"Thu Feb 20, 2025 at 12:00:00 GMT: a!b@c -> .ping now in #x\n"+
			"Thu Feb 20, 2025 at 12:00:00 GMT: d!e@f -> .ping in #y\n",
		string(data))

	reopened, err := OpenLedger(dir)
	require.NoError(t, err)
	assert.Equal(t, l.Entries(), reopened.Entries())
}

func TestLedgerMaxEntries(t *testing.T) {
	dir := t.TempDir()

	l, err := OpenLedger(dir)
	require.NoError(t, err)
	l.now = fixedClock

	for i := 0; i < maxEntries+5; i++ {
		require.NoError(t, l.Record("src", fmt.Sprintf("hit %d", i)))
	}

	entries := l.Entries()
	require.Len(t, entries, maxEntries)
	assert.Contains(t, entries[0], "hit 5")
	assert.Contains(t, entries[len(entries)-1], fmt.Sprintf("hit %d", maxEntries+4))
}

func TestOpenLedgerUnreadable(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be cannot be read as lines
	require.NoError(t, os.Mkdir(filepath.Join(dir, "triggers.txt"), 0755))

	_, err := OpenLedger(dir)
	assert.Error(t, err)
}
