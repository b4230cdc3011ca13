package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/spreadrun/internal/options"
)

func writeChainFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chain.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadChainFile_SkipsBadRecords(t *testing.T) {
	path := writeChainFile(t, `[
		{"expiry": "2026-09-18", "strike": 100, "right": "C", "bid": "1,15", "ask": "1,25", "iv": "25%"},
		{"expiry": "2026-09-18", "strike": 100, "right": "P", "bid": 0.95, "ask": 1.05},
		{"strike": 95, "right": "C"},
		{"expiry": "not-a-date", "strike": 95, "right": "C"}
	]`)

	chain, err := LoadChainFile(path)
	require.NoError(t, err)
	require.Len(t, chain, 2, "two usable records, two skipped")

	assert.Equal(t, options.Call, chain[0].Right)
	assert.InDelta(t, 1.15, chain[0].Bid, 1e-9, "European decimal comma")
	require.NotNil(t, chain[0].IV)
	assert.InDelta(t, 0.25, *chain[0].IV, 1e-9, "percent string")
	assert.Equal(t, options.Put, chain[1].Right)
}

func TestLoadChainFile_AllRecordsBadIsAnError(t *testing.T) {
	path := writeChainFile(t, `[{"strike": 95}]`)

	_, err := LoadChainFile(path)
	assert.ErrorContains(t, err, "no usable records")
}

func TestLoadChainFile_MissingOrMalformedFile(t *testing.T) {
	_, err := LoadChainFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorContains(t, err, "failed to open chain file")

	path := writeChainFile(t, `{"not": "an array"}`)
	_, err = LoadChainFile(path)
	assert.ErrorContains(t, err, "failed to parse chain file")
}
