package pattern

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePack(t *testing.T) {
	data := []byte(`{
		"version": 1,
		"name": "secrets",
		"patterns": [
			{"pattern": "password", "note": "generic credential"},
			{"pattern": "api[_-]?key"}
		]
	}`)

	store, invalid, err := ParsePack(data)
	require.NoError(t, err)
	assert.Empty(t, invalid)
	assert.Equal(t, 2, store.Len())
	assert.True(t, store.Patterns()[1].Match("my API_KEY=123"))
}

func TestParsePackSchemaViolations(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"missing version", `{"patterns":[{"pattern":"x"}]}`},
		{"wrong version", `{"version":2,"patterns":[{"pattern":"x"}]}`},
		{"empty patterns", `{"version":1,"patterns":[]}`},
		{"missing pattern field", `{"version":1,"patterns":[{"note":"x"}]}`},
		{"empty pattern string", `{"version":1,"patterns":[{"pattern":""}]}`},
		{"unknown field", `{"version":1,"patterns":[{"pattern":"x"}],"extra":true}`},
		{"not json", `not json at all`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ParsePack([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadPackFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.json")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"version":1,"patterns":[{"pattern":"BEGIN RSA PRIVATE KEY"}]}`,
	), 0644))

	store, invalid, err := LoadPack(path)
	require.NoError(t, err)
	assert.Empty(t, invalid)
	assert.Equal(t, 1, store.Len())
}

func TestLoadAnyDispatch(t *testing.T) {
	dir := t.TempDir()

	packPath := filepath.Join(dir, "rules.json")
	require.NoError(t, os.WriteFile(packPath, []byte(
		`{"version":1,"patterns":[{"pattern":"token"}]}`,
	), 0644))

	linePath := filepath.Join(dir, "rules.txt")
	require.NoError(t, os.WriteFile(linePath, []byte("token\n"), 0644))

	fromPack, _, err := LoadAny(packPath)
	require.NoError(t, err)
	fromLines, _, err := LoadAny(linePath)
	require.NoError(t, err)

	assert.Equal(t, fromLines.Len(), fromPack.Len())
}
