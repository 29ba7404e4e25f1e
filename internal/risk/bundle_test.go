package risk

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainedBundle(t *testing.T) *Bundle {
	t.Helper()
	b, _, err := Fit(syntheticMembers(200, 5), fastOptions())
	require.NoError(t, err)
	return b
}

func TestSaveLoadBundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "bundle.json")
	b := trainedBundle(t)

	require.NoError(t, SaveBundle(path, b))

	loaded, err := LoadBundle(path)
	require.NoError(t, err)
	assert.Equal(t, b.Encoding, loaded.Encoding)
	assert.Equal(t, b.DecisionTree, loaded.DecisionTree)
	assert.Equal(t, b.RandomForest, loaded.RandomForest)
	assert.True(t, b.TrainedAt.Equal(loaded.TrainedAt))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be renamed away")
}

func TestLoadBundle_Failures(t *testing.T) {
	dir := t.TempDir()
	b := trainedBundle(t)

	write := func(name string, mutate func(*Bundle)) string {
		cp := *b
		mutate(&cp)
		data, err := json.Marshal(&cp)
		require.NoError(t, err)
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0o600))
		return path
	}

	tests := []struct {
		name         string
		path         string
		incompatible bool
	}{
		{"missing file", filepath.Join(dir, "missing.json"), false},
		{"next major schema", write("v2.json", func(b *Bundle) { b.SchemaVersion = "2.0.0" }), true},
		{"garbage schema", write("bad-version.json", func(b *Bundle) { b.SchemaVersion = "latest" }), true},
		{"no forest", write("no-forest.json", func(b *Bundle) { b.RandomForest = Forest{} }), false},
		{"reordered classes", write("classes.json", func(b *Bundle) { b.Classes = []string{"Low", "Medium", "High"} }), false},
		{"tree references unknown feature", write("feature.json", func(b *Bundle) {
			b.DecisionTree = Tree{Nodes: []Node{{Feature: 42, Left: 1, Right: 2}, {Feature: -1}, {Feature: -1}}}
		}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBundle(tt.path)
			require.Error(t, err)
			if tt.incompatible {
				assert.ErrorIs(t, err, ErrIncompatibleBundle)
			}
		})
	}

	t.Run("truncated json", func(t *testing.T) {
		path := filepath.Join(dir, "truncated.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"schema_version":"1.0.0","encoding":`), 0o600))
		_, err := LoadBundle(path)
		assert.Error(t, err)
	})
}

func TestBundle_MinorSchemaAccepted(t *testing.T) {
	b := trainedBundle(t)
	b.SchemaVersion = "1.4.2"
	assert.NoError(t, b.Validate())
}
