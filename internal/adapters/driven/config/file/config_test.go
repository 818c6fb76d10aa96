package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 50, cfg.MaxResults)
	assert.Equal(t, 1000, cfg.Ingest.ChunkSize)
	assert.Equal(t, 200, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, "all-MiniLM-L6-v2", cfg.Model.Name)
	assert.Equal(t, 256, cfg.Model.SeqLen)
	assert.Equal(t, 384, cfg.Model.StoreDim)
	assert.Equal(t, "mean", cfg.Model.Pooling)
	assert.Empty(t, cfg.Model.Path, "engine is disabled until a model path is set")
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
max_results = 10
watch_dir = "/tmp/inbox"

[ingest]
chunk_size = 400

[model]
path = "/models/embed.onnx"
pooling = "last"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MaxResults)
	assert.Equal(t, "/tmp/inbox", cfg.WatchDir)
	assert.Equal(t, 400, cfg.Ingest.ChunkSize)
	assert.Equal(t, "/models/embed.onnx", cfg.Model.Path)
	assert.Equal(t, "last", cfg.Model.Pooling)

	// Untouched keys keep their defaults.
	assert.Equal(t, 200, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, 256, cfg.Model.SeqLen)
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [ valid"), 0600))

	_, err := Load(path)

	assert.Error(t, err)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.toml")

	want := Default()
	want.DataDir = "/var/lib/recall"
	want.MaxResults = 25
	want.Model.Path = "/models/m.onnx"
	want.Model.OutputTensor = "sentence_embedding"

	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
