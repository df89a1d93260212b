package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitWritesToRotatingFile(t *testing.T) {
	original := L
	defer func() {
		L = original
		S = original.Sugar()
		zap.ReplaceGlobals(original)
	}()

	path := filepath.Join(t.TempDir(), "gcsmedia.log")
	Init("info", "production", FileOptions{Path: path, MaxSizeMB: 1})

	L.Info("bucket rewritten", zap.String("bucket", "media-bucket"))
	L.Debug("filtered out")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"bucket":"media-bucket"`)
	assert.NotContains(t, string(data), "filtered out")
}

func TestInitInvalidLevelFallsBackToInfo(t *testing.T) {
	original := L
	defer func() {
		L = original
		S = original.Sugar()
		zap.ReplaceGlobals(original)
	}()

	Init("chatty", "development", FileOptions{})

	assert.NotNil(t, L)
	assert.NotNil(t, S)
	assert.True(t, L.Core().Enabled(zap.InfoLevel))
	assert.False(t, L.Core().Enabled(zap.DebugLevel))
}
