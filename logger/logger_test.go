package logger

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitializeWritesJSONToCloudWatch(t *testing.T) {
	var buf bytes.Buffer
	log, err := Initialize("production", &buf)
	require.NoError(t, err)

	log.Info("hello", zap.String("path", "/cart"))
	log.Debug("hidden")
	_ = log.Sync()

	out := buf.String()
	assert.Contains(t, out, `"msg":"hello"`)
	assert.Contains(t, out, `"level":"info"`)
	assert.Contains(t, out, `"timestamp":`)
	assert.Contains(t, out, `"path":"/cart"`)
	assert.NotContains(t, out, "hidden")
}

func TestInitializeDevelopment(t *testing.T) {
	log, err := Initialize("development", nil)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zap.DebugLevel))
}

func TestFromContextAddsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(RequestIDKey, "rid-1")
	FromContext(c, base).Info("served")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "rid-1", logs.All()[0].ContextMap()["request_id"])
}

func TestFromContextWithoutRequestID(t *testing.T) {
	base := zap.NewNop()

	assert.Same(t, base, FromContext(context.Background(), base))

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Same(t, base, FromContext(c, base))
}
