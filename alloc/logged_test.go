package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLogged(Limit(NewHeap(), 1), zap.New(core))

	p := l.Alloc(32)
	require.NotNil(t, p)
	assert.Nil(t, l.Alloc(32))
	l.Release(p)

	assert.Equal(t, 1, logs.FilterMessage("alloc").Len())
	assert.Equal(t, 1, logs.FilterMessage("release").Len())

	failed := logs.FilterMessage("allocation failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.WarnLevel, failed[0].Level)
	assert.Equal(t, "alloc", failed[0].LoggerName)
}

func TestLogged_NilLogger(t *testing.T) {
	l := NewLogged(NewHeap(), nil)
	p := l.Alloc(8)
	require.NotNil(t, p)
	l.Release(p)
}
