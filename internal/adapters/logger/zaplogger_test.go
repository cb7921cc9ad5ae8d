package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{input: "DEBUG", want: zapcore.DebugLevel},
		{input: "debug", want: zapcore.DebugLevel},
		{input: "INFO", want: zapcore.InfoLevel},
		{input: "WARN", want: zapcore.WarnLevel},
		{input: "WARNING", want: zapcore.WarnLevel},
		{input: "ERROR", want: zapcore.ErrorLevel},
		{input: "nonsense", want: zapcore.InfoLevel},
		{input: "", want: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run("level "+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestZapFields(t *testing.T) {
	t.Run("no maps", func(t *testing.T) {
		assert.Nil(t, zapFields(nil))
	})

	t.Run("nil first map", func(t *testing.T) {
		assert.Nil(t, zapFields([]map[string]interface{}{nil}))
	})

	t.Run("keys are sorted for stable output", func(t *testing.T) {
		got := zapFields([]map[string]interface{}{{
			"symbol": "btc_krw", "action": "buy", "price": 100.0,
		}})
		require.Len(t, got, 3)
		assert.Equal(t, "action", got[0].Key)
		assert.Equal(t, "price", got[1].Key)
		assert.Equal(t, "symbol", got[2].Key)
	})

	t.Run("only the first map is used", func(t *testing.T) {
		got := zapFields([]map[string]interface{}{
			{"a": 1},
			{"b": 2},
		})
		require.Len(t, got, 1)
		assert.Equal(t, "a", got[0].Key)
	})
}

func TestNew(t *testing.T) {
	l, err := New(zapcore.DebugLevel)
	require.NoError(t, err)
	require.NotNil(t, l)
}
