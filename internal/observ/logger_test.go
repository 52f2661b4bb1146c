package observ

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		env, level string
		want       zapcore.Level
	}{
		{"production", "warn", zapcore.WarnLevel},
		{"development", "debug", zapcore.DebugLevel},
		{"development", "loud", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			req := require.New(t)
			logger, err := NewLogger(tt.env, tt.level)
			req.NoError(err)
			req.True(logger.Core().Enabled(tt.want))
			req.False(logger.Core().Enabled(tt.want - 1))
		})
	}
}
