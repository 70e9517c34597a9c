package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/ewilliams-labs/encore/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Log
		wantErr bool
		enabled zapcore.Level
	}{
		{name: "json info", cfg: config.Log{Level: "info", Format: "json"}, enabled: zapcore.InfoLevel},
		{name: "console debug", cfg: config.Log{Level: "debug", Format: "console"}, enabled: zapcore.DebugLevel},
		{name: "bad level", cfg: config.Log{Level: "loud", Format: "json"}, wantErr: true},
		{name: "bad format", cfg: config.Log{Level: "info", Format: "xml"}, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			logger, err := New(tc.cfg)
			if (err != nil) != tc.wantErr {
				t.Fatalf("expected err=%v, got %v", tc.wantErr, err)
			}
			if tc.wantErr {
				return
			}
			if !logger.Core().Enabled(tc.enabled) {
				t.Fatalf("expected level %s to be enabled", tc.enabled)
			}
			if logger.Core().Enabled(tc.enabled - 1) {
				t.Fatalf("expected level below %s to be disabled", tc.enabled)
			}
		})
	}
}
