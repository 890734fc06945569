package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		level     string
		expectErr bool
	}{
		{name: "should_build_json_logger", format: "json", level: "info"},
		{name: "should_build_text_logger", format: "text", level: "debug"},
		{name: "should_return_noop_for_none_level", format: "json", level: "none"},
		{name: "should_error_on_unknown_level", format: "json", level: "verbose", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(tt.format, tt.level)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, l)
		})
	}
}

func TestMustNewLoggerPanicsOnBadLevel(t *testing.T) {
	require.Panics(t, func() {
		MustNewLogger("json", "loud")
	})
}
