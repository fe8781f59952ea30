package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"empty means whole device", "", 0, false},
		{"kilobytes", "512K", 512 << 10, false},
		{"megabytes", "10M", 10 << 20, false},
		{"gigabytes", "1G", 1 << 30, false},
		{"lowercase suffix", "4m", 4 << 20, false},
		{"no suffix", "4096", 4096, false},
		{"negative", "-5M", 0, true},
		{"garbage", "lots", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSize(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
