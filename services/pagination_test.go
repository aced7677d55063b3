package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name      string
		skip      int
		limit     int
		want      Page
		wantField string
	}{
		{name: "defaults", skip: 0, limit: 0, want: Page{Skip: 0, Limit: 50}},
		{name: "explicit window", skip: 20, limit: 10, want: Page{Skip: 20, Limit: 10}},
		{name: "upper bound", skip: 0, limit: 100, want: Page{Limit: 100}},
		{name: "negative skip", skip: -1, limit: 10, wantField: "skip"},
		{name: "limit too large", skip: 0, limit: 101, wantField: "limit"},
		{name: "negative limit", skip: 0, limit: -5, wantField: "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := NormalizePage(tt.skip, tt.limit)
			if tt.wantField != "" {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
				assert.Equal(t, tt.wantField, GetErrorDetails(err)["field"])
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, page)
		})
	}
}
