package sentiment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(f float64) *float64 { return &f }

func TestMapPolarity(t *testing.T) {
	tests := []struct {
		name    string
		resp    analyzeResponse
		want    float64
		wantErr bool
	}{
		{name: "polarity field", resp: analyzeResponse{Polarity: ptr(0.4)}, want: 0.4},
		{name: "score fallback", resp: analyzeResponse{Score: ptr(-0.3)}, want: -0.3},
		{name: "polarity wins over score", resp: analyzeResponse{Polarity: ptr(0.1), Score: ptr(0.9)}, want: 0.1},
		{name: "clamped high", resp: analyzeResponse{Polarity: ptr(4)}, want: 1},
		{name: "clamped low", resp: analyzeResponse{Polarity: ptr(-4)}, want: -1},
		{name: "missing", resp: analyzeResponse{Label: "neutral"}, wantErr: true},
		{name: "nan", resp: analyzeResponse{Polarity: ptr(math.NaN())}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mapPolarity(tt.resp)
			if tt.wantErr {
				assert.ErrorIs(t, err, errMissingPolarity)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
