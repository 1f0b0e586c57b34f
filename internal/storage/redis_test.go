package storage

import (
	"testing"
	"time"
)

func TestSlidingWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rate    float64
		burst   int
		want    time.Duration
		wantErr bool
	}{
		{name: "defaults", rate: 10, burst: 20, want: 2 * time.Second},
		{name: "burst equals rate", rate: 5, burst: 5, want: time.Second},
		{name: "fractional rate", rate: 0.5, burst: 1, want: 2 * time.Second},
		{name: "zero rate", rate: 0, burst: 1, wantErr: true},
		{name: "zero burst", rate: 1, burst: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := slidingWindow(tt.rate, tt.burst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("slidingWindow() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("slidingWindow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewRedisBackendUsesBurst(t *testing.T) {
	t.Parallel()

	b, err := NewRedisBackend(RedisConfig{}, 10, 20)
	if err != nil {
		t.Fatalf("NewRedisBackend() error = %v", err)
	}
	if b.rateLimit != 20 || b.rateWindow != 2*time.Second {
		t.Errorf("limit/window = %d/%v, want 20/2s", b.rateLimit, b.rateWindow)
	}
}
