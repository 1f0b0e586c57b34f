package redis

import (
	"errors"
	"testing"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{name: "empty url", cfg: Config{}, wantErr: ErrNotConfigured},
		{name: "bad scheme", cfg: Config{URL: "http://localhost:6379"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, err := Open(t.Context(), tt.cfg)
			if err == nil {
				_ = client.Close()
				t.Fatal("Open() succeeded, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Open() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
