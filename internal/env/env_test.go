package env

import "testing"

func TestEnvironmentUnmarshalText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Environment
		wantErr bool
	}{
		{input: "development", want: Development},
		{input: "PRODUCTION", want: Production},
		{input: "staging", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			var got Environment
			err := got.UnmarshalText([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalText() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("UnmarshalText() = %q, want %q", got, tt.want)
			}
			if !tt.wantErr && got.IsProduction() == got.IsDevelopment() {
				t.Errorf("%q is both or neither production and development", got)
			}
		})
	}
}
