package config

import "testing"

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		env     string
		secret  string
		wantErr bool
	}{
		{name: "development default secret", env: "development", secret: DevQRSecret},
		{name: "production default secret", env: "production", secret: DevQRSecret, wantErr: true},
		{name: "production own secret", env: "production", secret: "s3cr3t-from-vault"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{Env: tt.env, QRSecret: tt.secret}
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
