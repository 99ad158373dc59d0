package config

import (
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "newline enter behavior",
			mutate:  func(c *Config) { c.EnterBehavior = EnterNewline },
			wantErr: false,
		},
		{
			name:    "unknown enter behavior",
			mutate:  func(c *Config) { c.EnterBehavior = "both" },
			wantErr: true,
		},
		{
			name:    "negative temperature",
			mutate:  func(c *Config) { c.Completions.Temperature = -0.1 },
			wantErr: true,
		},
		{
			name:    "zero max tokens",
			mutate:  func(c *Config) { c.Completions.MaxTokens = 0 },
			wantErr: true,
		},
		{
			name:    "empty model",
			mutate:  func(c *Config) { c.Completions.Model = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
