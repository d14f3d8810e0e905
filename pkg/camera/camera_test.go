package camera

import "testing"

func TestPresetsValid(t *testing.T) {
	for _, name := range PresetNames() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("preset %q missing", name)
		}
		if errs := cfg.Validate(); len(errs) > 0 {
			t.Errorf("preset %q invalid: %v", name, errs)
		}
	}
}

func TestGetPresetUnknown(t *testing.T) {
	if GetPreset("imax") != nil {
		t.Error("expected nil for unknown preset")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errs   int
	}{
		{"default", func(*Config) {}, 0},
		{"negative device", func(c *Config) { c.Device = -1 }, 1},
		{"tiny frame", func(c *Config) { c.Width, c.Height = 100, 100 }, 2},
		{"zero fps", func(c *Config) { c.Framerate = 0 }, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if got := len(cfg.Validate()); got != tt.errs {
				t.Errorf("Validate() returned %d errors, want %d: %v", got, tt.errs, cfg.Validate())
			}
		})
	}
}
