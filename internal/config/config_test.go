package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "missing.json"))

	if cfg.Detection != DefaultDetection() {
		t.Errorf("Expected default detection, got %+v", cfg.Detection)
	}
	if cfg.Email.SMTPServer != DefaultSMTPServer || cfg.Email.SMTPPort != DefaultSMTPPort {
		t.Errorf("Expected default SMTP server, got %s:%d", cfg.Email.SMTPServer, cfg.Email.SMTPPort)
	}
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `{
		"detection": {"min_contour_area": 800, "threshold_sensitivity": 30, "accident_frames_threshold": 3},
		"email": {"sender": "a@example.com", "password": "pw", "recipient": "b@example.com", "smtp_server": "mail.example.com", "smtp_port": 2525}
	}`)

	cfg := Load(path)

	want := DetectionConfig{MinContourArea: 800, ThresholdSensitivity: 30, AccidentFramesThreshold: 3}
	if cfg.Detection != want {
		t.Errorf("Expected %+v, got %+v", want, cfg.Detection)
	}
	if cfg.Email.Recipient != "b@example.com" || cfg.Email.SMTPPort != 2525 {
		t.Errorf("Unexpected email config: %+v", cfg.Email)
	}
}

func TestLoad_SectionsFallBackIndependently(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		wantDetection bool // true when detection section should be read from file
		wantEmail     bool
	}{
		{"malformed json", `{"detection": `, false, false},
		{"missing detection key", `{"detection": {"min_contour_area": 800, "threshold_sensitivity": 30},
			"email": {"sender": "a", "password": "b", "recipient": "c", "smtp_server": "d", "smtp_port": 25}}`, false, true},
		{"missing email key", `{"detection": {"min_contour_area": 800, "threshold_sensitivity": 30, "accident_frames_threshold": 3},
			"email": {"sender": "a"}}`, true, false},
		{"sensitivity out of range", `{"detection": {"min_contour_area": 800, "threshold_sensitivity": 300, "accident_frames_threshold": 3}}`, false, false},
		{"zero frames required", `{"detection": {"min_contour_area": 800, "threshold_sensitivity": 30, "accident_frames_threshold": 0}}`, false, false},
		{"wrong type", `{"detection": {"min_contour_area": "big", "threshold_sensitivity": 30, "accident_frames_threshold": 3}}`, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load(writeConfig(t, tt.content))

			gotDetection := cfg.Detection != DefaultDetection()
			if gotDetection != tt.wantDetection {
				t.Errorf("Detection from file = %v, expected %v (%+v)", gotDetection, tt.wantDetection, cfg.Detection)
			}
			gotEmail := cfg.Email.SMTPServer != DefaultSMTPServer
			if gotEmail != tt.wantEmail {
				t.Errorf("Email from file = %v, expected %v (%+v)", gotEmail, tt.wantEmail, cfg.Email)
			}
		})
	}
}

func TestLoad_EnvOverridesEmail(t *testing.T) {
	t.Setenv("ALERT_RECIPIENT", "ops@example.com")
	t.Setenv("SMTP_PORT", "465")

	cfg := Load(filepath.Join(t.TempDir(), "missing.json"))

	if cfg.Email.Recipient != "ops@example.com" {
		t.Errorf("Expected recipient from env, got %s", cfg.Email.Recipient)
	}
	if cfg.Email.SMTPPort != 465 {
		t.Errorf("Expected port 465, got %d", cfg.Email.SMTPPort)
	}
}

func TestGetEnvAsInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("FRAME_DELAY_MS", "fast")

	if got := getEnvAsInt("FRAME_DELAY_MS", 30); got != 30 {
		t.Errorf("Expected default 30, got %d", got)
	}
}
