package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DefaultMinContourArea          = 500
	DefaultThresholdSensitivity    = 25
	DefaultAccidentFramesThreshold = 5
	DefaultSMTPServer              = "smtp.gmail.com"
	DefaultSMTPPort                = 587
)

// DetectionConfig tunes the motion accumulator. It is not modified after Load.
type DetectionConfig struct {
	MinContourArea          float64
	ThresholdSensitivity    float64 // 0-255
	AccidentFramesThreshold int     // >= 1
}

// EmailConfig describes the alert mailbox and submission server.
type EmailConfig struct {
	Sender     string
	Password   string
	Recipient  string
	SMTPServer string
	SMTPPort   int
}

type Config struct {
	Detection DetectionConfig
	Email     EmailConfig

	Port                int
	Password            string
	ScreenshotDirectory string
	UploadDirectory     string
	LogDirectory        string
	StaticDirectory     string
	FrameDelayMs        int // pause between rendered frames
}

// fileConfig mirrors the JSON file. Pointers tell a missing key from a zero value.
type fileConfig struct {
	Detection json.RawMessage `json:"detection"`
	Email     json.RawMessage `json:"email"`
}

type detectionSection struct {
	MinContourArea          *float64 `json:"min_contour_area"`
	ThresholdSensitivity    *float64 `json:"threshold_sensitivity"`
	AccidentFramesThreshold *int     `json:"accident_frames_threshold"`
}

type emailSection struct {
	Sender     *string `json:"sender"`
	Password   *string `json:"password"`
	Recipient  *string `json:"recipient"`
	SMTPServer *string `json:"smtp_server"`
	SMTPPort   *int    `json:"smtp_port"`
}

// Load builds the runtime configuration. A missing or broken config file never
// fails: every section that cannot be read falls back to its defaults.
func Load(path string) *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Detection:           DefaultDetection(),
		Email:               DefaultEmail(),
		Port:                getEnvAsInt("PORT", 8080),
		Password:            getEnv("PASSWORD", "accident"),
		ScreenshotDirectory: getEnv("SCREENSHOT_DIR", filepath.Join(".", "screenshots")),
		UploadDirectory:     getEnv("UPLOAD_DIR", filepath.Join(".", "uploads")),
		LogDirectory:        getEnv("LOG_DIR", filepath.Join(".", "logs")),
		StaticDirectory:     getEnv("STATIC_DIR", filepath.Join(".", "static")),
		FrameDelayMs:        getEnvAsInt("FRAME_DELAY_MS", 30),
	}

	if data, err := os.ReadFile(path); err == nil {
		var file fileConfig
		if err := json.Unmarshal(data, &file); err == nil {
			if detection, ok := parseDetection(file.Detection); ok {
				cfg.Detection = detection
			}
			if email, ok := parseEmail(file.Email); ok {
				cfg.Email = email
			}
		}
	}

	cfg.Email.Sender = getEnv("ALERT_SENDER", cfg.Email.Sender)
	cfg.Email.Password = getEnv("ALERT_PASSWORD", cfg.Email.Password)
	cfg.Email.Recipient = getEnv("ALERT_RECIPIENT", cfg.Email.Recipient)
	cfg.Email.SMTPServer = getEnv("SMTP_SERVER", cfg.Email.SMTPServer)
	cfg.Email.SMTPPort = getEnvAsInt("SMTP_PORT", cfg.Email.SMTPPort)

	return cfg
}

// DefaultDetection returns the detection settings used when no file is present.
func DefaultDetection() DetectionConfig {
	return DetectionConfig{
		MinContourArea:          DefaultMinContourArea,
		ThresholdSensitivity:    DefaultThresholdSensitivity,
		AccidentFramesThreshold: DefaultAccidentFramesThreshold,
	}
}

// DefaultEmail returns the submission defaults. Credentials and the recipient
// have no built-in value and must come from the file or the environment.
func DefaultEmail() EmailConfig {
	return EmailConfig{
		SMTPServer: DefaultSMTPServer,
		SMTPPort:   DefaultSMTPPort,
	}
}

func parseDetection(raw json.RawMessage) (DetectionConfig, bool) {
	if len(raw) == 0 {
		return DetectionConfig{}, false
	}
	var s detectionSection
	if err := json.Unmarshal(raw, &s); err != nil {
		return DetectionConfig{}, false
	}
	if s.MinContourArea == nil || s.ThresholdSensitivity == nil || s.AccidentFramesThreshold == nil {
		return DetectionConfig{}, false
	}
	d := DetectionConfig{
		MinContourArea:          *s.MinContourArea,
		ThresholdSensitivity:    *s.ThresholdSensitivity,
		AccidentFramesThreshold: *s.AccidentFramesThreshold,
	}
	if d.MinContourArea < 0 || d.ThresholdSensitivity < 0 || d.ThresholdSensitivity > 255 || d.AccidentFramesThreshold < 1 {
		return DetectionConfig{}, false
	}
	return d, true
}

func parseEmail(raw json.RawMessage) (EmailConfig, bool) {
	if len(raw) == 0 {
		return EmailConfig{}, false
	}
	var s emailSection
	if err := json.Unmarshal(raw, &s); err != nil {
		return EmailConfig{}, false
	}
	if s.Sender == nil || s.Password == nil || s.Recipient == nil || s.SMTPServer == nil || s.SMTPPort == nil {
		return EmailConfig{}, false
	}
	if *s.SMTPPort <= 0 || *s.SMTPPort > 65535 {
		return EmailConfig{}, false
	}
	return EmailConfig{
		Sender:     *s.Sender,
		Password:   *s.Password,
		Recipient:  *s.Recipient,
		SMTPServer: *s.SMTPServer,
		SMTPPort:   *s.SMTPPort,
	}, true
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
