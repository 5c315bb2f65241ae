package config

import (
	"os"
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.GRPCAddr != ":9090" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":9090")
	}
	if cfg.JWTIssuer != "school-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "school-auth")
	}
	if cfg.JWTAudience != "school-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "school-api")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.OTPLength != 6 {
		t.Errorf("OTPLength = %d, want 6", cfg.OTPLength)
	}
	if cfg.OTPMaxAttempts != 5 {
		t.Errorf("OTPMaxAttempts = %d, want 5", cfg.OTPMaxAttempts)
	}
	if cfg.NotifyKafkaTopic != "school-notifications" {
		t.Errorf("NotifyKafkaTopic = %q, want default", cfg.NotifyKafkaTopic)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.SMTPPort)
	}
	if got := cfg.AccessTTL(); got != 15*time.Minute {
		t.Errorf("AccessTTL = %v, want 15m", got)
	}
	if got := cfg.RefreshTTL(); got != 30*24*time.Hour {
		t.Errorf("RefreshTTL = %v, want 720h", got)
	}
	if got := cfg.OTPTTL(); got != 300*time.Second {
		t.Errorf("OTPTTL = %v, want 300s", got)
	}
	if got := cfg.OTPCooldown(); got != 60*time.Second {
		t.Errorf("OTPCooldown = %v, want 60s", got)
	}
	if got := cfg.RequestTimeout(); got != 20*time.Second {
		t.Errorf("RequestTimeout = %v, want 20s", got)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9999")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("OTP_LENGTH", "8")
	os.Setenv("OTP_TTL", "10m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9999")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if cfg.OTPLength != 8 {
		t.Errorf("OTPLength = %d, want 8", cfg.OTPLength)
	}
	if got := cfg.OTPTTL(); got != 10*time.Minute {
		t.Errorf("OTPTTL = %v, want 10m", got)
	}
}

func TestLoad_BCRYPT_COSTRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  int
		err   bool
	}{
		{"valid min", "4", 4, false},
		{"valid max", "31", 31, false},
		{"valid middle", "12", 12, false},
		{"too low", "3", 0, true},
		{"too high", "32", 0, true},
		{"zero", "0", 12, false}, // Should default to 12
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("BCRYPT_COST", tc.value)

			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatal("Load should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.BcryptCost != tc.want {
				t.Errorf("BcryptCost = %d, want %d", cfg.BcryptCost, tc.want)
			}
		})
	}
}

func TestLoad_OTPLengthRange(t *testing.T) {
	for _, v := range []string{"3", "11"} {
		os.Clearenv()
		os.Setenv("OTP_LENGTH", v)
		if _, err := Load(); err == nil {
			t.Errorf("OTP_LENGTH=%s: Load should return error", v)
		}
	}
}

func TestLoad_OTPMaxAttemptsMustBePositive(t *testing.T) {
	os.Clearenv()
	os.Setenv("OTP_MAX_ATTEMPTS", "0")
	if _, err := Load(); err == nil {
		t.Fatal("Load should reject OTP_MAX_ATTEMPTS=0")
	}
}

func TestDurations_InvalidFallBack(t *testing.T) {
	cfg := &Config{
		JWTAccessTTL:      "invalid",
		JWTRefreshTTL:     "-1h",
		OTPTTLRaw:         "0",
		OTPCooldownRaw:    "",
		RequestTimeoutRaw: "soon",
	}
	if got := cfg.AccessTTL(); got != 15*time.Minute {
		t.Errorf("AccessTTL = %v, want 15m", got)
	}
	if got := cfg.RefreshTTL(); got != 30*24*time.Hour {
		t.Errorf("RefreshTTL = %v, want 720h", got)
	}
	if got := cfg.OTPTTL(); got != 300*time.Second {
		t.Errorf("OTPTTL = %v, want 300s", got)
	}
	if got := cfg.OTPCooldown(); got != 60*time.Second {
		t.Errorf("OTPCooldown = %v, want 60s", got)
	}
	if got := cfg.RequestTimeout(); got != 20*time.Second {
		t.Errorf("RequestTimeout = %v, want 20s", got)
	}
}

func TestKafkaBrokersList(t *testing.T) {
	cfg := &Config{KafkaBrokers: " a:9092, ,b:9092 "}
	got := cfg.KafkaBrokersList()
	want := []string{"a:9092", "b:9092"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("KafkaBrokersList = %v, want %v", got, want)
	}
	var nilCfg *Config
	if nilCfg.KafkaBrokersList() != nil {
		t.Error("nil config should yield nil brokers")
	}
}
