package mailer

import (
	"context"
	"testing"

	"github.com/facetrace/facetrace/internal/config"
)

func TestConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.SMTPConfig
		want bool
	}{
		{"full config", config.SMTPConfig{Host: "smtp.example.com", Username: "bot"}, true},
		{"missing host", config.SMTPConfig{Username: "bot"}, false},
		{"missing username", config.SMTPConfig{Host: "smtp.example.com"}, false},
		{"empty", config.SMTPConfig{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.cfg).Configured(); got != tt.want {
				t.Errorf("Configured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSendOTPUnconfigured(t *testing.T) {
	m := New(config.SMTPConfig{})
	if err := m.SendOTP(context.Background(), "new@example.com", "123456"); err == nil {
		t.Fatal("SendOTP() error = nil, want error when SMTP is not configured")
	}
}
