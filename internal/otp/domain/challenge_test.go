package domain

import (
	"testing"
	"time"
)

func TestChallenge_Usable(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	used := now.Add(-time.Minute)
	tests := []struct {
		name string
		ch   Challenge
		want bool
	}{
		{"fresh", Challenge{ExpiresAt: now.Add(time.Minute), MaxAttempts: 5}, true},
		{"one attempt left", Challenge{ExpiresAt: now.Add(time.Minute), Attempts: 4, MaxAttempts: 5}, true},
		{"exhausted", Challenge{ExpiresAt: now.Add(time.Minute), Attempts: 5, MaxAttempts: 5}, false},
		{"expired at the instant", Challenge{ExpiresAt: now, MaxAttempts: 5}, false},
		{"used", Challenge{ExpiresAt: now.Add(time.Minute), MaxAttempts: 5, UsedAt: &used}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ch.Usable(now); got != tt.want {
				t.Errorf("Usable = %v, want %v", got, tt.want)
			}
		})
	}
}
