package authdomain

import (
	"testing"
	"time"
)

func TestClaims_IsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "not expired (future)",
			expiresAt: time.Now().Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "expired (past)",
			expiresAt: time.Now().Add(-1 * time.Hour),
			want:      true,
		},
		{
			name:      "expired (just now)",
			expiresAt: time.Now().Add(-1 * time.Second),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Claims{
				ExpiresAt: tt.expiresAt,
			}
			if got := c.IsExpired(); got != tt.want {
				t.Errorf("Claims.IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTier_IsValid(t *testing.T) {
	for tier, want := range map[Tier]bool{
		TierFounder:  true,
		TierOrdinary: true,
		"admin":      false,
		"":           false,
	} {
		if got := tier.IsValid(); got != want {
			t.Errorf("Tier(%q).IsValid() = %v, want %v", tier, got, want)
		}
	}
}

func TestClaims_IsFounder(t *testing.T) {
	if !(&Claims{Tier: TierFounder}).IsFounder() {
		t.Error("founder tier should report IsFounder")
	}
	if (&Claims{Tier: TierOrdinary}).IsFounder() {
		t.Error("ordinary tier should not report IsFounder")
	}
}
