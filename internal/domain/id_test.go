package domain

import (
	"strings"
	"testing"
)

func TestIsValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"0x01", true},
		{"0x049d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7", true},
		{"0xABCdef", true},
		{"0x", false},
		{"ensure", false},
		{"foo", false},
		{"0xzz", false},
		{"049d", false},
		{"0x" + strings.Repeat("a", 65), false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidID(tt.id); got != tt.want {
			t.Errorf("IsValidID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
