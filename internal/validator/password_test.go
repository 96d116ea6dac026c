package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		name      string
		password  string
		similarTo []string
		want      []string
	}{
		{
			name:     "strong password passes",
			password: "Sup3rSecret!",
			want:     nil,
		},
		{
			name:     "too short",
			password: "abc12",
			want:     []string{"This password is too short. It must contain at least 8 characters."},
		},
		{
			name:     "entirely numeric",
			password: "1029384756",
			want:     []string{"This password is entirely numeric."},
		},
		{
			name:     "common password",
			password: "password123",
			want:     []string{"This password is too common."},
		},
		{
			name:      "similar to username",
			password:  "jonathan77x",
			similarTo: []string{"jonathan77"},
			want:      []string{"The password is too similar to your other account details."},
		},
		{
			name:      "similar to email local part",
			password:  "xx.jonathan.xx",
			similarTo: []string{"someone", "jonathan@example.com"},
			want:      []string{"The password is too similar to your other account details."},
		},
		{
			name:      "short attribute does not trigger similarity",
			password:  "abcdefgh",
			similarTo: []string{"abc"},
			want:      nil,
		},
		{
			name:     "short and numeric stack",
			password: "1234567",
			want: []string{
				"This password is too short. It must contain at least 8 characters.",
				"This password is entirely numeric.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckPassword(tt.password, tt.similarTo...)
			assert.Equal(t, tt.want, got)
		})
	}
}
