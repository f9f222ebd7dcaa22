package entity

import (
	"testing"
	"time"
)

func TestUserRoleIsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name       string
		assignment *DbUserRole
		want       bool
	}{
		{"nil assignment", nil, false},
		{"no expiry", &DbUserRole{}, false},
		{"future expiry", &DbUserRole{ExpiresAt: &future}, false},
		{"past expiry", &DbUserRole{ExpiresAt: &past}, true},
		{"expiry equals now", &DbUserRole{ExpiresAt: &now}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.assignment.IsExpired(now); got != tc.want {
				t.Fatalf("IsExpired = %v, want %v", got, tc.want)
			}
		})
	}
}
