package cache

import (
	"testing"

	"github.com/candy-store/internal/constants"
	"github.com/candy-store/internal/models"
)

func TestAuthStateAccepts(t *testing.T) {
	active := UserState(&models.User{ID: 7, Status: constants.UserStatusActive, TokenVersion: 2})
	disabled := UserState(&models.User{ID: 8, Status: constants.UserStatusDisabled, TokenVersion: 2})
	admin := AdminState(&models.Admin{ID: 1, TokenVersion: 5, IsSuper: true})

	cases := []struct {
		name    string
		state   *AuthState
		version uint64
		want    bool
	}{
		{"active user current version", active, 2, true},
		{"active user stale version", active, 1, false},
		{"disabled user", disabled, 2, false},
		{"admin ignores status", admin, 5, true},
		{"admin stale version", admin, 4, false},
		{"nil state", nil, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.state.Accepts(tc.version); got != tc.want {
				t.Fatalf("want %v got %v", tc.want, got)
			}
		})
	}
}

func TestAuthStateKeySeparatesPrincipals(t *testing.T) {
	if authStateKey(PrincipalUser, 3) == authStateKey(PrincipalAdmin, 3) {
		t.Fatalf("user and admin snapshots must not share a key")
	}
	if got := authStateKey(PrincipalAdmin, 3); got != "auth:admin:3" {
		t.Fatalf("unexpected key: %s", got)
	}
}
