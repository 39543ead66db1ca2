package domain_test

import (
	"testing"

	"github.com/dom/deception-server/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRole(t *testing.T) {
	tests := []struct {
		role      domain.Role
		valid     bool
		murderer  bool
		knowsCase bool
	}{
		{domain.RoleWitness, true, false, true},
		{domain.RoleDetective, true, false, false},
		{domain.RoleAccomplice, true, true, true},
		{domain.RoleMurderer, true, true, true},
		{"", false, false, false},
		{"Butler", false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.role.IsValid())
			assert.Equal(t, tt.murderer, tt.role.IsMurdererSide())
			assert.Equal(t, tt.knowsCase, tt.role.KnowsCrime())
		})
	}
	assert.Len(t, domain.AllRoles, 4)
}
