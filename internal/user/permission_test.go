package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowed(t *testing.T) {
	cases := []struct {
		op      Operation
		role    Role
		allowed bool
	}{
		{OpCreateOrder, RoleSeller, true},
		{OpCreateOrder, RolePrinter, false},
		{OpCreateOrder, RoleAdmin, true},
		{OpTransitionOrder, RoleSeller, false},
		{OpTransitionOrder, RolePrinter, true},
		{OpTransitionOrder, RoleAdmin, true},
		{OpWarehouse, RoleSeller, false},
		{OpWarehouse, RolePrinter, true},
		{OpSync, RoleSeller, true},
		{OpSync, RolePrinter, true},
		{OpSync, RoleAdmin, true},
		{OpBuildPayout, RoleSeller, false},
		{OpBuildPayout, RolePrinter, false},
		{OpBuildPayout, RoleAdmin, true},
		{OpPayoutStatus, RolePrinter, false},
		{OpPayoutStatus, RoleAdmin, true},
		{OpManageDebt, RoleSeller, false},
		{OpManageDebt, RoleAdmin, true},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, Allowed(tc.op, tc.role), "%s / %s", tc.op, tc.role)
	}
}

func TestAuthorize(t *testing.T) {
	assert.NoError(t, Authorize(OpBuildPayout, Actor{Username: "boss", Role: RoleAdmin}))
	assert.ErrorIs(t, Authorize(OpBuildPayout, Actor{Username: "maria", Role: RoleSeller}), ErrForbidden)
	assert.ErrorIs(t, Authorize(Operation("unknown"), Actor{Role: RoleAdmin}), ErrForbidden)
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleSeller.Valid())
	assert.True(t, RolePrinter.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("manager").Valid())
}
