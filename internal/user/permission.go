package user

import "errors"

var ErrForbidden = errors.New("forbidden")

type Operation string

const (
	OpCreateOrder     Operation = "order:create"
	OpReadOrder       Operation = "order:read"
	OpTransitionOrder Operation = "order:transition"
	OpPrinterCheck    Operation = "order:printer_check"
	OpWarehouse       Operation = "warehouse:manage"
	OpSync            Operation = "sync:read"
	OpBuildPayout     Operation = "payout:build"
	OpPayoutStatus    Operation = "payout:status"
	OpReadPayout      Operation = "payout:read"
	OpManageDebt      Operation = "debt:manage"
)

// permissions maps each operation to the roles allowed to invoke it.
// Row-level scoping (a seller sees only its own orders) is enforced
// by the services on top of this table.
var permissions = map[Operation]map[Role]bool{
	OpCreateOrder:     {RoleSeller: true, RoleAdmin: true},
	OpReadOrder:       {RoleSeller: true, RolePrinter: true, RoleAdmin: true},
	OpTransitionOrder: {RolePrinter: true, RoleAdmin: true},
	OpPrinterCheck:    {RolePrinter: true, RoleAdmin: true},
	OpWarehouse:       {RolePrinter: true, RoleAdmin: true},
	OpSync:            {RoleSeller: true, RolePrinter: true, RoleAdmin: true},
	OpBuildPayout:     {RoleAdmin: true},
	OpPayoutStatus:    {RoleAdmin: true},
	OpReadPayout:      {RoleAdmin: true},
	OpManageDebt:      {RoleAdmin: true},
}

func Allowed(op Operation, r Role) bool {
	roles, ok := permissions[op]
	if !ok {
		return false
	}
	return roles[r]
}

// Authorize returns ErrForbidden unless the actor's role is allowed
// to invoke the operation. Checked once at the entry of each service call.
func Authorize(op Operation, a Actor) error {
	if !Allowed(op, a.Role) {
		return ErrForbidden
	}
	return nil
}
