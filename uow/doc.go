// Package uow implements a unit of work over Bun: entity mutations are
// staged in memory in registration order and written to the database in a
// single transaction when Save is called.
package uow
