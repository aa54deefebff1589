// Package repository provides a generic entity repository built on Bun:
// committed-state reads with composable criteria, mutations staged on a
// shared unit of work, pagination, and an optional read-through cache
// decorator.
package repository
