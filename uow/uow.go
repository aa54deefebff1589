/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package uow

import (
	"context"
	"sync"

	"github.com/uptrace/bun"
)

type changeKind int

const (
	changeInsert changeKind = iota
	changeUpdate
	changeDelete
)

// change is a single staged mutation: what to do and the model to do it to.
type change struct {
	kind  changeKind
	model interface{}
}

func (c change) apply(ctx context.Context, tx bun.Tx) error {
	var err error
	switch c.kind {
	case changeInsert:
		_, err = tx.NewInsert().Model(c.model).Exec(ctx)
	case changeUpdate:
		_, err = tx.NewUpdate().Model(c.model).WherePK().Exec(ctx)
	case changeDelete:
		_, err = tx.NewDelete().Model(c.model).WherePK().Exec(ctx)
	}
	return err
}

// UnitOfWork collects entity mutations and defers them until Save writes the
// whole batch atomically. Registering a change never touches the database;
// reads through DB see only committed state.
//
// Create one instance per logical flow (request, job, ...) and share it
// between the repositories that should commit together. The instance itself
// is not meant for concurrent use by independent flows.
type UnitOfWork struct {
	db      *bun.DB
	mu      sync.Mutex
	pending []change
}

// New creates a unit of work bound to db. The handle is borrowed, not owned;
// closing the database stays with the caller.
func New(db *bun.DB) *UnitOfWork {
	return &UnitOfWork{db: db, pending: make([]change, 0)}
}

// DB returns the database handle repositories read through.
func (u *UnitOfWork) DB() *bun.DB {
	return u.db
}

// RegisterInsert stages model for insertion on the next Save.
func (u *UnitOfWork) RegisterInsert(model interface{}) {
	u.register(changeInsert, model)
}

// RegisterUpdate stages a full-row update of model, matched by primary key.
func (u *UnitOfWork) RegisterUpdate(model interface{}) {
	u.register(changeUpdate, model)
}

// RegisterDelete stages removal of model, matched by primary key.
func (u *UnitOfWork) RegisterDelete(model interface{}) {
	u.register(changeDelete, model)
}

// register appends synchronously, so changes are applied in the exact order
// they were staged.
func (u *UnitOfWork) register(kind changeKind, model interface{}) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pending = append(u.pending, change{kind: kind, model: model})
}

// Pending reports the number of staged changes.
func (u *UnitOfWork) Pending() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.pending)
}

// Discard drops every staged change without touching the database.
func (u *UnitOfWork) Discard() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pending = u.pending[:0]
}

// Save applies every staged change in registration order inside a single
// transaction. On success the staged changes are cleared. On failure the
// transaction is rolled back, the changes stay staged so the caller can
// retry or Discard, and the database error is returned unchanged.
//
// Save with nothing staged is a no-op.
func (u *UnitOfWork) Save(ctx context.Context) error {
	u.mu.Lock()
	staged := make([]change, len(u.pending))
	copy(staged, u.pending)
	u.mu.Unlock()

	if len(staged) == 0 {
		return nil
	}

	err := u.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, c := range staged {
			if err := c.apply(ctx, tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	u.mu.Lock()
	u.pending = u.pending[len(staged):]
	u.mu.Unlock()
	return nil
}
