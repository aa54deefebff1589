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

package repository

import (
	"context"
	"github.com/tomoncle/magpie/types"
	"github.com/tomoncle/magpie/uow"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// QueryRepository defines committed-state reads for a generic entity type.
//
// A lookup that finds nothing reports absence through the value, not the
// error: GetByID returns (nil, nil) and Exists returns (false, nil, nil).
// The error return carries storage faults only, passed through unchanged.
type QueryRepository[T any] interface {
	// GetAll returns the entities matching criteria. A nil criteria selects
	// the whole set. The skip window is applied before the take cap no
	// matter which setter was called first, and no ordering is imposed
	// unless the criteria asks for one.
	GetAll(ctx context.Context, criteria *types.Criteria) ([]*T, error)

	// GetByID returns the entity with the given primary key, or nil when no
	// such row exists.
	GetByID(ctx context.Context, id uuid.UUID) (*T, error)

	// Exists reports whether a row with the given primary key exists and
	// hands back the entity when it does.
	Exists(ctx context.Context, id uuid.UUID) (bool, *T, error)

	// Count returns the number of rows matching the criteria filter. Skip,
	// take, and ordering settings are ignored.
	Count(ctx context.Context, criteria *types.Criteria) (int, error)
}

// StagingRepository defines entity mutations. None of them touch the
// database: each stages a change on the shared unit of work, written when
// the owner of the flow calls Save. Identifier generation stays with the
// caller.
type StagingRepository[T any] interface {
	// Create stages entity for insertion.
	Create(entity *T)

	// Update stages a full-row replacement of entity, matched by primary key.
	Update(entity *T)

	// Delete stages removal of entity, matched by primary key.
	Delete(entity *T)
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// Repository combines reads, staged mutations, and pagination for one entity
// kind. It holds no state of its own beyond the unit of work it was bound
// to, so instances are cheap and any number of them may share one unit of
// work to commit together.
//
// Only the select builder is exposed for advanced cases; writes have no
// escape hatch, they all go through staging.
type Repository[T any] interface {
	QueryRepository[T]
	StagingRepository[T]
	PageQueryRepository[T]
	UnitOfWork() *uow.UnitOfWork
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
}
