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
	"database/sql"
	"errors"
	"math"

	"github.com/tomoncle/magpie/types"
	"github.com/tomoncle/magpie/uow"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T any] struct {
	unit *uow.UnitOfWork
}

// NewRepository returns a generic repository for T bound to the provided
// unit of work: reads go through its database handle, mutations are staged
// on it.
func NewRepository[T any](unit *uow.UnitOfWork) Repository[T] {
	return &baseRepositoryImpl[T]{unit: unit}
}

func (r *baseRepositoryImpl[T]) UnitOfWork() *uow.UnitOfWork { return r.unit }

func (r *baseRepositoryImpl[T]) db() *bun.DB { return r.unit.DB() }

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db().Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.db().NewSelect() }

// applyCriteria layers filter, ordering, and the skip/take window onto a
// select in a fixed sequence, so the order of setter calls on Criteria never
// changes the produced query.
func applyCriteria(query *bun.SelectQuery, criteria *types.Criteria) *bun.SelectQuery {
	if criteria == nil {
		return query
	}
	if filter := criteria.GetFilter(); filter != nil {
		query = query.Where(filter.Schema, filter.Args...)
	}
	if orders := criteria.GetOrders(); len(orders) > 0 {
		query = query.Order(orders...)
	}
	if criteria.HasSkip() {
		query = query.Offset(criteria.GetSkip())
		if !criteria.HasTake() {
			// SQLite and MySQL reject OFFSET without LIMIT.
			query = query.Limit(math.MaxInt32)
		}
	}
	if criteria.HasTake() {
		query = query.Limit(criteria.GetTake())
	}
	return query
}

func (r *baseRepositoryImpl[T]) GetAll(ctx context.Context, criteria *types.Criteria) ([]*T, error) {
	entities := make([]*T, 0)
	if criteria != nil && criteria.HasTake() && criteria.GetTake() == 0 {
		// LIMIT 0 selects nothing, and Bun drops non-positive limits.
		return entities, nil
	}
	err := applyCriteria(r.db().NewSelect().Model(&entities), criteria).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var entity T
	err := r.db().NewSelect().Model(&entity).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *baseRepositoryImpl[T]) Exists(ctx context.Context, id uuid.UUID) (bool, *T, error) {
	entity, err := r.GetByID(ctx, id)
	if err != nil {
		return false, nil, err
	}
	return entity != nil, entity, nil
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context, criteria *types.Criteria) (int, error) {
	var entities []*T
	query := r.db().NewSelect().Model(&entities)
	if criteria != nil && criteria.GetFilter() != nil {
		query = query.Where(criteria.GetFilter().Schema, criteria.GetFilter().Args...)
	}
	return query.Count(ctx)
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, pageRequest *types.PageRequest) (*types.Pagination[T], error) {
	pagination := types.NewDefaultPagination[T](pageRequest.GetPage(), pageRequest.GetPageSize())
	total, err := r.Count(ctx, types.NewCriteria().Filter(pageRequest.GetFilter()))
	if err != nil || total == 0 {
		return pagination, err
	}
	items, err := r.GetAll(ctx, pageRequest.ToCriteria())
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = items
	return pagination, nil
}

func (r *baseRepositoryImpl[T]) Create(entity *T) {
	r.unit.RegisterInsert(entity)
}

func (r *baseRepositoryImpl[T]) Update(entity *T) {
	r.unit.RegisterUpdate(entity)
}

func (r *baseRepositoryImpl[T]) Delete(entity *T) {
	r.unit.RegisterDelete(entity)
}
