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

package magpie

import (
	"fmt"

	"github.com/tomoncle/magpie/cache"
	"github.com/tomoncle/magpie/database"
	"github.com/tomoncle/magpie/repository"
	"github.com/tomoncle/magpie/uow"

	"github.com/uptrace/bun"
)

// NewUnitOfWork returns a unit of work bound to the global database
// connection. database.InitDB must have been called first.
func NewUnitOfWork() (*uow.UnitOfWork, error) {
	db := database.GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return uow.New(db), nil
}

// NewUnitOfWorkWithDB returns a unit of work bound to the given connection.
func NewUnitOfWorkWithDB(db *bun.DB) *uow.UnitOfWork {
	return uow.New(db)
}

// NewRepository returns a repository for T whose writes are staged on the
// given unit of work and committed by its Save.
func NewRepository[T any](unit *uow.UnitOfWork) repository.Repository[T] {
	return repository.NewRepository[T](unit)
}

// NewCachedRepository returns a repository for T that serves point lookups
// through the given cache store.
func NewCachedRepository[T any](unit *uow.UnitOfWork, store cache.Cache, options ...repository.CacheOptions) repository.Repository[T] {
	return repository.NewCachedRepository[T](repository.NewRepository[T](unit), store, options...)
}
