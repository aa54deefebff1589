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

package types

// QueryFilter describes a WHERE clause schema and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// Criteria narrows a collection read: an optional row filter plus an optional
// result window (skip, take) and ordering. A nil or zero Criteria selects the
// whole set. Skip is always applied before take, independent of the order the
// setters were called in, and no ordering is imposed unless OrderBy is used.
type Criteria struct {
	filter  *QueryFilter
	skip    int
	hasSkip bool
	take    int
	hasTake bool
	orders  []string // "id ASC", "name DESC"
}

// NewCriteria creates an empty criteria selecting the whole set.
func NewCriteria() *Criteria {
	return &Criteria{}
}

// Where sets the row filter from a WHERE schema and args.
func (c *Criteria) Where(schema string, args ...interface{}) *Criteria {
	c.filter = NewQueryFilter(schema, args...)
	return c
}

// Filter sets the row filter from an existing QueryFilter.
func (c *Criteria) Filter(filter *QueryFilter) *Criteria {
	c.filter = filter
	return c
}

// Skip drops the first n matching rows.
func (c *Criteria) Skip(n int) *Criteria {
	c.skip = n
	c.hasSkip = true
	return c
}

// Take caps the result at n rows, counted after skip.
func (c *Criteria) Take(n int) *Criteria {
	c.take = n
	c.hasTake = true
	return c
}

// OrderBy appends ordering expressions, e.g. "created_at DESC".
func (c *Criteria) OrderBy(orders ...string) *Criteria {
	c.orders = append(c.orders, orders...)
	return c
}

func (c *Criteria) GetFilter() *QueryFilter {
	return c.filter
}

func (c *Criteria) HasSkip() bool {
	return c.hasSkip
}

// GetSkip returns the skip count, never negative.
func (c *Criteria) GetSkip() int {
	if c.skip < 0 {
		return 0
	}
	return c.skip
}

func (c *Criteria) HasTake() bool {
	return c.hasTake
}

// GetTake returns the take count, never negative.
func (c *Criteria) GetTake() int {
	if c.take < 0 {
		return 0
	}
	return c.take
}

func (c *Criteria) GetOrders() []string {
	return c.orders
}
