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

// PageRequest describes one page of a collection read: which page, how
// large, plus an optional filter and ordering.
type PageRequest struct {
	page     int
	pageSize int
	filter   *QueryFilter
	orders   []string // "id ASC", "name DESC"
}

// NewPageRequest builds a page request with filter and ordering.
func NewPageRequest(page int, pageSize int, filter *QueryFilter, orders []string) *PageRequest {
	return &PageRequest{page: page, pageSize: pageSize, filter: filter, orders: orders}
}

// NewPageRequestWithFilter builds a filtered page request without ordering.
func NewPageRequestWithFilter(page int, pageSize int, filter *QueryFilter) *PageRequest {
	return NewPageRequest(page, pageSize, filter, []string{})
}

// NewPageRequestWithOrders builds an ordered page request without a filter.
func NewPageRequestWithOrders(page int, pageSize int, orders []string) *PageRequest {
	return NewPageRequest(page, pageSize, nil, orders)
}

// NewDefaultPageRequest builds a page request with neither filter nor ordering.
func NewDefaultPageRequest(page int, pageSize int) *PageRequest {
	return NewPageRequest(page, pageSize, nil, []string{})
}

// GetPage returns the requested page number, at least 1.
func (p *PageRequest) GetPage() int {
	if p.page < 1 {
		return 1
	}
	return p.page
}

// GetPageSize returns the requested page size, defaulting to 10.
func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		return 10
	}
	return p.pageSize
}

// GetOffset returns how many records precede this page.
func (p *PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

func (p *PageRequest) GetFilter() *QueryFilter {
	return p.filter
}

func (p *PageRequest) GetOrders() []string {
	return p.orders
}

// ToCriteria expresses the page request as skip/take criteria, so paged reads
// compose the same query as plain collection reads.
func (p *PageRequest) ToCriteria() *Criteria {
	c := NewCriteria().Skip(p.GetOffset()).Take(p.GetPageSize())
	if p.filter != nil {
		c.Filter(p.filter)
	}
	if len(p.orders) > 0 {
		c.OrderBy(p.orders...)
	}
	return c
}

// Pagination is one page of results together with the total count across
// all pages.
type Pagination[T any] struct {
	Page     int
	PageSize int
	Total    int
	Items    []*T
}

// NewDefaultPagination builds an empty page container.
func NewDefaultPagination[T any](page int, pageSize int) *Pagination[T] {
	return &Pagination[T]{Page: page, PageSize: pageSize, Items: []*T{}}
}
