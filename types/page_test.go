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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageRequestClampsToDefaults(t *testing.T) {
	p := NewDefaultPageRequest(0, 0)

	assert.Equal(t, 1, p.GetPage())
	assert.Equal(t, 10, p.GetPageSize())
	assert.Equal(t, 0, p.GetOffset())
}

func TestPageRequestOffset(t *testing.T) {
	p := NewDefaultPageRequest(3, 20)

	assert.Equal(t, 40, p.GetOffset())
}

func TestPageRequestToCriteria(t *testing.T) {
	filter := NewQueryFilter("pages > ?", 50)
	p := NewPageRequest(2, 5, filter, []string{"title ASC"})

	c := p.ToCriteria()
	require.NotNil(t, c)
	assert.True(t, c.HasSkip())
	assert.Equal(t, 5, c.GetSkip())
	assert.True(t, c.HasTake())
	assert.Equal(t, 5, c.GetTake())
	assert.Same(t, filter, c.GetFilter())
	assert.Equal(t, []string{"title ASC"}, c.GetOrders())
}

func TestPageRequestToCriteriaWithoutFilter(t *testing.T) {
	c := NewDefaultPageRequest(1, 10).ToCriteria()

	assert.Nil(t, c.GetFilter())
	assert.Equal(t, 0, c.GetSkip())
	assert.Equal(t, 10, c.GetTake())
	assert.Empty(t, c.GetOrders())
}

func TestNewDefaultPagination(t *testing.T) {
	p := NewDefaultPagination[struct{}](2, 15)

	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 15, p.PageSize)
	assert.Equal(t, 0, p.Total)
	require.NotNil(t, p.Items)
	assert.Empty(t, p.Items)
}
