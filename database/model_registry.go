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

package database

import (
	"sort"
	"sync"
)

// The model registry collects every entity model the application wants
// created and registered on startup. Migrations create tables from it,
// InitDB registers its instances on the Bun handle.
var (
	registryMu       sync.RWMutex
	registeredModels []SQLModel
)

// SQLModel describes one registered entity model. Instance returns a struct
// pointer compatible with Bun, Priority orders table creation (lower values
// first, so referenced tables can be created before their referrers).
type SQLModel interface {
	Instance() interface{}
	Priority() int
}

// ModelAdapter is the plain SQLModel implementation most callers register.
type ModelAdapter struct {
	instance interface{}
	priority int
}

// NewModelAdapter wraps a struct instance and priority into an SQLModel.
func NewModelAdapter(instance interface{}, priority int) SQLModel {
	return &ModelAdapter{instance: instance, priority: priority}
}

// Instance returns the underlying struct used for migrations/initialization.
func (a *ModelAdapter) Instance() interface{} {
	return a.instance
}

// Priority returns the model's ordering value; lower values run earlier.
func (a *ModelAdapter) Priority() int {
	return a.priority
}

// RegisteredModel adds a model to the registry.
func RegisteredModel(model SQLModel) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registeredModels = append(registeredModels, model)
}

// GetRegisteredModels returns the registered models sorted by ascending
// priority. Models sharing a priority keep their registration order.
func GetRegisteredModels() []SQLModel {
	registryMu.RLock()
	models := make([]SQLModel, len(registeredModels))
	copy(models, registeredModels)
	registryMu.RUnlock()

	sort.SliceStable(models, func(i, j int) bool {
		return models[i].Priority() < models[j].Priority()
	})
	return models
}

// RegisteredModelInstances returns the model struct instances in priority
// order, the form bun's RegisterModel and CreateTable want.
func RegisteredModelInstances() []interface{} {
	models := GetRegisteredModels()
	instances := make([]interface{}, len(models))
	for i, model := range models {
		instances[i] = model.Instance()
	}
	return instances
}

// ResetRegisteredModels empties the registry.
func ResetRegisteredModels() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registeredModels = nil
}
