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
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JsonObject maps a JSON object column onto a Go map.
type JsonObject map[string]interface{}

// JsonArray maps a JSON array column onto a slice of objects.
type JsonArray []JsonObject

// jsonColumnBytes normalizes a scanned column value to raw JSON bytes.
// MySQL and PostgreSQL drivers hand JSON columns over as []byte, the SQLite
// driver as string.
func jsonColumnBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported JSON column type %T", value)
	}
}

// Value serializes the map for storage. A nil map stores SQL NULL.
func (j JsonObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan decodes a database value, reading NULL as an empty map.
func (j *JsonObject) Scan(value interface{}) error {
	if value == nil {
		*j = make(JsonObject)
		return nil
	}
	raw, err := jsonColumnBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, j)
}

// Value serializes the slice for storage. A nil slice stores SQL NULL.
func (j JsonArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan decodes a database value, reading NULL as an empty slice.
func (j *JsonArray) Scan(value interface{}) error {
	if value == nil {
		*j = make(JsonArray, 0)
		return nil
	}
	raw, err := jsonColumnBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, j)
}
