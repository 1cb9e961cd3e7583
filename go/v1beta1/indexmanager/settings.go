// Copyright 2021 The Rode Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package indexmanager

import "strings"

// Only these top-level settings require a new index version when changed;
// everything else (shard counts, replicas, ...) is ignored by drift detection.
var reindexSensitiveSettingKeys = []string{"analysis", "mapping"}

// NormalizeSettings canonicalizes a settings tree so that the engine's
// response shape (nested under "index", possibly wrapped in a "settings"
// envelope) and the creation-request shape (flat, possibly with dotted keys)
// compare equal. The function is pure and idempotent.
func NormalizeSettings(raw map[string]interface{}) map[string]interface{} {
	if raw == nil {
		return map[string]interface{}{}
	}

	if envelope, ok := raw["settings"].(map[string]interface{}); ok {
		raw = envelope
	}

	normalized := expandDottedKeys(raw)

	// the engine nests per-index settings under "index" in responses but
	// accepts them unnested in creation requests; hoist to equalize
	if indexTree, ok := normalized["index"].(map[string]interface{}); ok {
		delete(normalized, "index")
		for key, value := range indexTree {
			if existing, ok := normalized[key].(map[string]interface{}); ok {
				if incoming, ok := value.(map[string]interface{}); ok {
					mergeTrees(existing, incoming)
					continue
				}
			}
			normalized[key] = value
		}
	}

	return normalized
}

// ReindexSensitiveSettings extracts the allow-listed subtrees from a
// normalized settings tree. A missing key yields an empty map, never "no
// opinion": an analysis section present only on the live index must surface
// as drift.
func ReindexSensitiveSettings(normalized map[string]interface{}) map[string]interface{} {
	extracted := map[string]interface{}{}
	for _, key := range reindexSensitiveSettingKeys {
		if value, ok := normalized[key]; ok {
			extracted[key] = value
		} else {
			extracted[key] = map[string]interface{}{}
		}
	}

	return extracted
}

func expandDottedKeys(tree map[string]interface{}) map[string]interface{} {
	expanded := map[string]interface{}{}
	for key, value := range tree {
		if nested, ok := value.(map[string]interface{}); ok {
			value = expandDottedKeys(nested)
		}

		insertPath(expanded, strings.Split(key, "."), value)
	}

	return expanded
}

func insertPath(tree map[string]interface{}, path []string, value interface{}) {
	key := path[0]

	if len(path) == 1 {
		if existing, ok := tree[key].(map[string]interface{}); ok {
			if incoming, ok := value.(map[string]interface{}); ok {
				mergeTrees(existing, incoming)
				return
			}
		}
		tree[key] = value
		return
	}

	child, ok := tree[key].(map[string]interface{})
	if !ok {
		child = map[string]interface{}{}
		tree[key] = child
	}

	insertPath(child, path[1:], value)
}

func mergeTrees(dst, src map[string]interface{}) {
	for key, value := range src {
		if existing, ok := dst[key].(map[string]interface{}); ok {
			if incoming, ok := value.(map[string]interface{}); ok {
				mergeTrees(existing, incoming)
				continue
			}
		}
		dst[key] = value
	}
}
