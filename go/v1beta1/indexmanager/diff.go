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

import (
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch"
)

// PathMap maps a dot-joined key path to the value that diverges at that path.
type PathMap map[string]interface{}

// TreeDiff is the set difference between a desired and an actual tree.
// Removed holds paths the desired tree has that the actual tree lacks (or
// holds with a different value); Added holds paths only the actual tree has.
type TreeDiff struct {
	Added   PathMap
	Removed PathMap
}

func (d *TreeDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// DiffTrees compares two nested key/value trees. An empty result means the
// trees are equivalent for drift purposes.
func DiffTrees(desired, actual map[string]interface{}) *TreeDiff {
	diff := &TreeDiff{
		Added:   PathMap{},
		Removed: PathMap{},
	}

	if treesEqual(desired, actual) {
		return diff
	}

	walkDiff("", desired, actual, diff.Removed)
	walkDiff("", actual, desired, diff.Added)

	return diff
}

func mergeDiffs(diffs ...*TreeDiff) *TreeDiff {
	merged := &TreeDiff{
		Added:   PathMap{},
		Removed: PathMap{},
	}

	for _, diff := range diffs {
		for path, value := range diff.Added {
			merged.Added[path] = value
		}
		for path, value := range diff.Removed {
			merged.Removed[path] = value
		}
	}

	return merged
}

// treesEqual is the fast path: deep JSON equality without walking paths.
func treesEqual(a, b map[string]interface{}) bool {
	rawA, err := json.Marshal(a)
	if err != nil {
		return false
	}

	rawB, err := json.Marshal(b)
	if err != nil {
		return false
	}

	return jsonpatch.Equal(rawA, rawB)
}

func walkDiff(prefix string, left, right map[string]interface{}, out PathMap) {
	for key, leftValue := range left {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		rightValue, present := right[key]
		if !present {
			out[path] = leftValue
			continue
		}

		leftTree, leftIsTree := leftValue.(map[string]interface{})
		rightTree, rightIsTree := rightValue.(map[string]interface{})

		if leftIsTree && rightIsTree {
			walkDiff(path, leftTree, rightTree, out)
			continue
		}

		if leftIsTree != rightIsTree {
			out[path] = leftValue
			continue
		}

		if !leafEqual(leftValue, rightValue) {
			out[path] = leftValue
		}
	}
}

// leafEqual compares scalars (and non-map composites such as lists) by their
// JSON value: 1 and 1.0 are equal, 1 and "1" are not.
func leafEqual(a, b interface{}) bool {
	rawA, err := json.Marshal(a)
	if err != nil {
		return false
	}

	rawB, err := json.Marshal(b)
	if err != nil {
		return false
	}

	return jsonpatch.Equal(rawA, rawB)
}
