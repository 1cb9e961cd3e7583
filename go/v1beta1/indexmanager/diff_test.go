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
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("DiffTrees", func() {
	Describe("comparing a tree with itself", func() {
		It("should report no differences for a flat tree", func() {
			tree := map[string]interface{}{
				fake.Word(): fake.Word(),
				fake.Word(): fake.Number(1, 100),
			}

			Expect(DiffTrees(tree, tree).Empty()).To(BeTrue())
		})

		It("should report no differences for a deeply nested tree", func() {
			tree := randomNestedTree(3)

			diff := DiffTrees(tree, tree)

			Expect(diff.Added).To(BeEmpty())
			Expect(diff.Removed).To(BeEmpty())
		})

		It("should report no differences for empty trees", func() {
			Expect(DiffTrees(map[string]interface{}{}, map[string]interface{}{}).Empty()).To(BeTrue())
		})
	})

	Describe("directionality", func() {
		It("should report a key only the desired tree has under removed", func() {
			key := fake.Word()
			value := fake.Word()
			desired := map[string]interface{}{key: value}
			actual := map[string]interface{}{}

			diff := DiffTrees(desired, actual)

			Expect(diff.Removed).To(HaveKeyWithValue(key, value))
			Expect(diff.Added).To(BeEmpty())
		})

		It("should report a key only the actual tree has under added", func() {
			key := fake.Word()
			value := fake.Word()
			desired := map[string]interface{}{}
			actual := map[string]interface{}{key: value}

			diff := DiffTrees(desired, actual)

			Expect(diff.Added).To(HaveKeyWithValue(key, value))
			Expect(diff.Removed).To(BeEmpty())
		})

		It("should never report keys equal in both trees", func() {
			shared := fake.Word()
			desired := map[string]interface{}{shared: "same", "onlyDesired": 1}
			actual := map[string]interface{}{shared: "same", "onlyActual": 2}

			diff := DiffTrees(desired, actual)

			Expect(diff.Added).NotTo(HaveKey(shared))
			Expect(diff.Removed).NotTo(HaveKey(shared))
		})
	})

	Describe("nested trees", func() {
		It("should record the full dotted path of a differing leaf", func() {
			desired := map[string]interface{}{
				"analysis": map[string]interface{}{
					"analyzer": map[string]interface{}{
						"default": map[string]interface{}{
							"type": "keyword",
						},
					},
				},
			}
			actual := map[string]interface{}{
				"analysis": map[string]interface{}{
					"analyzer": map[string]interface{}{
						"default": map[string]interface{}{
							"type": "standard",
						},
					},
				},
			}

			diff := DiffTrees(desired, actual)

			Expect(diff.Removed).To(HaveKeyWithValue("analysis.analyzer.default.type", "keyword"))
			Expect(diff.Added).To(HaveKeyWithValue("analysis.analyzer.default.type", "standard"))
		})

		It("should treat a map/scalar type mismatch as a difference", func() {
			key := fake.Word()
			desired := map[string]interface{}{key: map[string]interface{}{"child": 1}}
			actual := map[string]interface{}{key: fake.Word()}

			diff := DiffTrees(desired, actual)

			Expect(diff.Removed).To(HaveKey(key))
			Expect(diff.Added).To(HaveKey(key))
		})
	})

	Describe("leaf equality", func() {
		It("should treat numerically equal values of different Go kinds as equal", func() {
			desired := map[string]interface{}{"version": 1}
			actual := map[string]interface{}{"version": float64(1)}

			Expect(DiffTrees(desired, actual).Empty()).To(BeTrue())
		})

		It("should not treat a numeric string as equal to a number", func() {
			desired := map[string]interface{}{"version": "1"}
			actual := map[string]interface{}{"version": float64(1)}

			diff := DiffTrees(desired, actual)

			Expect(diff.Removed).To(HaveKeyWithValue("version", "1"))
		})

		It("should compare list values by their JSON form", func() {
			desired := map[string]interface{}{"filter": []interface{}{"lowercase", "stop"}}
			actual := map[string]interface{}{"filter": []interface{}{"lowercase"}}

			diff := DiffTrees(desired, actual)

			Expect(diff.Removed).To(HaveKey("filter"))
		})
	})
})

func randomNestedTree(depth int) map[string]interface{} {
	tree := map[string]interface{}{
		fake.Word(): fake.Word(),
	}
	if depth > 0 {
		tree[fake.Word()] = randomNestedTree(depth - 1)
	}

	return tree
}
