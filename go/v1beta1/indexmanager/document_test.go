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
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/rode/es-index-lifecycle/go/v1beta1/esutil"
)

var _ = Describe("document operations", func() {
	var (
		ctx             context.Context
		mockEsTransport *esutil.MockEsTransport
		manager         *EsIndexManager
		indexName       string
		documentId      string
	)

	BeforeEach(func() {
		ctx = context.Background()
		indexName = fake.LetterN(10)
		documentId = fake.UUID()
		mockEsTransport = &esutil.MockEsTransport{}
		manager = newTestManager(mockEsTransport)
	})

	Describe("GetDocument", func() {
		It("should return the document source", func() {
			expectedName := fake.Name()
			mockEsTransport.PreparedHttpResponses = []*http.Response{
				esutil.JsonResponse(http.StatusOK, &esutil.EsGetDocumentResponse{
					ID:     documentId,
					Found:  true,
					Source: json.RawMessage(fmt.Sprintf(`{"name":%q}`, expectedName)),
				}),
			}

			document, err := manager.GetDocument(ctx, indexName, documentId)

			Expect(err).ToNot(HaveOccurred())
			Expect(document).To(HaveKeyWithValue("name", expectedName))
			Expect(mockEsTransport.ReceivedHttpRequests[0].URL.Path).To(Equal(fmt.Sprintf("/%s/_doc/%s", indexName, documentId)))
		})

		It("should distinguish a missing document from a transport failure", func() {
			mockEsTransport.PreparedHttpResponses = []*http.Response{statusResponse(http.StatusNotFound)}

			_, err := manager.GetDocument(ctx, indexName, documentId)

			Expect(err).To(MatchError(ErrDocumentNotFound))
		})

		It("should treat found=false as a missing document", func() {
			mockEsTransport.PreparedHttpResponses = []*http.Response{
				esutil.JsonResponse(http.StatusOK, &esutil.EsGetDocumentResponse{ID: documentId, Found: false}),
			}

			_, err := manager.GetDocument(ctx, indexName, documentId)

			Expect(err).To(MatchError(ErrDocumentNotFound))
		})

		It("should not collapse a server failure into not found", func() {
			mockEsTransport.PreparedHttpResponses = []*http.Response{statusResponse(http.StatusInternalServerError)}

			_, err := manager.GetDocument(ctx, indexName, documentId)

			Expect(err).To(HaveOccurred())
			Expect(err).NotTo(MatchError(ErrDocumentNotFound))
		})
	})

	Describe("MultiGetDocuments", func() {
		It("should omit missing documents from the result", func() {
			foundId := fake.UUID()
			missingId := fake.UUID()
			mockEsTransport.PreparedHttpResponses = []*http.Response{
				esutil.JsonResponse(http.StatusOK, &esutil.EsMultiGetResponse{
					Docs: []*esutil.EsMultiGetDocument{
						{ID: foundId, Found: true, Source: json.RawMessage(`{"kind":"note"}`)},
						{ID: missingId, Found: false},
					},
				}),
			}

			documents, err := manager.MultiGetDocuments(ctx, indexName, []string{foundId, missingId})

			Expect(err).ToNot(HaveOccurred())
			Expect(documents).To(HaveLen(1))
			Expect(documents[foundId]).To(HaveKeyWithValue("kind", "note"))
			Expect(documents).NotTo(HaveKey(missingId))

			mgetRequest := mockEsTransport.ReceivedHttpRequests[0]
			Expect(mgetRequest.URL.Path).To(Equal(fmt.Sprintf("/%s/_mget", indexName)))

			body := map[string][]string{}
			readRequestBody(mgetRequest, &body)
			Expect(body["ids"]).To(Equal([]string{foundId, missingId}))
		})
	})

	Describe("DeleteDocument", func() {
		It("should delete by ID", func() {
			mockEsTransport.PreparedHttpResponses = []*http.Response{statusResponse(http.StatusOK)}

			Expect(manager.DeleteDocument(ctx, indexName, documentId)).To(Succeed())

			deleteRequest := mockEsTransport.ReceivedHttpRequests[0]
			Expect(deleteRequest.Method).To(Equal(http.MethodDelete))
			Expect(deleteRequest.URL.Path).To(Equal(fmt.Sprintf("/%s/_doc/%s", indexName, documentId)))
		})

		It("should report a missing document", func() {
			mockEsTransport.PreparedHttpResponses = []*http.Response{statusResponse(http.StatusNotFound)}

			err := manager.DeleteDocument(ctx, indexName, documentId)

			Expect(err).To(MatchError(ErrDocumentNotFound))
		})
	})

	Describe("CountDocuments", func() {
		It("should return the document count", func() {
			expectedCount := fake.Number(1, 10000)
			mockEsTransport.PreparedHttpResponses = []*http.Response{
				esutil.JsonResponse(http.StatusOK, &esutil.EsCountResponse{Count: expectedCount}),
			}

			count, err := manager.CountDocuments(ctx, indexName)

			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(expectedCount))
			Expect(mockEsTransport.ReceivedHttpRequests[0].URL.Path).To(Equal(fmt.Sprintf("/%s/_count", indexName)))
		})

		It("should surface an engine failure", func() {
			mockEsTransport.PreparedHttpResponses = []*http.Response{statusResponse(http.StatusInternalServerError)}

			_, err := manager.CountDocuments(ctx, indexName)

			Expect(err).To(HaveOccurred())
		})
	})
})
