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

	"github.com/rode/es-index-lifecycle/go/v1beta1/esutil"
)

// GetDocument fetches a single document by ID. A missing document returns
// ErrDocumentNotFound; transport and server failures surface as distinct
// errors rather than being collapsed into "not found".
func (em *EsIndexManager) GetDocument(ctx context.Context, indexName, documentId string) (Document, error) {
	res, err := em.client.Get(indexName, documentId, em.client.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("error fetching document %s: %s", documentId, err)
	}
	if res.StatusCode == http.StatusNotFound {
		return nil, ErrDocumentNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("unexpected status code (%d) fetching document %s", res.StatusCode, documentId)
	}

	response := &esutil.EsGetDocumentResponse{}
	if err := esutil.DecodeResponse(res.Body, response); err != nil {
		return nil, err
	}
	if !response.Found {
		return nil, ErrDocumentNotFound
	}

	return decodeDocument(response.Source)
}

// MultiGetDocuments fetches several documents by ID. Missing documents are
// simply absent from the result map; only transport and decode failures
// return an error.
func (em *EsIndexManager) MultiGetDocuments(ctx context.Context, indexName string, documentIds []string) (map[string]Document, error) {
	body := map[string]interface{}{"ids": documentIds}

	res, err := em.client.Mget(
		esutil.EncodeRequest(&body),
		em.client.Mget.WithContext(ctx),
		em.client.Mget.WithIndex(indexName),
	)
	if err := esutil.GetErrorFromESResponse(res, err); err != nil {
		return nil, err
	}

	response := &esutil.EsMultiGetResponse{}
	if err := esutil.DecodeResponse(res.Body, response); err != nil {
		return nil, err
	}

	documents := map[string]Document{}
	for _, doc := range response.Docs {
		if !doc.Found {
			continue
		}

		document, err := decodeDocument(doc.Source)
		if err != nil {
			return nil, err
		}
		documents[doc.ID] = document
	}

	return documents, nil
}

// DeleteDocument removes a single document by ID, returning
// ErrDocumentNotFound when it does not exist.
func (em *EsIndexManager) DeleteDocument(ctx context.Context, indexName, documentId string) error {
	res, err := em.client.Delete(indexName, documentId, em.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("error deleting document %s: %s", documentId, err)
	}
	if res.StatusCode == http.StatusNotFound {
		return ErrDocumentNotFound
	}
	if res.IsError() {
		return fmt.Errorf("unexpected status code (%d) deleting document %s", res.StatusCode, documentId)
	}

	return nil
}

// CountDocuments returns the number of documents in an index.
func (em *EsIndexManager) CountDocuments(ctx context.Context, indexName string) (int, error) {
	res, err := em.client.Count(
		em.client.Count.WithContext(ctx),
		em.client.Count.WithIndex(indexName),
	)
	if err := esutil.GetErrorFromESResponse(res, err); err != nil {
		return 0, err
	}

	response := &esutil.EsCountResponse{}
	if err := esutil.DecodeResponse(res.Body, response); err != nil {
		return 0, err
	}

	return response.Count, nil
}

func decodeDocument(source json.RawMessage) (Document, error) {
	document := Document{}
	if err := json.Unmarshal(source, &document); err != nil {
		return nil, fmt.Errorf("error unmarshalling document source: %s", err)
	}

	return document, nil
}
