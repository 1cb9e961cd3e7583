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
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rode/es-index-lifecycle/go/v1beta1/esutil"
	"go.uber.org/zap"
)

// BulkIndex upserts documents into an index in batches using the engine's
// "_bulk" API: https://www.elastic.co/guide/en/elasticsearch/reference/current/docs-bulk.html
// It returns the IDs of successfully indexed documents in input order. A
// document that fails to index is logged and excluded from the result, but
// does not abort the remaining batches; a document counts as indexed if at
// least one shard copy succeeded, even when the engine flags the batch as
// having errors.
func (em *EsIndexManager) BulkIndex(ctx context.Context, indexName string, documents []Document) ([]string, error) {
	log := em.logger.Named("BulkIndex").With(zap.String("index", indexName))

	var (
		indexedIds []string
		body       bytes.Buffer
		batched    int
	)

	flush := func() error {
		if batched == 0 {
			return nil
		}

		ids, err := em.flushBulkBatch(ctx, log, &body)
		if err != nil {
			return err
		}

		indexedIds = append(indexedIds, ids...)
		body.Reset()
		batched = 0

		return nil
	}

	for _, document := range documents {
		header, payload, err := splitBulkDocument(indexName, document)
		if err != nil {
			return indexedIds, err
		}

		// build the batch as newline delimited JSON (ndjson): an action
		// header line followed by the source payload line, per document
		body.Write(header)
		body.WriteString("\n")
		body.Write(payload)
		body.WriteString("\n")
		batched++

		if batched == em.bulkBatchSize {
			if err := flush(); err != nil {
				return indexedIds, err
			}
		}
	}

	if err := flush(); err != nil {
		return indexedIds, err
	}

	return indexedIds, nil
}

func (em *EsIndexManager) flushBulkBatch(ctx context.Context, log *zap.Logger, body *bytes.Buffer) ([]string, error) {
	res, err := em.client.Bulk(
		bytes.NewReader(body.Bytes()),
		em.client.Bulk.WithContext(ctx),
		em.client.Bulk.WithRefresh(em.refresh.String()),
	)
	if err := esutil.GetErrorFromESResponse(res, err); err != nil {
		return nil, err
	}

	response := &esutil.EsBulkResponse{}
	if err := esutil.DecodeResponse(res.Body, response); err != nil {
		return nil, err
	}

	var ids []string
	for _, item := range response.Items {
		doc := item.Index
		if doc == nil {
			continue
		}

		if bulkItemSucceeded(response, doc) {
			ids = append(ids, doc.Id)
			continue
		}

		log.Warn("document failed to index",
			zap.String("index", doc.Index),
			zap.String("id", doc.Id),
			zap.String("errorType", doc.Error.Type),
			zap.String("reason", doc.Error.Reason))
	}

	return ids, nil
}

// bulkItemSucceeded treats a document as indexed when the item carries no
// error, or when at least one shard copy accepted it despite the batch-level
// errors flag.
func bulkItemSucceeded(response *esutil.EsBulkResponse, doc *esutil.EsIndexDocResponse) bool {
	if !response.Errors || doc.Error == nil {
		return true
	}

	return doc.Shards != nil && doc.Shards.Successful > 0
}

// splitBulkDocument strips the meta fields from a document and promotes them
// into the bulk action header.
func splitBulkDocument(indexName string, document Document) (header []byte, payload []byte, err error) {
	fragment := &esutil.EsBulkQueryIndexFragment{Index: indexName}
	source := map[string]interface{}{}

	for key, value := range document {
		switch key {
		case "_id":
			fragment.Id = metaFieldString(value)
		case "_type":
			fragment.Type = metaFieldString(value)
		case "_routing":
			fragment.Routing = metaFieldString(value)
		case "_parent":
			fragment.Parent = metaFieldString(value)
		case "_ttl":
			fragment.Ttl = metaFieldString(value)
		default:
			source[key] = value
		}
	}

	header, err = json.Marshal(&esutil.EsBulkQueryFragment{Index: fragment})
	if err != nil {
		return nil, nil, fmt.Errorf("error marshaling bulk action header: %s", err)
	}

	payload, err = json.Marshal(source)
	if err != nil {
		return nil, nil, fmt.Errorf("error marshaling document: %s", err)
	}

	return header, payload, nil
}

func metaFieldString(value interface{}) string {
	if s, ok := value.(string); ok {
		return s
	}

	return fmt.Sprintf("%v", value)
}
