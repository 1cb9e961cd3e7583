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

package esutil

import "encoding/json"

// Elasticsearch GET /_alias/$ALIAS and GET /$INDEX/_alias responses.
// Both are keyed by the real index name.

type EsIndexAliasEntry struct {
	Aliases map[string]interface{} `json:"aliases"`
}

type EsGetAliasResponse map[string]EsIndexAliasEntry

// Elasticsearch GET /$INDEX/_settings response

type EsIndexSettingsEntry struct {
	Settings map[string]interface{} `json:"settings"`
}

type EsGetSettingsResponse map[string]EsIndexSettingsEntry

// Elasticsearch GET /$INDEX/_mapping response

type EsIndexMappingsEntry struct {
	Mappings map[string]interface{} `json:"mappings"`
}

type EsGetMappingResponse map[string]EsIndexMappingsEntry

// Elasticsearch POST /_aliases request. All actions in a single request are
// applied atomically by the cluster; remove_index deletes the named index as
// part of the same batch.

type EsActions struct {
	Add         *EsIndexAlias  `json:"add,omitempty"`
	Remove      *EsIndexAlias  `json:"remove,omitempty"`
	RemoveIndex *EsRemoveIndex `json:"remove_index,omitempty"`
}

type EsIndexAlias struct {
	Index string `json:"index"`
	Alias string `json:"alias"`
}

type EsRemoveIndex struct {
	Index string `json:"index"`
}

type EsIndexAliasRequest struct {
	Actions []EsActions `json:"actions"`
}

// Elasticsearch POST /_reindex request

type EsReindex struct {
	Conflicts   string         `json:"conflicts"`
	Source      *ReindexFields `json:"source"`
	Destination *ReindexFields `json:"dest"`
}

type ReindexFields struct {
	Index  string `json:"index"`
	OpType string `json:"op_type,omitempty"`
}

// response for calls where wait_for_completion=false
type EsTaskCreationResponse struct {
	Task string `json:"task"`
}

// /_tasks/$TASK_ID response
type EsTask struct {
	Completed bool `json:"completed"`
}

// Elasticsearch /_bulk action header. Meta fields present on a document are
// promoted here and stripped from the source payload.

type EsBulkQueryFragment struct {
	Index *EsBulkQueryIndexFragment `json:"index"`
}

type EsBulkQueryIndexFragment struct {
	Index   string `json:"_index"`
	Id      string `json:"_id,omitempty"`
	Type    string `json:"_type,omitempty"`
	Routing string `json:"_routing,omitempty"`
	Parent  string `json:"_parent,omitempty"`
	Ttl     string `json:"_ttl,omitempty"`
}

// Elasticsearch /_bulk response

type EsBulkResponse struct {
	Took   int                   `json:"took"`
	Errors bool                  `json:"errors"`
	Items  []*EsBulkResponseItem `json:"items"`
}

type EsBulkResponseItem struct {
	Index *EsIndexDocResponse `json:"index,omitempty"`
}

type EsIndexDocResponse struct {
	Index  string           `json:"_index"`
	Id     string           `json:"_id"`
	Status int              `json:"status"`
	Shards *EsShardsInfo    `json:"_shards,omitempty"`
	Error  *EsIndexDocError `json:"error,omitempty"`
}

type EsShardsInfo struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type EsIndexDocError struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// Elasticsearch /_search and /_search/scroll responses

type EsSearchResponse struct {
	Took     int                   `json:"took"`
	ScrollId string                `json:"_scroll_id,omitempty"`
	Hits     *EsSearchResponseHits `json:"hits"`
}

type EsSearchResponseHits struct {
	Total *EsSearchResponseTotal `json:"total"`
	Hits  []*EsSearchResponseHit `json:"hits"`
}

type EsSearchResponseTotal struct {
	Value int `json:"value"`
}

type EsSearchResponseHit struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Source json.RawMessage `json:"_source"`
}

// Elasticsearch /$INDEX/_count response

type EsCountResponse struct {
	Count int `json:"count"`
}

// Elasticsearch GET /$INDEX/_doc/$ID response

type EsGetDocumentResponse struct {
	ID     string          `json:"_id"`
	Found  bool            `json:"found"`
	Source json.RawMessage `json:"_source"`
}

// Elasticsearch /_mget response

type EsMultiGetResponse struct {
	Docs []*EsMultiGetDocument `json:"docs"`
}

type EsMultiGetDocument struct {
	ID     string          `json:"_id"`
	Found  bool            `json:"found"`
	Source json.RawMessage `json:"_source"`
}

// Elasticsearch 4xx error response

type EsErrorResponse struct {
	Error EsError `json:"error"`
}

type EsError struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}
