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
	"errors"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/rode/es-index-lifecycle/go/config"
	"github.com/rode/es-index-lifecycle/go/v1beta1/esutil"
	"go.uber.org/zap"
)

const (
	versionSeparator     = "-"
	defaultBulkBatchSize = 100
	defaultPollAttempts  = 10
	defaultPollInterval  = time.Second * 10
)

// IndexSchema is the desired shape of an index. Mappings may carry a
// top-level "mappings" envelope; Settings may use the engine's nested or
// dotted-key form. A physical index's schema is immutable once created.
type IndexSchema struct {
	Mappings map[string]interface{}
	Settings map[string]interface{}
}

type PrepareIndexOptions struct {
	// UseAlias keeps the logical name as an alias over suffixed physical
	// index versions, enabling zero-downtime schema changes.
	UseAlias bool
	// ReindexData copies documents into the new version and switches the
	// alias when schema drift is found. Requires UseAlias.
	ReindexData bool
	// Aliases are additional alias names to attach.
	Aliases []string
}

// Document is a schemaless record. The meta fields _id, _type, _routing,
// _parent and _ttl are promoted into the bulk action header and stripped
// from the indexed payload.
type Document map[string]interface{}

// Voter decides the fate of a document during a cleanup sweep.
type Voter interface {
	// Keep reports whether the document should survive the sweep.
	Keep(hit *esutil.EsSearchResponseHit) bool
}

type IndexManager interface {
	PrepareIndex(ctx context.Context, logicalName string, schema *IndexSchema, options *PrepareIndexOptions) (string, error)
	CreateIndex(ctx context.Context, name string, schema *IndexSchema, aliases []string) error
	CreateNewIndexVersion(ctx context.Context, logicalName string, schema *IndexSchema) (string, error)
	SwitchAlias(ctx context.Context, logicalName, newPhysicalName string, extraAliases []string) error

	DiffMappings(ctx context.Context, name string, desired map[string]interface{}) (*TreeDiff, error)
	DiffIndexSettings(ctx context.Context, name string, desired map[string]interface{}) (*TreeDiff, error)

	GetCurrentVersionName(ctx context.Context, logicalName string) (string, error)
	GetAliases(ctx context.Context, realIndexName string) ([]string, error)
	IsRealIndex(ctx context.Context, name string) (bool, error)
	IsAlias(ctx context.Context, name string) (bool, error)
	NextVersionName(ctx context.Context, logicalName string) (string, error)

	BulkIndex(ctx context.Context, indexName string, documents []Document) ([]string, error)
	Cleanup(ctx context.Context, indexName string, voter Voter, options *esutil.ScrollOptions) error

	GetDocument(ctx context.Context, indexName, documentId string) (Document, error)
	MultiGetDocuments(ctx context.Context, indexName string, documentIds []string) (map[string]Document, error)
	DeleteDocument(ctx context.Context, indexName, documentId string) error
	CountDocuments(ctx context.Context, indexName string) (int, error)
}

type EsIndexManager struct {
	logger   *zap.Logger
	client   *elasticsearch.Client
	scroller esutil.Scroller
	refresh  config.RefreshOption

	bulkBatchSize int
	pollAttempts  int
	pollInterval  time.Duration
}

func NewEsIndexManager(logger *zap.Logger, client *elasticsearch.Client, scroller esutil.Scroller, c *config.ElasticsearchConfig) *EsIndexManager {
	refresh := config.RefreshOption(config.RefreshTrue)
	if c != nil && c.Refresh != "" {
		refresh = c.Refresh
	}

	return &EsIndexManager{
		logger:        logger,
		client:        client,
		scroller:      scroller,
		refresh:       refresh,
		bulkBatchSize: defaultBulkBatchSize,
		pollAttempts:  defaultPollAttempts,
		pollInterval:  defaultPollInterval,
	}
}

var (
	// ErrIndexNotFound indicates that no index or alias with the given name exists.
	ErrIndexNotFound = errors.New("index not found")
	// ErrAmbiguousAlias indicates an alias pointing at more than one physical
	// index, violating the single-version invariant. Callers must not pick one.
	ErrAmbiguousAlias = errors.New("alias resolves to more than one index")
	// ErrImmutableSchema indicates schema drift on a non-aliased index, which
	// cannot be fixed in place because the engine forbids mutating mappings
	// and analysis settings after index creation.
	ErrImmutableSchema = errors.New("schema drift on non-aliased index cannot be reconciled in place")
	// ErrNotARealIndex indicates that the supplied name resolves to an alias
	// where a physical index name was required.
	ErrNotARealIndex = errors.New("name resolves to an alias, not a real index")
	// ErrDocumentNotFound indicates a missing document, as opposed to a
	// transport failure reaching the engine.
	ErrDocumentNotFound = errors.New("document not found")
)
