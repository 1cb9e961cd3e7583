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

import (
	"context"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"go.uber.org/zap"
)

const (
	defaultScrollPageSize  = 100
	defaultScrollKeepalive = time.Minute
)

type ScrollOptions struct {
	// Query restricts the scan; nil means every document in the index.
	Query map[string]interface{}
	// Fields limits the _source payload of each hit to the named fields.
	Fields    []string
	PageSize  int
	Keepalive time.Duration
}

// Scroller streams every hit of a cursor-based full index scan to a callback.
// The sequence is finite and not restartable; the server-side cursor is
// released when the scan is exhausted or the callback returns an error.
type Scroller interface {
	Scroll(ctx context.Context, index string, options *ScrollOptions, each func(hit *EsSearchResponseHit) error) error
}

type EsScroller struct {
	logger *zap.Logger
	client *elasticsearch.Client
}

func NewEsScroller(logger *zap.Logger, client *elasticsearch.Client) *EsScroller {
	return &EsScroller{
		logger: logger,
		client: client,
	}
}

func (s *EsScroller) Scroll(ctx context.Context, index string, options *ScrollOptions, each func(hit *EsSearchResponseHit) error) error {
	log := s.logger.Named("Scroll").With(zap.String("index", index))

	if options == nil {
		options = &ScrollOptions{}
	}

	pageSize := options.PageSize
	if pageSize == 0 {
		pageSize = defaultScrollPageSize
	}
	keepalive := options.Keepalive
	if keepalive == 0 {
		keepalive = defaultScrollKeepalive
	}

	body := map[string]interface{}{}
	if options.Query != nil {
		body["query"] = options.Query
	}
	if len(options.Fields) != 0 {
		body["_source"] = options.Fields
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(index),
		s.client.Search.WithSize(pageSize),
		s.client.Search.WithScroll(keepalive),
		s.client.Search.WithBody(EncodeRequest(body)),
	)
	if err := GetErrorFromESResponse(res, err); err != nil {
		return err
	}

	searchResults := &EsSearchResponse{}
	if err := DecodeResponse(res.Body, searchResults); err != nil {
		return err
	}

	// the engine may rotate the cursor id between pages; release whichever
	// id is current when the scan ends
	scrollId := searchResults.ScrollId
	defer func() {
		s.clearScroll(ctx, log, scrollId)
	}()

	for len(searchResults.Hits.Hits) != 0 {
		for _, hit := range searchResults.Hits.Hits {
			if err := each(hit); err != nil {
				return err
			}
		}

		res, err := s.client.Scroll(
			s.client.Scroll.WithContext(ctx),
			s.client.Scroll.WithScrollID(scrollId),
			s.client.Scroll.WithScroll(keepalive),
		)
		if err := GetErrorFromESResponse(res, err); err != nil {
			return err
		}

		searchResults = &EsSearchResponse{}
		if err := DecodeResponse(res.Body, searchResults); err != nil {
			return err
		}

		scrollId = searchResults.ScrollId
	}

	return nil
}

func (s *EsScroller) clearScroll(ctx context.Context, log *zap.Logger, scrollId string) {
	if scrollId == "" {
		return
	}

	res, err := s.client.ClearScroll(
		s.client.ClearScroll.WithContext(ctx),
		s.client.ClearScroll.WithScrollID(scrollId),
	)
	if err := GetErrorFromESResponse(res, err); err != nil {
		log.Warn("error clearing scroll cursor", zap.Error(err))
	}
}
