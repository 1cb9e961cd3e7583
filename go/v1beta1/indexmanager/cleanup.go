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
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/rode/es-index-lifecycle/go/v1beta1/esutil"
	"go.uber.org/zap"
)

// Cleanup streams every document in an index through the voter and deletes
// the ones it rejects, one delete per document. The sweep is best-effort: a
// failed delete is skipped and the sweep continues, with all failures
// aggregated into the returned error.
func (em *EsIndexManager) Cleanup(ctx context.Context, indexName string, voter Voter, options *esutil.ScrollOptions) error {
	log := em.logger.Named("Cleanup").With(zap.String("index", indexName))

	var (
		sweepErr *multierror.Error
		deleted  int
	)

	err := em.scroller.Scroll(ctx, indexName, options, func(hit *esutil.EsSearchResponseHit) error {
		if voter.Keep(hit) {
			return nil
		}

		res, err := em.client.Delete(hit.Index, hit.ID, em.client.Delete.WithContext(ctx))
		if err := esutil.GetErrorFromESResponse(res, err); err != nil {
			log.Warn("error deleting document", zap.String("id", hit.ID), zap.Error(err))
			sweepErr = multierror.Append(sweepErr, fmt.Errorf("error deleting document %s: %s", hit.ID, err))
			return nil
		}

		deleted++
		log.Debug("deleted document", zap.String("id", hit.ID), zap.Int("deleted", deleted))

		return nil
	})
	if err != nil {
		sweepErr = multierror.Append(sweepErr, err)
	}

	log.Info("cleanup sweep finished", zap.Int("deleted", deleted))

	return sweepErr.ErrorOrNil()
}
