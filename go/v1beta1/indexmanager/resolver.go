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
	"net/http"
	"sort"

	"github.com/rode/es-index-lifecycle/go/v1beta1/esutil"
	"go.uber.org/zap"
)

// IsAlias reports whether an alias with the given name exists, regardless of
// how many indices it points at.
func (em *EsIndexManager) IsAlias(ctx context.Context, name string) (bool, error) {
	res, err := em.client.Indices.ExistsAlias([]string{name}, em.client.Indices.ExistsAlias.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("error checking if alias %s exists: %s", name, err)
	}

	return existsFromStatus(res.StatusCode, fmt.Sprintf("alias %s", name))
}

// IsRealIndex reports whether the name refers to a physical index: an index
// with that exact name exists and no alias shares the name.
func (em *EsIndexManager) IsRealIndex(ctx context.Context, name string) (bool, error) {
	exists, err := em.indexExists(ctx, name)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	isAlias, err := em.IsAlias(ctx, name)
	if err != nil {
		return false, err
	}

	return !isAlias, nil
}

// GetCurrentVersionName resolves the physical index currently serving a
// logical name. When the logical name is itself a real index (versioning not
// yet adopted), the logical name is returned as-is. Returns ErrIndexNotFound
// when nothing with the name exists, and ErrAmbiguousAlias when the alias
// points at more than one index.
func (em *EsIndexManager) GetCurrentVersionName(ctx context.Context, logicalName string) (string, error) {
	log := em.logger.Named("GetCurrentVersionName").With(zap.String("index", logicalName))

	targets, err := em.resolveAliasTargets(ctx, logicalName)
	if err == ErrIndexNotFound {
		// pre-versioning state: the logical name may be a real index
		exists, err := em.indexExists(ctx, logicalName)
		if err != nil {
			return "", err
		}
		if !exists {
			return "", ErrIndexNotFound
		}

		return logicalName, nil
	}
	if err != nil {
		return "", err
	}

	if len(targets) > 1 {
		log.Error("alias points at multiple indices", zap.Strings("targets", targets))
		return "", ErrAmbiguousAlias
	}

	return targets[0], nil
}

// GetAliases returns the alias names attached to a real index. The caller
// must have resolved down to a physical name; passing an alias returns
// ErrNotARealIndex.
func (em *EsIndexManager) GetAliases(ctx context.Context, realIndexName string) ([]string, error) {
	isAlias, err := em.IsAlias(ctx, realIndexName)
	if err != nil {
		return nil, err
	}
	if isAlias {
		return nil, ErrNotARealIndex
	}

	res, err := em.client.Indices.GetAlias(
		em.client.Indices.GetAlias.WithContext(ctx),
		em.client.Indices.GetAlias.WithIndex(realIndexName),
	)
	if err != nil {
		return nil, fmt.Errorf("error fetching aliases for index %s: %s", realIndexName, err)
	}
	if res.StatusCode == http.StatusNotFound {
		return nil, ErrIndexNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("unexpected status code (%d) fetching aliases for index %s", res.StatusCode, realIndexName)
	}

	response := esutil.EsGetAliasResponse{}
	if err := esutil.DecodeResponse(res.Body, &response); err != nil {
		return nil, err
	}

	var aliases []string
	for alias := range response[realIndexName].Aliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	return aliases, nil
}

// resolveAliasTargets returns the real indices an alias points at, or
// ErrIndexNotFound when no such alias exists.
func (em *EsIndexManager) resolveAliasTargets(ctx context.Context, aliasName string) ([]string, error) {
	res, err := em.client.Indices.GetAlias(
		em.client.Indices.GetAlias.WithContext(ctx),
		em.client.Indices.GetAlias.WithName(aliasName),
	)
	if err != nil {
		return nil, fmt.Errorf("error resolving alias %s: %s", aliasName, err)
	}
	if res.StatusCode == http.StatusNotFound {
		return nil, ErrIndexNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("unexpected status code (%d) resolving alias %s", res.StatusCode, aliasName)
	}

	response := esutil.EsGetAliasResponse{}
	if err := esutil.DecodeResponse(res.Body, &response); err != nil {
		return nil, err
	}
	if len(response) == 0 {
		return nil, ErrIndexNotFound
	}

	var targets []string
	for index := range response {
		targets = append(targets, index)
	}
	sort.Strings(targets)

	return targets, nil
}

func (em *EsIndexManager) indexExists(ctx context.Context, name string) (bool, error) {
	res, err := em.client.Indices.Exists([]string{name}, em.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("error checking if index %s exists: %s", name, err)
	}

	return existsFromStatus(res.StatusCode, fmt.Sprintf("index %s", name))
}

func existsFromStatus(statusCode int, subject string) (bool, error) {
	switch statusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status code (%d) checking if %s exists", statusCode, subject)
	}
}
