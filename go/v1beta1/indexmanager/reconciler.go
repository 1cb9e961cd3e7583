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
	"time"

	"github.com/rode/es-index-lifecycle/go/v1beta1/esutil"
	"go.uber.org/zap"
)

// PrepareIndex brings the live state of a logical index in line with the
// desired schema. It returns the physical index name serving the logical
// name after reconciliation:
//
//   - nothing with the name exists: a new index is created, either directly
//     under the logical name or, with UseAlias, as version 0 behind the
//     logical alias
//   - the live schema matches: the current physical name is returned and
//     nothing is changed
//   - the schema drifted and UseAlias+ReindexData are set: a new version is
//     created, documents are copied server-side, and the alias is switched
//     atomically
//   - the schema drifted and only UseAlias is set: a new empty version is
//     created but the alias is left alone so the caller can migrate data
//     out-of-band before switching
//   - the schema drifted on a non-aliased index: ErrImmutableSchema, since
//     the engine cannot change mappings or analysis in place
func (em *EsIndexManager) PrepareIndex(ctx context.Context, logicalName string, schema *IndexSchema, options *PrepareIndexOptions) (string, error) {
	log := em.logger.Named("PrepareIndex").With(zap.String("index", logicalName))

	if schema == nil {
		schema = &IndexSchema{}
	}
	if options == nil {
		options = &PrepareIndexOptions{}
	}

	exists, err := em.indexExists(ctx, logicalName)
	if err != nil {
		return "", err
	}

	if !exists {
		if options.UseAlias {
			newIndexName, err := em.NextVersionName(ctx, logicalName)
			if err != nil {
				return "", err
			}

			aliases := append([]string{logicalName}, options.Aliases...)
			if err := em.CreateIndex(ctx, newIndexName, schema, aliases); err != nil {
				return "", err
			}

			log.Info("created initial index version", zap.String("version", newIndexName))
			return newIndexName, nil
		}

		if err := em.CreateIndex(ctx, logicalName, schema, options.Aliases); err != nil {
			return "", err
		}

		log.Info("created index")
		return logicalName, nil
	}

	drift, err := em.schemaDrift(ctx, logicalName, schema)
	if err != nil {
		return "", err
	}

	if drift.Empty() {
		log.Debug("live schema matches desired schema")
		return em.GetCurrentVersionName(ctx, logicalName)
	}

	log.Info("schema drift detected",
		zap.Any("added", drift.Added),
		zap.Any("removed", drift.Removed))

	if options.UseAlias && options.ReindexData {
		return em.reindexToNewVersion(ctx, logicalName, schema, options.Aliases)
	}

	if options.UseAlias {
		newIndexName, err := em.CreateNewIndexVersion(ctx, logicalName, schema)
		if err != nil {
			return "", err
		}

		log.Warn("new index version created without data; aliases intentionally left unset until migration completes",
			zap.String("version", newIndexName))
		return newIndexName, nil
	}

	return "", ErrImmutableSchema
}

// CreateIndex creates a physical index with the desired schema and attaches
// the given aliases in the creation request. An index that already exists is
// not an error.
func (em *EsIndexManager) CreateIndex(ctx context.Context, name string, schema *IndexSchema, aliases []string) error {
	log := em.logger.Named("CreateIndex").With(zap.String("index", name))

	if schema == nil {
		schema = &IndexSchema{}
	}

	createIndexReq := map[string]interface{}{}
	if mappings := unwrapMappings(schema.Mappings); len(mappings) != 0 {
		createIndexReq["mappings"] = mappings
	}
	if len(schema.Settings) != 0 {
		createIndexReq["settings"] = schema.Settings
	}
	if len(aliases) != 0 {
		aliasesBody := map[string]interface{}{}
		for _, alias := range aliases {
			aliasesBody[alias] = map[string]interface{}{}
		}
		createIndexReq["aliases"] = aliasesBody
	}

	res, err := em.client.Indices.Create(
		name,
		em.client.Indices.Create.WithContext(ctx),
		em.client.Indices.Create.WithBody(esutil.EncodeRequest(&createIndexReq)),
	)
	if err != nil {
		return fmt.Errorf("error creating index %s: %s", name, err)
	}

	if res.IsError() {
		if res.StatusCode == http.StatusBadRequest {
			errResponse := esutil.EsErrorResponse{}
			if err := esutil.DecodeResponse(res.Body, &errResponse); err != nil {
				return err
			}

			if errResponse.Error.Type == "resource_already_exists_exception" {
				log.Info("index already exists")
				return nil
			}
		}

		return fmt.Errorf("error creating index, status: %d", res.StatusCode)
	}

	log.Info("index created")

	return nil
}

// CreateNewIndexVersion mints the next version name for a logical index and
// creates it with the desired schema, without data and without aliases.
func (em *EsIndexManager) CreateNewIndexVersion(ctx context.Context, logicalName string, schema *IndexSchema) (string, error) {
	newIndexName, err := em.NextVersionName(ctx, logicalName)
	if err != nil {
		return "", err
	}

	if err := em.CreateIndex(ctx, newIndexName, schema, nil); err != nil {
		return "", err
	}

	return newIndexName, nil
}

// DiffMappings compares the desired mappings against the live mappings of an
// index or alias.
func (em *EsIndexManager) DiffMappings(ctx context.Context, name string, desired map[string]interface{}) (*TreeDiff, error) {
	res, err := em.client.Indices.GetMapping(
		em.client.Indices.GetMapping.WithContext(ctx),
		em.client.Indices.GetMapping.WithIndex(name),
	)
	if err != nil {
		return nil, fmt.Errorf("error fetching mappings for %s: %s", name, err)
	}
	if res.StatusCode == http.StatusNotFound {
		return nil, ErrIndexNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("unexpected status code (%d) fetching mappings for %s", res.StatusCode, name)
	}

	response := esutil.EsGetMappingResponse{}
	if err := esutil.DecodeResponse(res.Body, &response); err != nil {
		return nil, err
	}

	entry, err := singleIndexEntry(name, response)
	if err != nil {
		return nil, err
	}

	return DiffTrees(unwrapMappings(desired), entry.Mappings), nil
}

// DiffIndexSettings compares the desired settings against the live settings
// of an index or alias, restricted to the reindex-sensitive subset.
func (em *EsIndexManager) DiffIndexSettings(ctx context.Context, name string, desired map[string]interface{}) (*TreeDiff, error) {
	res, err := em.client.Indices.GetSettings(
		em.client.Indices.GetSettings.WithContext(ctx),
		em.client.Indices.GetSettings.WithIndex(name),
	)
	if err != nil {
		return nil, fmt.Errorf("error fetching settings for %s: %s", name, err)
	}
	if res.StatusCode == http.StatusNotFound {
		return nil, ErrIndexNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("unexpected status code (%d) fetching settings for %s", res.StatusCode, name)
	}

	response := esutil.EsGetSettingsResponse{}
	if err := esutil.DecodeResponse(res.Body, &response); err != nil {
		return nil, err
	}

	var live map[string]interface{}
	for index := range response {
		if len(response) > 1 {
			return nil, ErrAmbiguousAlias
		}
		live = response[index].Settings
	}

	desiredSensitive := ReindexSensitiveSettings(NormalizeSettings(desired))
	liveSensitive := ReindexSensitiveSettings(NormalizeSettings(live))

	return DiffTrees(desiredSensitive, liveSensitive), nil
}

func (em *EsIndexManager) schemaDrift(ctx context.Context, name string, schema *IndexSchema) (*TreeDiff, error) {
	settingsDiff, err := em.DiffIndexSettings(ctx, name, schema.Settings)
	if err != nil {
		return nil, err
	}

	mappingsDiff, err := em.DiffMappings(ctx, name, schema.Mappings)
	if err != nil {
		return nil, err
	}

	return mergeDiffs(settingsDiff, mappingsDiff), nil
}

// reindexToNewVersion creates the next index version with the desired schema,
// copies every document from the current version server-side, and switches
// the logical alias over. A reindex failure is fatal to the call; no partial
// copy recovery happens at this layer.
func (em *EsIndexManager) reindexToNewVersion(ctx context.Context, logicalName string, schema *IndexSchema, extraAliases []string) (string, error) {
	log := em.logger.Named("reindexToNewVersion").With(zap.String("index", logicalName))

	sourceIndex, err := em.GetCurrentVersionName(ctx, logicalName)
	if err != nil {
		return "", err
	}

	newIndexName, err := em.CreateNewIndexVersion(ctx, logicalName, schema)
	if err != nil {
		return "", err
	}

	log.Info("starting reindex", zap.String("source", sourceIndex), zap.String("destination", newIndexName))

	reindexReq := &esutil.EsReindex{
		Conflicts:   "proceed",
		Source:      &esutil.ReindexFields{Index: sourceIndex},
		Destination: &esutil.ReindexFields{Index: newIndexName, OpType: "create"},
	}

	res, err := em.client.Reindex(
		esutil.EncodeRequest(reindexReq),
		em.client.Reindex.WithContext(ctx),
		em.client.Reindex.WithWaitForCompletion(false),
	)
	if err := esutil.GetErrorFromESResponse(res, err); err != nil {
		return "", err
	}

	taskCreationResponse := &esutil.EsTaskCreationResponse{}
	if err := esutil.DecodeResponse(res.Body, taskCreationResponse); err != nil {
		return "", err
	}

	if err := em.waitForTask(ctx, taskCreationResponse.Task); err != nil {
		return "", err
	}

	log.Info("reindex completed", zap.String("destination", newIndexName))

	if err := em.SwitchAlias(ctx, logicalName, newIndexName, extraAliases); err != nil {
		return "", err
	}

	return newIndexName, nil
}

func (em *EsIndexManager) waitForTask(ctx context.Context, taskId string) error {
	log := em.logger.Named("waitForTask").With(zap.String("taskId", taskId))

	completed := false
	for i := 0; i < em.pollAttempts; i++ {
		res, err := em.client.Tasks.Get(taskId, em.client.Tasks.Get.WithContext(ctx))
		if err := esutil.GetErrorFromESResponse(res, err); err != nil {
			return err
		}

		task := &esutil.EsTask{}
		if err := esutil.DecodeResponse(res.Body, task); err != nil {
			return err
		}

		if task.Completed {
			completed = true
			break
		}

		log.Debug("task incomplete, waiting before polling again")
		time.Sleep(em.pollInterval)
	}

	if !completed {
		return fmt.Errorf("task %s did not complete after %d polls", taskId, em.pollAttempts)
	}

	// the tasks API leaves a document behind for completed tasks
	res, err := em.client.Delete(".tasks", taskId, em.client.Delete.WithContext(ctx))
	if err := esutil.GetErrorFromESResponse(res, err); err != nil {
		log.Warn("error deleting task document", zap.Error(err))
	}

	return nil
}

// SwitchAlias repoints a logical name at a new physical index version in a
// single atomic alias-actions batch. Aliases previously attached to the old
// version, plus extraAliases, move over with it. When the logical name was a
// real index rather than an alias, the old index is deleted inside the same
// batch, since the name cannot be both an index and an alias.
func (em *EsIndexManager) SwitchAlias(ctx context.Context, logicalName, newPhysicalName string, extraAliases []string) error {
	log := em.logger.Named("SwitchAlias").With(
		zap.String("index", logicalName),
		zap.String("newVersion", newPhysicalName))

	var (
		oldVersion string
		oldAliases []string
	)

	targets, err := em.resolveAliasTargets(ctx, logicalName)
	switch {
	case err == nil:
		if len(targets) > 1 {
			return ErrAmbiguousAlias
		}
		oldVersion = targets[0]

		oldAliases, err = em.GetAliases(ctx, oldVersion)
		if err != nil {
			return err
		}
	case err == ErrIndexNotFound:
		// no alias; the logical name may still be a real index
		exists, existsErr := em.indexExists(ctx, logicalName)
		if existsErr != nil {
			return existsErr
		}
		if exists {
			oldVersion = logicalName

			oldAliases, err = em.GetAliases(ctx, oldVersion)
			if err != nil {
				return err
			}
		}
	default:
		return err
	}

	var actions []esutil.EsActions

	oldVersionIsRealIndex := oldVersion == logicalName && oldVersion != ""
	switch {
	case oldVersionIsRealIndex:
		// the logical name is about to become an alias; it cannot stay an index
		actions = append(actions, esutil.EsActions{RemoveIndex: &esutil.EsRemoveIndex{Index: oldVersion}})
	case oldVersion != "":
		actions = append(actions, esutil.EsActions{Remove: &esutil.EsIndexAlias{Index: oldVersion, Alias: logicalName}})
	}

	actions = append(actions, esutil.EsActions{Add: &esutil.EsIndexAlias{Index: newPhysicalName, Alias: logicalName}})

	wasOnOldVersion := map[string]bool{}
	for _, alias := range oldAliases {
		wasOnOldVersion[alias] = true
	}

	for _, alias := range dedupeAliases(oldAliases, extraAliases) {
		if alias == logicalName {
			continue
		}

		actions = append(actions, esutil.EsActions{Add: &esutil.EsIndexAlias{Index: newPhysicalName, Alias: alias}})
		if wasOnOldVersion[alias] && !oldVersionIsRealIndex && oldVersion != "" {
			actions = append(actions, esutil.EsActions{Remove: &esutil.EsIndexAlias{Index: oldVersion, Alias: alias}})
		}
	}

	// one request: the engine applies the whole batch atomically, so no
	// client-observable state ever has the alias half-moved
	res, err := em.client.Indices.UpdateAliases(
		esutil.EncodeRequest(&esutil.EsIndexAliasRequest{Actions: actions}),
		em.client.Indices.UpdateAliases.WithContext(ctx),
	)
	if err := esutil.GetErrorFromESResponse(res, err); err != nil {
		return err
	}

	log.Info("alias switched", zap.String("oldVersion", oldVersion))

	return nil
}

func dedupeAliases(groups ...[]string) []string {
	seen := map[string]bool{}
	var deduped []string

	for _, group := range groups {
		for _, alias := range group {
			if seen[alias] {
				continue
			}
			seen[alias] = true
			deduped = append(deduped, alias)
		}
	}

	return deduped
}

func unwrapMappings(mappings map[string]interface{}) map[string]interface{} {
	if envelope, ok := mappings["mappings"].(map[string]interface{}); ok {
		return envelope
	}

	return mappings
}

func singleIndexEntry(name string, response esutil.EsGetMappingResponse) (*esutil.EsIndexMappingsEntry, error) {
	if len(response) == 0 {
		return nil, ErrIndexNotFound
	}
	if len(response) > 1 {
		return nil, ErrAmbiguousAlias
	}

	for index := range response {
		entry := response[index]
		return &entry, nil
	}

	// unreachable
	return nil, fmt.Errorf("no mapping entry for %s", name)
}
