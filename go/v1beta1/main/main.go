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

// Command reconcile-index applies a schema file to a logical index, creating
// or migrating physical index versions as needed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io/ioutil"
	"log"
	"os"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/rode/es-index-lifecycle/go/config"
	"github.com/rode/es-index-lifecycle/go/v1beta1/esutil"
	"github.com/rode/es-index-lifecycle/go/v1beta1/indexmanager"
	"go.uber.org/zap"
)

func main() {
	var (
		configFile  = flag.String("config", "", "path to an optional config file")
		indexName   = flag.String("index", "", "logical index name to reconcile")
		schemaFile  = flag.String("schema", "", "path to a JSON file holding the desired mappings and settings")
		useAlias    = flag.Bool("use-alias", true, "keep the logical name as an alias over versioned indices")
		reindexData = flag.Bool("reindex", false, "migrate documents into the new version when the schema drifted")
	)
	flag.Parse()

	_, debugEnabled := os.LookupEnv("DEBUG")
	logger, err := createLogger(debugEnabled)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	if *indexName == "" || *schemaFile == "" {
		logger.Fatal("both --index and --schema are required")
	}

	c, err := config.Load(*configFile)
	if err != nil {
		logger.Fatal("failed to load config", zap.NamedError("error", err))
	}

	esClient, err := createESClient(logger, c.URL, c.Username, c.Password)
	if err != nil {
		logger.Fatal("failed to connect to Elasticsearch", zap.NamedError("error", err))
	}

	schema, err := readSchema(*schemaFile)
	if err != nil {
		logger.Fatal("failed to read schema file", zap.NamedError("error", err))
	}

	manager := indexmanager.NewEsIndexManager(
		logger.Named("IndexManager"),
		esClient,
		esutil.NewEsScroller(logger.Named("Scroller"), esClient),
		c,
	)

	physicalName, err := manager.PrepareIndex(context.Background(), *indexName, schema, &indexmanager.PrepareIndexOptions{
		UseAlias:    *useAlias,
		ReindexData: *reindexData,
	})
	if err != nil {
		logger.Fatal("failed to reconcile index", zap.NamedError("error", err))
	}

	logger.Info("index reconciled", zap.String("index", *indexName), zap.String("physicalName", physicalName))
}

func readSchema(path string) (*indexmanager.IndexSchema, error) {
	rawSchema, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	schema := &indexmanager.IndexSchema{}
	if err := json.Unmarshal(rawSchema, &struct {
		Mappings *map[string]interface{} `json:"mappings"`
		Settings *map[string]interface{} `json:"settings"`
	}{&schema.Mappings, &schema.Settings}); err != nil {
		return nil, err
	}

	return schema, nil
}

func createESClient(logger *zap.Logger, elasticsearchEndpoint, username, password string) (*elasticsearch.Client, error) {
	c, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{
			elasticsearchEndpoint,
		},
		Username: username,
		Password: password,
	})

	if err != nil {
		return nil, err
	}

	res, err := c.Info()
	if err != nil {
		return nil, err
	}

	var r map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, err
	}

	logger.Debug("Successful Elasticsearch connection", zap.String("ES Server version", r["version"].(map[string]interface{})["number"].(string)))

	return c, nil
}

func createLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}
