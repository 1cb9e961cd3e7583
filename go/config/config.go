package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type ElasticsearchConfig struct {
	URL      string        `mapstructure:"url"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Refresh  RefreshOption `mapstructure:"refresh"`
}

// https://www.elastic.co/guide/en/elasticsearch/reference/current/docs-refresh.html
type RefreshOption string

func (r RefreshOption) String() string {
	return string(r)
}

const (
	RefreshTrue    = "true"
	RefreshWaitFor = "wait_for"
	RefreshFalse   = "false"
)

func (c *ElasticsearchConfig) IsValid() error {
	if c.URL == "" {
		return fmt.Errorf("elasticsearch url must be set")
	}

	switch c.Refresh.String() {
	case RefreshTrue, RefreshWaitFor, RefreshFalse:
		return nil
	default:
		return fmt.Errorf("invalid refresh option: %s", c.Refresh)
	}
}

// Load reads the Elasticsearch connection config from the environment, with an
// optional config file taking lower precedence. Defaults are suitable for a
// local cluster.
func Load(configFile string) (*ElasticsearchConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("elasticsearch")
	v.AutomaticEnv()

	v.SetDefault("url", "http://localhost:9200")
	v.SetDefault("refresh", RefreshTrue)

	// AutomaticEnv only surfaces keys viper already knows about; the
	// credentials have no default, so bind them explicitly
	for _, key := range []string{"username", "password"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %s", configFile, err)
		}
	}

	c := &ElasticsearchConfig{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("error unmarshalling elasticsearch config: %s", err)
	}

	if err := c.IsValid(); err != nil {
		return nil, err
	}

	return c, nil
}
