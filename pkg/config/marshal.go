package config

import (
	"fmt"

	yamlv3 "gopkg.in/yaml.v3"
)

// Marshal renders cfg as YAML that Load accepts. Credentials of external
// services are omitted; they belong in the environment.
func Marshal(cfg *Config) ([]byte, error) {
	redacted := *cfg
	redacted.AI.APIKey = ""
	redacted.Store.Redis.Password = ""

	data, err := yamlv3.Marshal(&redacted)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
