package config

import (
	"encoding/json"
	"os"

	"filevault/internal/flagx"
	"filevault/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. It uses timex.Duration for interval fields, which allows parsing
// both string values such as "30m" and integer nanoseconds. After
// unmarshalling, its fields are copied into the runtime Config struct.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path is taken from the -c or -config
// command-line flags; if neither is set, no JSON file is loaded. If the file
// cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {
	fileName := flagx.JsonConfigFlags()
	if fileName == "" {
		return
	}

	data, err := os.ReadFile(fileName)
	if err != nil {
		panic(err)
	}

	jsonConfig := &JsonConfig{}
	if err := json.Unmarshal(data, jsonConfig); err != nil {
		panic(err)
	}

	if jsonConfig.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = jsonConfig.EndpointAddrHTTP
	}
	if jsonConfig.DatabaseDSN != "" {
		config.DatabaseDSN = jsonConfig.DatabaseDSN
	}
	if jsonConfig.SecretKey != "" {
		config.SecretKey = jsonConfig.SecretKey
	}
	if jsonConfig.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = jsonConfig.AccessTokenValidityDuration.Duration
	}
	if jsonConfig.S3RootUser != "" {
		config.S3RootUser = jsonConfig.S3RootUser
	}
	if jsonConfig.S3RootPassword != "" {
		config.S3RootPassword = jsonConfig.S3RootPassword
	}
	if jsonConfig.S3Bucket != "" {
		config.S3Bucket = jsonConfig.S3Bucket
	}
	if jsonConfig.S3Region != "" {
		config.S3Region = jsonConfig.S3Region
	}
	if jsonConfig.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = jsonConfig.S3BaseEndpoint
	}
}
