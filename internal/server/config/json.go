package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/chainvault/internal/flagx"
	"github.com/dmitrijs2005/chainvault/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "30s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddrHTTP string         `json:"endpoint_addr_http"`
	DatabaseDSN      string         `json:"database_dsn"`
	SecretKey        string         `json:"secret_key"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	PinataBaseURL    string         `json:"pinata_base_url"`
	PinataAPIKey     string         `json:"pinata_api_key"`
	PinataAPISecret  string         `json:"pinata_api_secret"`
	RedisAddr        string         `json:"redis_addr"`
	CacheTTL         timex.Duration `json:"cache_ttl"`
	AttestWorkers    int            `json:"attest_workers"`
	AttestQueueSize  int            `json:"attest_queue_size"`
	StageTimeout     timex.Duration `json:"stage_timeout"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The lookup order for the JSON file path is the -c or -config command-line
// flags. If neither is set, no JSON file is loaded.
//
// If the file path is found, parseJson attempts to read and unmarshal it
// into a JsonConfig. Non-zero values are copied into the target Config.
// If the file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
	if c.PinataBaseURL != "" {
		config.PinataBaseURL = c.PinataBaseURL
	}
	if c.PinataAPIKey != "" {
		config.PinataAPIKey = c.PinataAPIKey
	}
	if c.PinataAPISecret != "" {
		config.PinataAPISecret = c.PinataAPISecret
	}
	if c.RedisAddr != "" {
		config.RedisAddr = c.RedisAddr
	}
	if c.CacheTTL.Duration != 0 {
		config.CacheTTL = c.CacheTTL.Duration
	}
	if c.AttestWorkers != 0 {
		config.AttestWorkers = c.AttestWorkers
	}
	if c.AttestQueueSize != 0 {
		config.AttestQueueSize = c.AttestQueueSize
	}
	if c.StageTimeout.Duration != 0 {
		config.StageTimeout = c.StageTimeout.Duration
	}
}
