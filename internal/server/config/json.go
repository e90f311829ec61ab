package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/tipkeeper/internal/flagx"
	"github.com/dmitrijs2005/tipkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Interval
// fields use timex.Duration so both "10s" and integer nanoseconds parse.
// Pointer fields distinguish "absent" from "false"/"0".
type JsonConfig struct {
	Environment      string `json:"environment"`
	EndpointAddrHTTP string `json:"endpoint_addr_http"`
	EndpointAddrGRPC string `json:"endpoint_addr_grpc"`
	DatabaseDSN      string `json:"database_dsn"`
	SecretKey        string `json:"secret_key"`
	AppSecret        string `json:"app_secret"`

	KMSBackend     string `json:"kms_backend"`
	KMSProject     string `json:"kms_project"`
	KMSLocation    string `json:"kms_location"`
	KMSKeyRing     string `json:"kms_key_ring"`
	KMSCryptoKey   string `json:"kms_crypto_key"`
	KMSEndpoint    string `json:"kms_endpoint"`
	KMSLocalSecret string `json:"kms_local_secret"`

	ChainRPCURL      string `json:"chain_rpc_url"`
	ChainWSURL       string `json:"chain_ws_url"`
	ChainID          int64  `json:"chain_id"`
	ContractArtifact string `json:"contract_artifact"`
	ContractAddress  string `json:"contract_address"`

	S3RootUser     string `json:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`

	RedisAddr      string         `json:"redis_addr"`
	RedisPassword  string         `json:"redis_password"`
	RedisDB        *int           `json:"redis_db"`
	RelayEnabled   *bool          `json:"relay_enabled"`
	RelayStream    string         `json:"relay_stream"`
	RelayCursorKey string         `json:"relay_cursor_key"`
	RelayEncrypt   *bool          `json:"relay_encrypt"`
	RelayBackoff   timex.Duration `json:"relay_backoff"`

	NotifyURL       string  `json:"notify_url"`
	NotifyWebhookID string  `json:"notify_webhook_id"`
	NotifyToken     string  `json:"notify_token"`
	NotifyRPS       float64 `json:"notify_rps"`

	RequiredRole    string         `json:"required_role"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
	LogLevel        string         `json:"log_level"`
	LogFile         string         `json:"log_file"`
}

// parseJson loads configuration values from a JSON file into config.
//
// The file path comes from the -c/-config flags or TIPKEEPER_CONFIG. When
// neither is set nothing is loaded. Only keys present in the file override
// the current values. An unreadable file or invalid JSON panics, since the
// process cannot start with a half-applied configuration.
func parseJson(config *Config) {

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

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.Environment, c.Environment)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.AppSecret, c.AppSecret)

	setString(&config.KMSBackend, c.KMSBackend)
	setString(&config.KMSProject, c.KMSProject)
	setString(&config.KMSLocation, c.KMSLocation)
	setString(&config.KMSKeyRing, c.KMSKeyRing)
	setString(&config.KMSCryptoKey, c.KMSCryptoKey)
	setString(&config.KMSEndpoint, c.KMSEndpoint)
	setString(&config.KMSLocalSecret, c.KMSLocalSecret)

	setString(&config.ChainRPCURL, c.ChainRPCURL)
	setString(&config.ChainWSURL, c.ChainWSURL)
	if c.ChainID != 0 {
		config.ChainID = c.ChainID
	}
	setString(&config.ContractArtifact, c.ContractArtifact)
	setString(&config.ContractAddress, c.ContractAddress)

	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	if c.RedisDB != nil {
		config.RedisDB = *c.RedisDB
	}
	if c.RelayEnabled != nil {
		config.RelayEnabled = *c.RelayEnabled
	}
	setString(&config.RelayStream, c.RelayStream)
	setString(&config.RelayCursorKey, c.RelayCursorKey)
	if c.RelayEncrypt != nil {
		config.RelayEncrypt = *c.RelayEncrypt
	}
	if c.RelayBackoff.Duration != 0 {
		config.RelayBackoff = c.RelayBackoff.Duration
	}

	setString(&config.NotifyURL, c.NotifyURL)
	setString(&config.NotifyWebhookID, c.NotifyWebhookID)
	setString(&config.NotifyToken, c.NotifyToken)
	if c.NotifyRPS != 0 {
		config.NotifyRPS = c.NotifyRPS
	}

	setString(&config.RequiredRole, c.RequiredRole)
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFile, c.LogFile)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
