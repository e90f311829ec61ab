package config

import "os"

// envSecrets maps environment variables to the fields that should not live
// in a config file or on a command line.
var envSecrets = []struct {
	name string
	dst  func(*Config) *string
}{
	{"TIPKEEPER_ENV", func(c *Config) *string { return &c.Environment }},
	{"TIPKEEPER_DATABASE_DSN", func(c *Config) *string { return &c.DatabaseDSN }},
	{"TIPKEEPER_JWT_SECRET", func(c *Config) *string { return &c.SecretKey }},
	{"TIPKEEPER_APP_SECRET", func(c *Config) *string { return &c.AppSecret }},
	{"TIPKEEPER_KMS_LOCAL_SECRET", func(c *Config) *string { return &c.KMSLocalSecret }},
	{"TIPKEEPER_S3_ROOT_PASSWORD", func(c *Config) *string { return &c.S3RootPassword }},
	{"TIPKEEPER_REDIS_PASSWORD", func(c *Config) *string { return &c.RedisPassword }},
	{"TIPKEEPER_NOTIFY_TOKEN", func(c *Config) *string { return &c.NotifyToken }},
}

// parseEnv overlays secrets from the process environment.
func parseEnv(config *Config) {
	for _, e := range envSecrets {
		if v, ok := os.LookupEnv(e.name); ok && v != "" {
			*e.dst(config) = v
		}
	}
}
