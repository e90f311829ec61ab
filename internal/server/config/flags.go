package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/tipkeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-e string   environment (development, test, production)
//	-l string   HTTP bind address (e.g., ":8080")
//	-a string   admin gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-k string   application secret for the inner key layer
//	-b string   KMS backend (local, gcp)
//	-r string   chain JSON-RPC URL
//	-w string   chain websocket URL
//	-n int      chain id
//	-m string   contract artifact (path or s3://bucket/key)
//	-x string   contract address
//	-R string   Redis address
//	-E bool     enable the transfer event relay
//	-v string   log level
//	-f string   log file
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-e", "-l", "-a", "-d", "-s", "-k", "-b", "-r", "-w", "-n", "-m", "-x", "-R", "-E", "-v", "-f",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Environment, "e", config.Environment, "environment")
	fs.StringVar(&config.EndpointAddrHTTP, "l", config.EndpointAddrHTTP, "address and port to serve HTTP")
	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port for the admin gRPC listener")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "JWT secret key")
	fs.StringVar(&config.AppSecret, "k", config.AppSecret, "application secret")
	fs.StringVar(&config.KMSBackend, "b", config.KMSBackend, "KMS backend")
	fs.StringVar(&config.ChainRPCURL, "r", config.ChainRPCURL, "chain RPC URL")
	fs.StringVar(&config.ChainWSURL, "w", config.ChainWSURL, "chain websocket URL")
	fs.Int64Var(&config.ChainID, "n", config.ChainID, "chain id")
	fs.StringVar(&config.ContractArtifact, "m", config.ContractArtifact, "contract artifact")
	fs.StringVar(&config.ContractAddress, "x", config.ContractAddress, "contract address")
	fs.StringVar(&config.RedisAddr, "R", config.RedisAddr, "Redis address")
	fs.BoolVar(&config.RelayEnabled, "E", config.RelayEnabled, "enable event relay")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")
	fs.StringVar(&config.LogFile, "f", config.LogFile, "log file")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
