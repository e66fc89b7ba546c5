package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/chainvault/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-n string   pinning service base URL
//	-k string   pinning service API key
//	-x string   pinning service API secret
//	-r string   Redis address for the verification cache (empty disables)
//	-w int      attestation worker count
//	-t int      per-stage pipeline timeout, seconds
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers in seconds and then converted
//     to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-u", "-p", "-b", "-g", "-e", "-n", "-k", "-x", "-r", "-w", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.PinataBaseURL, "n", config.PinataBaseURL, "pinning service base URL")
	fs.StringVar(&config.PinataAPIKey, "k", config.PinataAPIKey, "pinning service API key")
	fs.StringVar(&config.PinataAPISecret, "x", config.PinataAPISecret, "pinning service API secret")

	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address for verification cache")
	fs.IntVar(&config.AttestWorkers, "w", config.AttestWorkers, "attestation worker count")

	stageTimeout := fs.Int("t", int(config.StageTimeout.Seconds()), "stage_timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.StageTimeout = time.Duration(*stageTimeout) * time.Second
}
