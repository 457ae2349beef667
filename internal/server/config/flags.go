package config

import (
	"flag"
	"os"
	"time"

	"github.com/cryptovault/vaultd/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-u string   S3 access key
//	-p string   S3 secret key
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-r int      max retry attempts for transient store failures
//	-w int      retry base delay, milliseconds
//	-n bool     enable digest anchoring
//	-m string   anchoring service endpoint URL
//
// The function first filters os.Args to only the flags it recognizes
// using flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-u", "-p", "-b", "-g", "-e", "-r", "-w", "-n", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	retryMaxAttempts := fs.Uint64("r", config.RetryMaxAttempts, "max retry attempts")
	retryBaseDelay := fs.Int("w", int(config.RetryBaseDelay.Milliseconds()), "retry base delay (in milliseconds)")

	fs.BoolVar(&config.AnchorEnabled, "n", config.AnchorEnabled, "enable digest anchoring")
	fs.StringVar(&config.AnchorEndpoint, "m", config.AnchorEndpoint, "anchoring service endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.RetryMaxAttempts = *retryMaxAttempts
	config.RetryBaseDelay = time.Duration(*retryBaseDelay) * time.Millisecond
}
