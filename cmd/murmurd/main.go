// Command murmurd runs the murmur daemon without the CLI wrapper, for use
// under a service manager.
package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"murmur/internal/config"
	"murmur/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	logLevel := flag.String("log-level", "", "Override logging.level")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{LogLevel: *logLevel}); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("murmurd: %v", err)
	}
}
