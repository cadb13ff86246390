// Command app serves the FinDash dashboard API.
package main

import (
	"flag"
	"fmt"
	"os"

	"FinDash/internal/di"
	"FinDash/pkg/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "findash: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config; environment variables override it")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	return app.Run()
}
