package main

import (
	"flag"
	"fmt"
)

// CLIConfig holds the parsed command line flags
type CLIConfig struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	Validate    bool
	ShowVersion bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}
	flag.StringVar(&cfg.ConfigPath, "config", "/etc/aifand/aifand.yaml", "Path to configuration file")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", "text", "Log format (text, json)")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")
	flag.Parse()
	return cfg
}

func initializeCLI() (*CLIConfig, bool, error) {
	cfg := parseFlags()
	if cfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, true, nil
	}
	return cfg, false, nil
}
