package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tiancaiamao/nanocode/pkg/config"
	"github.com/tiancaiamao/nanocode/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "config file path (default ~/.nanocode/config.json)")
	model := flag.String("model", "", "model id override")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if err := run(*configPath, *model, *debug); err != nil {
		fmt.Fprintln(os.Stderr, "nanocode:", err)
		os.Exit(1)
	}
}

func run(configPath, modelOverride string, debug bool) error {
	if configPath == "" {
		if p, err := config.DefaultConfigPath(); err == nil {
			configPath = p
		}
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if modelOverride != "" {
		cfg.Model = modelOverride
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logCfg := cfg.Log.LoggerConfig()
	if debug {
		logCfg.Level = logger.DEBUG
		// Debug logging needs somewhere to go when the config names no
		// file; the console belongs to the REPL.
		if logCfg.FilePath == "" {
			if home, err := os.UserHomeDir(); err == nil {
				logCfg.FilePath = filepath.Join(home, ".nanocode", "nanocode.log")
			}
		}
	}
	log, err := logger.Setup(logCfg)
	if err != nil {
		return err
	}
	defer log.Close()

	repl, err := newREPL(cfg)
	if err != nil {
		return err
	}
	defer repl.Close()

	return repl.Run()
}
