package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dave/whw/config"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const VERSION = "v0.1.0"

type Options struct {
	Config   string `short:"c" long:"config"    env:"WHW_CONFIG"    description:"Path to configuration file"`
	ResDir   string `short:"r" long:"res-dir"   env:"WHW_RES_DIR"   description:"Directory holding the input resources"`
	Output   string `short:"o" long:"output"    env:"WHW_OUTPUT"    description:"Override the output PDF path"`
	Strict   bool   `short:"s" long:"strict"                        description:"Fail on malformed or unrecognized placemarks"`
	LogLevel string `short:"l" long:"log-level" env:"WHW_LOG_LEVEL" description:"Log level" default:"info"`
	Version  bool   `short:"V" long:"version"                       description:"Show version"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Println(VERSION)
		return
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if level, err := zerolog.ParseLevel(opts.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if opts.ResDir != "" {
		for _, p := range []*string{
			&cfg.Inputs.KML, &cfg.Inputs.SegmentsCSV, &cfg.Inputs.PointsCSV,
			&cfg.Inputs.DEM, &cfg.Inputs.Nature, &cfg.Inputs.Lakes,
		} {
			*p = filepath.Join(opts.ResDir, filepath.Base(*p))
		}
	}
	if opts.Output != "" {
		cfg.Output = opts.Output
	}
	if opts.Strict {
		cfg.Strict = true
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("Map generation failed")
	}
}
