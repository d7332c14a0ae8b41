// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads benchagg run configuration files.
//
// A configuration file is YAML:
//
//	name: spec2017
//	descriptor: sep=-,none,fit=1/along
//	plugin: lulesh
//	runs:
//	  - a64fx=/data/a64fx
//	  - gs://bench-logs/tx2
//	database:
//	  driver: sqlite3
//	  dsn: results.db
//	charts:
//	  dir: charts
//	  format: svg
//	parallel: 4
//	log_level: debug
//	vectors: true
//
// Every field is optional. Command-line flags take precedence over the
// file; see Merge.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is a benchagg run.
type Config struct {
	Name       string   `yaml:"name"`
	Descriptor string   `yaml:"descriptor"`
	Plugin     string   `yaml:"plugin"`
	Runs       []string `yaml:"runs"`

	Database Database `yaml:"database"`
	Charts   Charts   `yaml:"charts"`

	Parallel int    `yaml:"parallel"`
	LogLevel string `yaml:"log_level"`
	Vectors  bool   `yaml:"vectors"`
}

// Database selects where trees and findings are stored. An empty
// DSN disables storage.
type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Charts selects where fit charts are written. An empty Dir disables
// charts.
type Charts struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is given.
func Default() Config {
	return Config{
		Database: Database{Driver: "sqlite3"},
		Charts:   Charts{Format: "png"},
		Parallel: 1,
		LogLevel: "info",
	}
}

// Load reads the configuration file at path on top of the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse is like Load for the contents of a file. Unknown fields are
// an error.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that can be checked without running
// anything.
func (c *Config) Validate() error {
	if c.Parallel < 0 {
		return fmt.Errorf("parallel must not be negative, got %d", c.Parallel)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Database.DSN != "" && c.Database.Driver == "" {
		return fmt.Errorf("database dsn given without a driver")
	}
	return nil
}

// Merge overrides c with the fields of o that are not zero. Runs in o
// replace the runs of c.
func (c *Config) Merge(o Config) {
	set := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	set(&c.Name, o.Name)
	set(&c.Descriptor, o.Descriptor)
	set(&c.Plugin, o.Plugin)
	if len(o.Runs) > 0 {
		c.Runs = o.Runs
	}
	set(&c.Database.Driver, o.Database.Driver)
	set(&c.Database.DSN, o.Database.DSN)
	set(&c.Charts.Dir, o.Charts.Dir)
	set(&c.Charts.Format, o.Charts.Format)
	if o.Parallel != 0 {
		c.Parallel = o.Parallel
	}
	set(&c.LogLevel, o.LogLevel)
	if o.Vectors {
		c.Vectors = true
	}
}
