// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const example = `
name: spec2017
descriptor: sep=-,none,fit=1/along
plugin: lulesh
runs:
  - a64fx=/data/a64fx
  - gs://bench-logs/tx2
database:
  dsn: results.db
charts:
  dir: charts
parallel: 4
log_level: debug
vectors: true
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(example), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Name:       "spec2017",
		Descriptor: "sep=-,none,fit=1/along",
		Plugin:     "lulesh",
		Runs:       []string{"a64fx=/data/a64fx", "gs://bench-logs/tx2"},
		Database:   Database{Driver: "sqlite3", DSN: "results.db"},
		Charts:     Charts{Dir: "charts", Format: "png"},
		Parallel:   4,
		LogLevel:   "debug",
		Vectors:    true,
	}, cfg)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading config")
}

func TestParse(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	for _, bad := range []string{
		"paralel: 2\n",
		"parallel: -1\n",
		"log_level: chatty\n",
		"database: {driver: '', dsn: x}\n",
		"runs: 3\n",
	} {
		_, err := Parse([]byte(bad))
		assert.Error(t, err, "%q", bad)
	}
}

func TestMerge(t *testing.T) {
	cfg := Default()
	cfg.Runs = []string{"a", "b"}
	cfg.Merge(Config{Descriptor: "sep=_", Parallel: 8})
	assert.Equal(t, "sep=_", cfg.Descriptor)
	assert.Equal(t, 8, cfg.Parallel)
	assert.Equal(t, []string{"a", "b"}, cfg.Runs)
	assert.Equal(t, "info", cfg.LogLevel)

	cfg.Merge(Config{Runs: []string{"c"}, Charts: Charts{Format: "svg"}, Vectors: true})
	assert.Equal(t, []string{"c"}, cfg.Runs)
	assert.Equal(t, "svg", cfg.Charts.Format)
	assert.True(t, cfg.Vectors)
}
