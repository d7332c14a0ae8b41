// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Linaro/hpc-benchmark-analysis/analysis"
	"github.com/Linaro/hpc-benchmark-analysis/category"
	"github.com/Linaro/hpc-benchmark-analysis/parse"
)

func writeLogs(t *testing.T, logs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range logs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644))
	}
	return dir
}

func TestRunsLabels(t *testing.T) {
	rs := &Runs{Paths: []string{"a", "b", "a", "x=c", "x=c", "d=e=f"}}
	var labels []string
	for _, inp := range rs.inputs() {
		labels = append(labels, inp.label)
	}
	// Without AllowLabels, "=" is part of the path.
	assert.Equal(t, []string{"a#0", "b", "a#1", "x=c#0", "x=c#1", "d=e=f"}, labels)

	rs.AllowLabels = true
	var got [][2]string
	for _, inp := range rs.inputs() {
		got = append(got, [2]string{inp.label, inp.path})
	}
	assert.Equal(t, [][2]string{
		{"a#0", "a"}, {"b", "b"}, {"a#1", "a"},
		{"x", "c"}, {"x", "c"}, {"d", "e=f"},
	}, got)
}

func TestResolve(t *testing.T) {
	dir := writeLogs(t, nil)
	runs, err := (&Runs{Paths: []string{"arm=" + dir}, AllowLabels: true}).Resolve(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "arm", runs[0].Label)
	assert.Equal(t, LocalDir(dir), runs[0].Source)

	_, err = (&Runs{Paths: []string{filepath.Join(dir, "missing")}}).Resolve(context.Background())
	assert.Error(t, err)

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = Open(context.Background(), file)
	assert.ErrorContains(t, err, "not a directory")

	_, err = Open(context.Background(), "gs://")
	assert.ErrorContains(t, err, "missing bucket")
}

func TestLocalDir(t *testing.T) {
	dir := writeLogs(t, map[string]string{
		"b.log":   "",
		"a.log":   "",
		".hidden": "",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	names, err := LocalDir(dir).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.log", "b.log"}, names)
}

const perfLog = `
 Performance counter stats for './bench':

     1,000      instructions:u
       500      cycles:u

       0.5 seconds time elapsed
`

func TestIngest(t *testing.T) {
	m1 := writeLogs(t, map[string]string{
		"gcc-O2.log": perfLog,
		"gcc-O3.log": perfLog + "\n   1.2.3 branches\n",
		"llvm-O2.log": "no counters here",
		"bad.log":     perfLog,
		".skip.log":   perfLog,
	})
	m2 := writeLogs(t, map[string]string{
		"gcc-O2.log": perfLog,
	})

	log, hook := test.NewNullLogger()
	tree := category.New("bench")
	tree.SetLogger(log)
	in := &Ingester{Parser: parse.PerfStat{}, Log: log}
	runs := []Run{{"m1", LocalDir(m1)}, {"m2", LocalDir(m2)}}
	stats, warnings, err := in.Ingest(context.Background(), tree, runs)
	require.NoError(t, err)

	// bad.log sorts first and fixes one category; the other logs
	// of m1 are then rejected. Re-run in a fresh tree without it.
	assert.Equal(t, 2, stats.Runs)
	assert.Equal(t, 1, stats.Logs)
	assert.Equal(t, 4, stats.Skipped)
	assert.NotEmpty(t, warnings)
	assert.NotEmpty(t, hook.Entries)

	require.NoError(t, os.Remove(filepath.Join(m1, "bad.log")))
	tree = category.New("bench")
	tree.SetLogger(log)
	stats, warnings, err = in.Ingest(context.Background(), tree, runs)
	require.NoError(t, err)
	assert.Equal(t, Stats{Runs: 2, Logs: 4, Empty: 1}, stats)
	assert.Equal(t, "2 runs, 4 logs (1 empty, 0 skipped)", stats.String())

	// The bad counter value is reported against its file.
	require.Len(t, warnings, 1)
	var le *LogError
	require.True(t, errors.As(warnings[0], &le))
	assert.Equal(t, "m1", le.Run)
	assert.Equal(t, "gcc-O3.log", le.Log)
	var se *parse.SyntaxError
	require.True(t, errors.As(warnings[0], &se))
	assert.Equal(t, "gcc-O3.log", se.File)

	r := tree.Lookup("m1", "gcc", "O2")
	require.NotNil(t, r)
	assert.Equal(t, "1000", r.Get("instructions"))
	assert.Equal(t, "0.5", r.Get("elapsed"))
	assert.Equal(t, "500", tree.Lookup("m2", "gcc", "O2").Get("cycles"))

	empty := tree.Lookup("m1", "llvm", "O2")
	require.NotNil(t, empty)
	assert.Equal(t, 0, empty.Len())
}

func TestIngestMismatch(t *testing.T) {
	dir := writeLogs(t, map[string]string{
		"a-1.log":   perfLog,
		"a-2.log":   perfLog,
		"a-2-x.log": perfLog,
	})
	log, _ := test.NewNullLogger()
	tree := category.New("bench")
	in := &Ingester{Parser: parse.PerfStat{}, Log: log}
	stats, warnings, err := in.Ingest(context.Background(), tree, []Run{{"m", LocalDir(dir)}})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Logs)
	assert.Equal(t, 1, stats.Skipped)
	require.Len(t, warnings, 1)
	assert.True(t, errors.Is(warnings[0], analysis.ErrConfig))
}

func TestIngestListError(t *testing.T) {
	tree := category.New("bench")
	in := &Ingester{Parser: parse.PerfStat{}}
	_, _, err := in.Ingest(context.Background(), tree, []Run{{"m", LocalDir(filepath.Join(t.TempDir(), "gone"))}})
	assert.ErrorContains(t, err, "listing run m")
}

func TestIngestCanceled(t *testing.T) {
	dir := writeLogs(t, map[string]string{"a-1.log": perfLog})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := &Ingester{Parser: parse.PerfStat{}}
	_, _, err := in.Ingest(ctx, category.New("bench"), []Run{{"m", LocalDir(dir)}})
	assert.ErrorIs(t, err, context.Canceled)
}
