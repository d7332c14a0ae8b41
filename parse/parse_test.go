// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Linaro/hpc-benchmark-analysis/record"
)

const perfRaw = `
 Performance counter stats for 'date':

          0.735081      task-clock:u (msec)       #    0.651 CPUs utilized
                 0      context-switches:u        #    0.000 K/sec
                 0      cpu-migrations:u          #    0.000 K/sec
                60      page-faults:u             #    0.082 M/sec
           383,614      cycles:u                  #    0.522 GHz
           300,826      instructions:u            #    0.78  insn per cycle
            65,455      branches:u                #   89.045 M/sec
             5,202      branch-misses:u           #    7.95% of all branches
   <not supported>      stalled-cycles-frontend:u

       0.001128531 seconds time elapsed
`

const luleshRaw = `Running problem size 10^3 per domain until completion
Num processors: 1
Num threads: 8
Total number of elements: 1000

To run other sizes, use -s <integer>.

Run completed:
   Problem size        =  10
   MPI tasks           =  1
   Iteration count     =  231
   Final Origin Energy = 2.720531e+04
   Testing Plane 0 of Energy Array on rank 0:
        MaxAbsDiff   = 1.591616e-12
        TotalAbsDiff = 1.948782e-11
        MaxRelDiff   = 1.566182e-14


Elapsed time         =       0.24 (s)
Grind time (us/z/c)  =  1.0388182 (per dom)  ( 1.0388182 overall)
FOM                  =  962.63236 (z/s)`

func asRecord(ms []record.Metric) *record.Record {
	return record.New("test", ms...)
}

func TestPerfStat(t *testing.T) {
	r := asRecord(PerfStat{}.Parse([]byte(perfRaw)))

	check := func(key string, want float64) {
		t.Helper()
		got, ok := r.Float(key)
		if !ok {
			t.Errorf("missing %s in %v", key, r.Metrics)
			return
		}
		if got != want {
			t.Errorf("%s = %v, want %v", key, got, want)
		}
	}
	check("task-clock", 0.735081)
	check("cpu-migrations", 0)
	check("cycles", 383614)
	check("instructions", 300826)
	check("branches", 65455)
	check("branch-misses", 5202)
	check("elapsed", 0.001128531)
	if r.Get("stalled-cycles-frontend") != "" {
		t.Errorf("unsupported counter should be skipped")
	}
	if got := r.Keys()[0]; got != "task-clock" {
		t.Errorf("first key = %s, want task-clock", got)
	}
}

func TestPerfStatRepeat(t *testing.T) {
	raw := `
     1,234,567      instructions:u    #  1.10  insn per cycle           ( +-  0.25% )
           1.5 msec task-clock:u     #    0.9 CPUs utilized          ( +-  1.00% )
       0.0021 +- 0.0001 seconds time elapsed  ( +-  4.76% )
`
	r := asRecord(PerfStat{}.Parse([]byte(raw)))
	assert.Equal(t, "1234567", r.Get("instructions"))
	assert.Equal(t, "0.25", r.Get("instructions.stddev"))
	assert.Equal(t, "1.5", r.Get("task-clock"))
	assert.Equal(t, "1.00", r.Get("task-clock.stddev"))
	assert.Equal(t, "0.0021", r.Get("elapsed"))
	assert.Equal(t, "4.76", r.Get("elapsed.stddev"))
}

func TestPerfStatErrors(t *testing.T) {
	// Nothing that looks like a counter.
	assert.Empty(t, PerfStat{}.Parse([]byte("123 456 789")))
	assert.Empty(t, PerfStat{}.Parse(nil))

	r := asRecord(PerfStat{}.Parse([]byte("123 instructions")))
	assert.Equal(t, "123", r.Get("instructions"))
	assert.Equal(t, "", r.Get("cycles"))

	ms, warnings := PerfStat{}.ParseWarn([]byte("1.2.3 cycles\n42 branches"))
	require.Len(t, warnings, 1)
	var se *SyntaxError
	require.True(t, errors.As(warnings[0], &se))
	assert.Equal(t, 1, se.Line)
	assert.Equal(t, "<input>:1: bad counter value 1.2.3", se.Error())
	assert.Equal(t, []record.Metric{{Key: "branches", Value: "42"}}, ms)
}

func TestLulesh(t *testing.T) {
	r := asRecord(Lulesh{}.Parse([]byte(luleshRaw)))
	for key, want := range map[string]string{
		"ProblemSize":    "10",
		"IterationCount": "231",
		"FinalEnergy":    "2.720531e+04",
		"MaxAbsDiff":     "1.591616e-12",
		"TotalAbsDiff":   "1.948782e-11",
		"MaxRelDiff":     "1.566182e-14",
		"Elements":       "1000",
		"Threads":        "8",
		"Elapsed":        "0.24",
		"Grind":          "1.0388182",
		"FOM":            "962.63236",
	} {
		assert.Equal(t, want, r.Get(key), key)
	}
	assert.Empty(t, Lulesh{}.Parse([]byte("garbage")))
}

func TestForPlugin(t *testing.T) {
	p, err := ForPlugin("lulesh")
	require.NoError(t, err)
	assert.Equal(t, "perf+lulesh", p.Name())

	r := asRecord(p.Parse([]byte(perfRaw + luleshRaw)))
	assert.Equal(t, "300826", r.Get("instructions"))
	assert.Equal(t, "962.63236", r.Get("FOM"))

	p, err = ForPlugin("")
	require.NoError(t, err)
	assert.Equal(t, "perf", p.Name())

	_, err = ForPlugin("nosuch")
	assert.Error(t, err)
	assert.Equal(t, []string{"lulesh", "perf"}, Names())
}

func TestChainOverride(t *testing.T) {
	c := Chain{PerfStat{}, PerfStat{}}
	ms := c.Parse([]byte("1 cycles\n2 instructions"))
	assert.Equal(t, []record.Metric{{Key: "cycles", Value: "1"}, {Key: "instructions", Value: "2"}}, ms)
}
