// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package record

import (
	"reflect"
	"testing"
)

func TestSet(t *testing.T) {
	r := New("gcc-O2-4.log", Metric{"cycles", "100"}, Metric{"instructions", "200"})
	r.Set("cycles", "150")
	r.Set("branches", "10")

	want := []Metric{{"cycles", "150"}, {"instructions", "200"}, {"branches", "10"}}
	if !reflect.DeepEqual(r.Metrics, want) {
		t.Errorf("got %v, want %v", r.Metrics, want)
	}
	if got := r.Keys(); !reflect.DeepEqual(got, []string{"cycles", "instructions", "branches"}) {
		t.Errorf("Keys() = %v", got)
	}
	if got := r.Get("missing"); got != "" {
		t.Errorf("Get(missing) = %q, want empty", got)
	}
}

func TestLiteral(t *testing.T) {
	// Records built directly must index lazily.
	r := &Record{Name: "x", Metrics: []Metric{{"a", "1"}}}
	if got := r.Get("a"); got != "1" {
		t.Fatalf("Get(a) = %q", got)
	}
	r.Set("b", "2")
	if r.Len() != 2 || r.Get("b") != "2" {
		t.Fatalf("after Set: %v", r.Metrics)
	}
}

func TestClone(t *testing.T) {
	r := New("x", Metric{"a", "1"})
	c := r.Clone()
	c.Set("a", "2")
	if r.Get("a") != "1" {
		t.Errorf("Clone shares state with original")
	}
}

func TestFloat(t *testing.T) {
	r := New("x",
		Metric{"instructions", "300,826"},
		Metric{"ipc", "0.78"},
		Metric{"name", "lulesh"},
		Metric{"size", "1.5k"},
		Metric{"miss", "7.95%"},
	)
	check := func(key string, want float64, wantOK bool) {
		t.Helper()
		got, ok := r.Float(key)
		if ok != wantOK || got != want {
			t.Errorf("Float(%q) = %v, %v; want %v, %v", key, got, ok, want, wantOK)
		}
	}
	check("instructions", 300826, true)
	check("ipc", 0.78, true)
	check("name", 0, false)
	check("size", 1500, true)
	check("miss", 7.95, true)
	check("missing", 0, false)
}

func TestParseValue(t *testing.T) {
	for _, test := range []struct {
		in   string
		want float64
		err  bool
	}{
		{"1", 1, false},
		{" 2.5e3 ", 2500, false},
		{"65,455", 65455, false},
		{"4K", 4000, false},
		{"2Gi", 2 * 1024 * 1024 * 1024, false},
		{"O2", 0, true},
		{"", 0, true},
	} {
		got, err := ParseValue(test.in)
		if (err != nil) != test.err || got != test.want {
			t.Errorf("ParseValue(%q) = %v, %v; want %v, err=%v", test.in, got, err, test.want, test.err)
		}
	}
}
