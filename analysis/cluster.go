// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"fmt"
	"math"
	"strings"

	moremath "github.com/aclements/go-moremath/stats"
)

// DefaultMaxIter bounds the number of k-means iterations.
const DefaultMaxIter = 10

// A Cluster is one group found by Clustering.
type Cluster struct {
	// Centre is the mean of all members, including outliers. It is
	// NaN if the cluster ended up empty.
	Centre float64

	// Members are the values assigned to this cluster, in input
	// order.
	Members []float64

	// Outliers are the members flagged by outlier detection within
	// the cluster.
	Outliers []float64
}

// Clustering groups values with one-dimensional k-means, then runs
// outlier detection within each cluster.
//
// The K initial centres are evenly spaced over (min, max]. Each value
// joins the nearest centre, ties going to the lowest index, and
// centres move to the mean of their members. This repeats until no
// membership changes or max_iter iterations have run. A cluster that
// loses all its members keeps a NaN centre and attracts nothing
// afterwards.
//
// Options are num_clusters (default 1), max_iter (default 10) and
// threshold (outlier threshold, default 3.5). Results are clusters
// ([]Cluster), centres ([]float64), outliers (all cluster outliers,
// []float64), num_outliers and iterations.
type Clustering struct {
	base
	k         int
	maxIter   int
	threshold float64

	clusters   []Cluster
	iterations int
}

// NewClustering returns a single-cluster k-means pass.
func NewClustering() *Clustering {
	return &Clustering{k: 1, maxIter: DefaultMaxIter, threshold: DefaultThreshold}
}

func (c *Clustering) Kind() Kind { return KindCluster }

func (c *Clustering) Configure(opts Options) error {
	for key, v := range opts {
		switch key {
		case "num_clusters", "max_iter":
			n, err := optInt(key, v)
			if err != nil {
				return err
			}
			if n < 1 {
				return configErrorf("%s must be at least 1, got %d", key, n)
			}
			if key == "num_clusters" {
				c.k = n
			} else {
				c.maxIter = n
			}
		case "threshold":
			t, err := optFloat(key, v)
			if err != nil {
				return err
			}
			if !(t > 0) || math.IsInf(t, 0) {
				return configErrorf("threshold must be positive, got %v", t)
			}
			c.threshold = t
		default:
			return configErrorf("unknown cluster option %q", key)
		}
	}
	return nil
}

func (c *Clustering) SetOption(key string, value interface{}) error {
	return c.Configure(Options{key: value})
}

func (c *Clustering) SetData(values []float64) error {
	if err := c.setData(values); err != nil {
		return err
	}
	c.clusters, c.iterations = nil, 0
	return nil
}

func (c *Clustering) Execute() error {
	if err := c.checkData("clustering"); err != nil {
		return err
	}
	if c.k > len(c.data) {
		return configErrorf("%d clusters requested for %d values", c.k, len(c.data))
	}

	centres := make([]float64, c.k)
	lo, hi := moremath.Bounds(c.data)
	for j := range centres {
		centres[j] = lo + (hi-lo)*float64(j+1)/float64(c.k)
	}

	belongs := make([]int, len(c.data))
	for i := range belongs {
		belongs[i] = -1
	}
	members := make([][]float64, c.k)
	c.iterations = 0
	for c.iterations < c.maxIter {
		c.iterations++
		changed := false
		for j := range members {
			members[j] = members[j][:0]
		}
		for i, x := range c.data {
			j := nearest(centres, x)
			if belongs[i] != j {
				belongs[i] = j
				changed = true
			}
			members[j] = append(members[j], x)
		}
		for j := range centres {
			centres[j] = moremath.Mean(members[j])
		}
		if !changed {
			break
		}
	}

	c.clusters = make([]Cluster, c.k)
	for j := range c.clusters {
		_, out := detect(members[j], c.threshold)
		c.clusters[j] = Cluster{
			Centre:   centres[j],
			Members:  append([]float64{}, members[j]...),
			Outliers: out,
		}
	}
	c.done = true
	return nil
}

// nearest returns the index of the centre closest to x. NaN centres
// are never chosen unless every centre is NaN.
func nearest(centres []float64, x float64) int {
	best, bestDist := 0, math.Inf(1)
	for j, m := range centres {
		if math.IsNaN(m) {
			continue
		}
		if d := math.Abs(x - m); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

// Clusters returns the clusters found by the last Execute.
func (c *Clustering) Clusters() []Cluster { return c.clusters }

// Centres returns the centre of each cluster.
func (c *Clustering) Centres() []float64 {
	centres := make([]float64, len(c.clusters))
	for i, cl := range c.clusters {
		centres[i] = cl.Centre
	}
	return centres
}

// Outliers returns the outliers of every cluster, in cluster order.
func (c *Clustering) Outliers() []float64 {
	out := []float64{}
	for _, cl := range c.clusters {
		out = append(out, cl.Outliers...)
	}
	return out
}

func (c *Clustering) Get(key string) (interface{}, bool) {
	switch key {
	case "num_clusters":
		return c.k, true
	case "max_iter":
		return c.maxIter, true
	case "threshold":
		return c.threshold, true
	}
	if !c.done {
		return nil, false
	}
	switch key {
	case "clusters":
		return c.clusters, true
	case "centres":
		return c.Centres(), true
	case "outliers":
		return c.Outliers(), true
	case "num_outliers":
		return len(c.Outliers()), true
	case "iterations":
		return c.iterations, true
	}
	return nil, false
}

func (c *Clustering) String() string {
	s := fmt.Sprintf("cluster(k=%d)", c.k)
	if !c.done {
		return s
	}
	var parts []string
	for _, cl := range c.clusters {
		parts = append(parts, fmt.Sprintf("%.6g[%d]", cl.Centre, len(cl.Members)))
	}
	return s + ": " + strings.Join(parts, " ")
}
