// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// A Source holds the logs of one run.
type Source interface {
	// List returns the names of the logs in the source, sorted.
	// Hidden files, whose names start with ".", are not listed.
	List(ctx context.Context) ([]string, error)

	// Read returns the contents of the named log.
	Read(ctx context.Context, name string) ([]byte, error)

	// String returns the location of the source.
	String() string
}

// Open returns the source at loc, which is either a local directory
// or a Cloud Storage prefix of the form gs://bucket/prefix. Cloud
// Storage clients are created with opts.
func Open(ctx context.Context, loc string, opts ...option.ClientOption) (Source, error) {
	if rest, ok := strings.CutPrefix(loc, "gs://"); ok {
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return nil, fmt.Errorf("%s: missing bucket name", loc)
		}
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("%s: creating storage client: %w", loc, err)
		}
		return &GCSPrefix{Bucket: client.Bucket(bucket), Name: bucket, Prefix: prefix}, nil
	}
	fi, err := os.Stat(loc)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", loc)
	}
	return LocalDir(loc), nil
}

// A LocalDir is a directory of log files. Subdirectories are ignored.
type LocalDir string

func (d LocalDir) List(ctx context.Context) ([]string, error) {
	ents, err := os.ReadDir(string(d))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, ent := range ents {
		if ent.IsDir() || strings.HasPrefix(ent.Name(), ".") {
			continue
		}
		names = append(names, ent.Name())
	}
	return names, nil
}

func (d LocalDir) Read(ctx context.Context, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(string(d), name))
}

func (d LocalDir) String() string {
	return string(d)
}

// A GCSPrefix is the set of objects directly under a prefix in a
// Cloud Storage bucket.
type GCSPrefix struct {
	Bucket *storage.BucketHandle

	// Name is the bucket name, for messages.
	Name   string
	Prefix string
}

func (g *GCSPrefix) dir() string {
	if g.Prefix == "" || strings.HasSuffix(g.Prefix, "/") {
		return g.Prefix
	}
	return g.Prefix + "/"
}

func (g *GCSPrefix) List(ctx context.Context) ([]string, error) {
	dir := g.dir()
	it := g.Bucket.Objects(ctx, &storage.Query{Prefix: dir, Delimiter: "/"})
	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", g, err)
		}
		if attrs.Prefix != "" {
			// A "subdirectory".
			continue
		}
		name := strings.TrimPrefix(attrs.Name, dir)
		if name == "" || strings.HasPrefix(name, ".") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (g *GCSPrefix) Read(ctx context.Context, name string) ([]byte, error) {
	r, err := g.Bucket.Object(g.dir() + name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path.Join(g.String(), name), err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (g *GCSPrefix) String() string {
	return "gs://" + path.Join(g.Name, g.Prefix)
}
