// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Benchagg aggregates benchmark logs into a category tree and
// analyzes it.
//
// Usage:
//
//	benchagg [flags] name logdir...
//
// Each logdir holds the logs of one run, typically one machine. It is
// a local directory or a Cloud Storage prefix gs://bucket/prefix, and
// may be given as label=logdir to name the run. Log file names are
// split into categories by the descriptor given with -d, for example
//
//	benchagg -p lulesh -d sep=-,outlier=3.5,none,fit=1/along lulesh a64fx=logs/a64fx tx2=logs/tx2
//
// reads logs named like gcc-O3-4.log, compares each compiler across
// machines, and fits the results of each compiler and flag set against
// perfect scaling with the thread count.
//
// Benchagg prints the tree and the interesting findings. With --db, the
// tree and findings are also stored, and a stored tree can be analyzed
// again with --load.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Linaro/hpc-benchmark-analysis/category"
	"github.com/Linaro/hpc-benchmark-analysis/chart"
	"github.com/Linaro/hpc-benchmark-analysis/dispatch"
	"github.com/Linaro/hpc-benchmark-analysis/ingest"
	"github.com/Linaro/hpc-benchmark-analysis/internal/config"
	"github.com/Linaro/hpc-benchmark-analysis/internal/texttab"
	"github.com/Linaro/hpc-benchmark-analysis/parse"
	"github.com/Linaro/hpc-benchmark-analysis/report"
	"github.com/Linaro/hpc-benchmark-analysis/store"
	_ "github.com/Linaro/hpc-benchmark-analysis/store/sqlite3"
)

var exit = os.Exit // replaced during testing

func main() {
	cmd := newCommand(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "benchagg: %v\n", err)
		exit(1)
	}
}

type flags struct {
	config string
	file   config.Config

	load      int64
	list      bool
	all       bool
	threshold float64
}

func newCommand(stdout, stderr io.Writer) *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "benchagg [flags] name logdir...",
		Short: "Aggregate and analyze benchmark logs",
		Long: `Benchagg reads the logs of one or more runs of a benchmark, arranges
them in a tree of categories taken from the log names, and runs the
analyses configured for each category level.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.resolve(cmd, args)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, &f, stdout, stderr)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	fl := cmd.Flags()
	fl.StringVar(&f.config, "config", "", "read settings from YAML `file`; flags take precedence")
	fl.StringVarP(&f.file.Plugin, "plugin", "p", "", "parse benchmark output with `plugin` in addition to perf counters ("+fmt.Sprint(parse.Names())+")")
	fl.StringVarP(&f.file.Descriptor, "data", "d", "", "describe the log name categories and their analyses, e.g. sep=-,outlier=3.5,fit=1/along")
	fl.StringVar(&f.file.Database.Driver, "db-driver", "", "database `driver` (sqlite3 or mysql; default sqlite3)")
	fl.StringVar(&f.file.Database.DSN, "db", "", "store the tree and findings in database `dsn`")
	fl.Int64Var(&f.load, "load", 0, "analyze the stored tree `id` instead of reading logs")
	fl.BoolVar(&f.list, "list", false, "list the stored trees and exit")
	fl.StringVar(&f.file.Charts.Dir, "charts", "", "write a chart of every curve fit to `dir`")
	fl.StringVar(&f.file.Charts.Format, "chart-format", "", "chart `format`: png, svg or pdf (default png)")
	fl.IntVar(&f.file.Parallel, "parallel", 0, "run up to `n` analyses at once (default 1)")
	fl.BoolVar(&f.file.Vectors, "vectors", false, "print the values of every analyzed group")
	fl.BoolVar(&f.all, "all", false, "print all findings, not only the interesting ones")
	fl.Float64Var(&f.threshold, "threshold", dispatch.DefaultQualityThreshold, "report fits whose quality is above `q`")
	fl.StringVar(&f.file.LogLevel, "log-level", "", "log `level`: debug, info, warn or error (default info)")
	return cmd
}

// resolve merges the configuration file, flags and arguments.
func (f *flags) resolve(cmd *cobra.Command, args []string) (config.Config, error) {
	cfg := config.Default()
	if f.config != "" {
		var err error
		if cfg, err = config.Load(f.config); err != nil {
			return cfg, err
		}
	}
	override := f.file
	if len(args) > 0 {
		override.Name = args[0]
		override.Runs = args[1:]
	}
	cfg.Merge(override)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	if f.list || f.load != 0 {
		if cfg.Database.DSN == "" {
			return cfg, fmt.Errorf("--list and --load need a database (--db)")
		}
		return cfg, nil
	}
	if cfg.Name == "" {
		cmd.Usage()
		return cfg, fmt.Errorf("missing benchmark name")
	}
	if len(cfg.Runs) == 0 {
		cmd.Usage()
		return cfg, fmt.Errorf("needs at least one log directory")
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) *logrus.Logger {
	log := logrus.New()
	log.Out = w
	log.Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}
	return log
}

func run(ctx context.Context, cfg config.Config, f *flags, stdout, stderr io.Writer) error {
	log := newLogger(stderr, cfg.LogLevel)

	var db *store.DB
	if cfg.Database.DSN != "" {
		var err error
		db, err = store.OpenSQL(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()
	}
	if f.list {
		return listTrees(ctx, db, stdout)
	}

	var tree *category.Tree
	var treeID int64
	d := &dispatch.Dispatcher{Parallel: cfg.Parallel, Log: log}
	if f.load != 0 {
		var err error
		if tree, err = db.LoadTree(ctx, f.load); err != nil {
			return err
		}
		treeID = f.load
		if cfg.Descriptor != "" {
			if d.Spec, err = category.ParseSpec(cfg.Descriptor); err != nil {
				return err
			}
		}
	} else {
		var err error
		if tree, err = ingestLogs(ctx, cfg, log); err != nil {
			return err
		}
	}
	d.Tree = tree

	fmt.Fprintln(stdout, tree)
	if err := tree.WriteSummary(stdout); err != nil {
		return err
	}
	findings, err := d.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout)
	if err := report.WriteFindings(stdout, findings, f.all, f.threshold); err != nil {
		return err
	}
	if cfg.Vectors {
		fmt.Fprintln(stdout)
		if err := report.WriteVectors(stdout, findings); err != nil {
			return err
		}
	}

	if cfg.Charts.Dir != "" {
		if err := os.MkdirAll(cfg.Charts.Dir, 0o755); err != nil {
			return err
		}
		files, err := chart.Fits(cfg.Charts.Dir, cfg.Charts.Format, findings)
		if err != nil {
			return err
		}
		log.WithField("dir", cfg.Charts.Dir).Infof("wrote %d charts", len(files))
	}

	if db != nil {
		if treeID == 0 {
			if treeID, err = db.SaveTree(ctx, tree); err != nil {
				return err
			}
			log.WithField("tree", tree.Name).Infof("saved as tree %d", treeID)
		}
		if err := db.SaveFindings(ctx, treeID, findings, f.threshold); err != nil {
			return err
		}
	}
	return nil
}

// ingestLogs builds the tree described by cfg from its runs' logs.
func ingestLogs(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*category.Tree, error) {
	parser, err := parse.ForPlugin(cfg.Plugin)
	if err != nil {
		return nil, err
	}
	runs, err := (&ingest.Runs{Paths: cfg.Runs, AllowLabels: true}).Resolve(ctx)
	if err != nil {
		return nil, err
	}
	tree := category.New(cfg.Name)
	tree.SetLogger(log)
	if err := tree.Configure(cfg.Descriptor); err != nil {
		return nil, err
	}
	stats, warnings, err := (&ingest.Ingester{Parser: parser, Log: log}).Ingest(ctx, tree, runs)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"tree": tree.Name, "warnings": len(warnings)}).Info(stats.String())
	return tree, nil
}

func listTrees(ctx context.Context, db *store.DB, w io.Writer) error {
	infos, err := db.ListTrees(ctx)
	if err != nil {
		return err
	}
	var tab texttab.Table
	tab.Row().Cell("id").Cell("name").Cell("logs").Cell("descriptor")
	for _, ti := range infos {
		tab.Row().Cell(strconv.FormatInt(ti.ID, 10), texttab.Right).
			Cell(ti.Name).
			Cell(strconv.Itoa(ti.Logs), texttab.Right).
			Cell(ti.Descriptor)
	}
	return tab.Format(w)
}
