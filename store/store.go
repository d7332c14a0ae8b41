// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package store persists category trees and analysis findings in a
// SQL database.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"text/template"

	"github.com/Linaro/hpc-benchmark-analysis/category"
	"github.com/Linaro/hpc-benchmark-analysis/dispatch"
	"github.com/Linaro/hpc-benchmark-analysis/record"
)

// DB is a database of trees and findings. It's safe for concurrent
// use by multiple goroutines.
type DB struct {
	sql *sql.DB

	insertTree    *sql.Stmt
	insertLog     *sql.Stmt
	insertMetric  *sql.Stmt
	insertFinding *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a
// connection to driverName. It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Trees (
	TreeID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	Name VARCHAR(255),
	Descriptor VARCHAR(1024)
);
CREATE TABLE IF NOT EXISTS Logs (
	TreeID BIGINT UNSIGNED,
	LogID BIGINT UNSIGNED,
	Run VARCHAR(1024),
	Name VARCHAR(1024),
	PRIMARY KEY (TreeID, LogID),
	FOREIGN KEY (TreeID) REFERENCES Trees(TreeID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS Metrics (
	TreeID BIGINT UNSIGNED,
	LogID BIGINT UNSIGNED,
	Seq INTEGER,
	MetricKey VARCHAR(255),
	Value VARCHAR(255),
	PRIMARY KEY (TreeID, LogID, Seq),
{{if not .sqlite3}}
	Index (MetricKey(100)),
{{end}}
	FOREIGN KEY (TreeID, LogID) REFERENCES Logs(TreeID, LogID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS Findings (
	TreeID BIGINT UNSIGNED,
	FindingID BIGINT UNSIGNED,
	Dim INTEGER,
	Kind VARCHAR(16),
	Mode VARCHAR(16),
	GroupPath VARCHAR(1024),
	Metric VARCHAR(255),
	Summary TEXT,
	Interesting BOOLEAN,
	Error TEXT,
	PRIMARY KEY (TreeID, FindingID),
	FOREIGN KEY (TreeID) REFERENCES Trees(TreeID) ON UPDATE CASCADE ON DELETE CASCADE
);
{{if .sqlite3}}
CREATE INDEX IF NOT EXISTS MetricsKey ON Metrics(MetricKey);
{{end}}
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	prepare := func(q string) *sql.Stmt {
		if err != nil {
			return nil
		}
		var s *sql.Stmt
		s, err = db.sql.Prepare(q)
		return s
	}
	db.insertTree = prepare("INSERT INTO Trees(Name, Descriptor) VALUES (?, ?)")
	db.insertLog = prepare("INSERT INTO Logs(TreeID, LogID, Run, Name) VALUES (?, ?, ?, ?)")
	db.insertMetric = prepare("INSERT INTO Metrics(TreeID, LogID, Seq, MetricKey, Value) VALUES (?, ?, ?, ?, ?)")
	db.insertFinding = prepare("INSERT INTO Findings(TreeID, FindingID, Dim, Kind, Mode, GroupPath, Metric, Summary, Interesting, Error) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	return err
}

// inTx runs fn in a transaction, committing if it succeeds.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	return fn(tx)
}

// SaveTree stores every record of t and returns the new tree's ID.
func (db *DB) SaveTree(ctx context.Context, t *category.Tree) (id int64, err error) {
	err = db.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.StmtContext(ctx, db.insertTree).ExecContext(ctx, t.Name, t.Spec().String())
		if err != nil {
			return err
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		insertLog := tx.StmtContext(ctx, db.insertLog)
		insertMetric := tx.StmtContext(ctx, db.insertMetric)
		var logID int64
		return t.Walk(func(run string, _ []string, r *record.Record) error {
			if _, err := insertLog.ExecContext(ctx, id, logID, run, r.Name); err != nil {
				return err
			}
			for seq, m := range r.Metrics {
				if _, err := insertMetric.ExecContext(ctx, id, logID, seq, m.Key, m.Value); err != nil {
					return err
				}
			}
			logID++
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("saving tree %s: %w", t.Name, err)
	}
	return id, nil
}

// LoadTree rebuilds the tree stored as id.
func (db *DB) LoadTree(ctx context.Context, id int64) (*category.Tree, error) {
	var name, desc string
	err := db.sql.QueryRowContext(ctx, "SELECT Name, Descriptor FROM Trees WHERE TreeID = ?", id).Scan(&name, &desc)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("tree %d not found", id)
	} else if err != nil {
		return nil, err
	}
	t := category.New(name)
	if err := t.Configure(desc); err != nil {
		return nil, fmt.Errorf("tree %d: %w", id, err)
	}

	rows, err := db.sql.QueryContext(ctx, `
SELECT l.LogID, l.Run, l.Name, m.MetricKey, m.Value
FROM Logs l LEFT JOIN Metrics m ON l.TreeID = m.TreeID AND l.LogID = m.LogID
WHERE l.TreeID = ?
ORDER BY l.LogID, m.Seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cur *record.Record
	var curRun string
	curID := int64(-1)
	flush := func() error {
		if cur == nil {
			return nil
		}
		return t.Add(curRun, cur.Name, cur)
	}
	for rows.Next() {
		var logID int64
		var run, logName string
		var key, value sql.NullString
		if err := rows.Scan(&logID, &run, &logName, &key, &value); err != nil {
			return nil, err
		}
		if logID != curID {
			if err := flush(); err != nil {
				return nil, err
			}
			cur, curID, curRun = record.New(logName), logID, run
		}
		if key.Valid {
			cur.Set(key.String, value.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return t, nil
}

// TreeInfo describes a stored tree.
type TreeInfo struct {
	ID         int64
	Name       string
	Descriptor string
	Logs       int
}

// ListTrees returns all stored trees, oldest first.
func (db *DB) ListTrees(ctx context.Context) ([]TreeInfo, error) {
	rows, err := db.sql.QueryContext(ctx, `
SELECT t.TreeID, t.Name, t.Descriptor, COUNT(l.LogID)
FROM Trees t LEFT JOIN Logs l ON t.TreeID = l.TreeID
GROUP BY t.TreeID, t.Name, t.Descriptor
ORDER BY t.TreeID`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var infos []TreeInfo
	for rows.Next() {
		var ti TreeInfo
		if err := rows.Scan(&ti.ID, &ti.Name, &ti.Descriptor, &ti.Logs); err != nil {
			return nil, err
		}
		infos = append(infos, ti)
	}
	return infos, rows.Err()
}

// CountTrees returns the number of stored trees.
func (db *DB) CountTrees(ctx context.Context) (int, error) {
	var n int
	err := db.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM Trees").Scan(&n)
	return n, err
}

// A Finding is a stored dispatch.Finding.
type Finding struct {
	Dim         int
	Kind        string
	Mode        string
	Group       string
	Metric      string
	Summary     string
	Interesting bool
	Error       string
}

// SaveFindings stores the findings of an analysis of tree id,
// replacing any findings stored before. A finding is marked
// interesting by dispatch.Finding.Interesting with qualityThreshold.
func (db *DB) SaveFindings(ctx context.Context, id int64, findings []*dispatch.Finding, qualityThreshold float64) error {
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM Findings WHERE TreeID = ?", id); err != nil {
			return err
		}
		insert := tx.StmtContext(ctx, db.insertFinding)
		for i, f := range findings {
			var summary, errText string
			if f.Err != nil {
				errText = f.Err.Error()
			} else {
				summary = f.Pass.String()
			}
			_, err := insert.ExecContext(ctx, id, i, f.Dim, f.Kind.String(), f.Mode.String(),
				f.Group(), f.Metric, summary, f.Interesting(qualityThreshold), errText)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving findings for tree %d: %w", id, err)
	}
	return nil
}

// Findings returns the stored findings of tree id, in their original
// order.
func (db *DB) Findings(ctx context.Context, id int64) ([]Finding, error) {
	rows, err := db.sql.QueryContext(ctx, `
SELECT Dim, Kind, Mode, GroupPath, Metric, Summary, Interesting, Error
FROM Findings WHERE TreeID = ? ORDER BY FindingID`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var fs []Finding
	for rows.Next() {
		var f Finding
		if err := rows.Scan(&f.Dim, &f.Kind, &f.Mode, &f.Group, &f.Metric, &f.Summary, &f.Interesting, &f.Error); err != nil {
			return nil, err
		}
		fs = append(fs, f)
	}
	return fs, rows.Err()
}

// DeleteTree removes tree id and everything stored with it.
func (db *DB) DeleteTree(ctx context.Context, id int64) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		for _, q := range []string{
			"DELETE FROM Findings WHERE TreeID = ?",
			"DELETE FROM Metrics WHERE TreeID = ?",
			"DELETE FROM Logs WHERE TreeID = ?",
			"DELETE FROM Trees WHERE TreeID = ?",
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	for _, s := range []*sql.Stmt{db.insertTree, db.insertLog, db.insertMetric, db.insertFinding} {
		if err := s.Close(); err != nil {
			return err
		}
	}
	return db.sql.Close()
}
