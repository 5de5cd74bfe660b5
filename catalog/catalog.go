// Package catalog records the cubes that have been written, together with
// their metadata, footprint and band dates, in a SQL database. Both sqlite
// and postgres are supported.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/nci/gcube/cube"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	dateLayout = "2006-01-02"
)

var schema = []string{
	`create table if not exists cubes (
		name       text primary key,
		path       text not null,
		driver     text not null,
		dtype      text not null,
		count      integer not null,
		height     integer not null,
		width      integer not null,
		transform  text not null,
		crs        text not null,
		nodata     text,
		footprint  text not null,
		created    text not null
	)`,
	`create table if not exists cube_dates (
		name  text not null references cubes(name) on delete cascade,
		band  integer not null,
		date  text not null,
		primary key (name, band)
	)`,
}

// Entry is one registered cube. Dates is aligned with the bands and is
// empty for cubes that were not stacked by date.
type Entry struct {
	Name      string        `json:"name"`
	Path      string        `json:"path"`
	Metadata  cube.Metadata `json:"metadata"`
	Footprint string        `json:"footprint"`
	Dates     []time.Time   `json:"dates,omitempty"`
	Created   time.Time     `json:"created"`
}

// NewEntry fills Footprint from m.
func NewEntry(name, path string, m cube.Metadata, dates []time.Time) (Entry, error) {
	feat, err := cube.Footprint(m)
	if err != nil {
		return Entry{}, err
	}
	raw, err := json.Marshal(feat)
	if err != nil {
		return Entry{}, fmt.Errorf("catalog: footprint: %v", err)
	}
	return Entry{Name: name, Path: path, Metadata: m, Footprint: string(raw), Dates: dates}, nil
}

type Catalog struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and creates the schema when missing.
func Open(ctx context.Context, driver, dsn string) (*Catalog, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("catalog: %w: driver %q", cube.ErrUnsupported, driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: %v", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: %v", err)
	}

	c := &Catalog{db: db, driver: driver}
	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, `pragma foreign_keys = on`); err != nil {
			db.Close()
			return nil, fmt.Errorf("catalog: %v", err)
		}
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("catalog: schema: %v", err)
		}
	}
	return c, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// bind rewrites ? placeholders into postgres $n form.
func (c *Catalog) bind(query string) string {
	if c.driver != DriverPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Register stores e, replacing any earlier entry with the same name.
func (c *Catalog) Register(ctx context.Context, e Entry) (err error) {
	if e.Name == "" {
		return fmt.Errorf("catalog: %w: empty cube name", cube.ErrFormat)
	}
	if e.Created.IsZero() {
		e.Created = time.Now().UTC()
	}
	transform, err := json.Marshal(e.Metadata.Transform)
	if err != nil {
		return fmt.Errorf("catalog: %v", err)
	}
	var nodata interface{}
	if e.Metadata.HasNoData {
		nodata = strconv.FormatFloat(e.Metadata.NoData, 'g', -1, 64)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: %v", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, c.bind(`delete from cube_dates where name = ?`), e.Name); err != nil {
		return fmt.Errorf("catalog: register %s: %v", e.Name, err)
	}
	if _, err = tx.ExecContext(ctx, c.bind(`delete from cubes where name = ?`), e.Name); err != nil {
		return fmt.Errorf("catalog: register %s: %v", e.Name, err)
	}
	_, err = tx.ExecContext(ctx, c.bind(`insert into cubes
		(name, path, driver, dtype, count, height, width, transform, crs, nodata, footprint, created)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		e.Name, e.Path, e.Metadata.Driver, e.Metadata.DataType.String(),
		e.Metadata.Count, e.Metadata.Height, e.Metadata.Width,
		string(transform), e.Metadata.CRS, nodata, e.Footprint,
		e.Created.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("catalog: register %s: %v", e.Name, err)
	}
	for i, d := range e.Dates {
		if _, err = tx.ExecContext(ctx, c.bind(`insert into cube_dates (name, band, date) values (?, ?, ?)`),
			e.Name, i+1, d.Format(dateLayout)); err != nil {
			return fmt.Errorf("catalog: register %s: %v", e.Name, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("catalog: register %s: %v", e.Name, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

const selectCubes = `select name, path, driver, dtype, count, height, width, transform, crs, nodata, footprint, created from cubes`

func scanEntry(row scanner) (Entry, error) {
	var (
		e                       Entry
		dtype, transform, stamp string
		nodata                  sql.NullString
	)
	err := row.Scan(&e.Name, &e.Path, &e.Metadata.Driver, &dtype,
		&e.Metadata.Count, &e.Metadata.Height, &e.Metadata.Width,
		&transform, &e.Metadata.CRS, &nodata, &e.Footprint, &stamp)
	if err != nil {
		return Entry{}, err
	}
	if e.Metadata.DataType, err = cube.ParseDataType(dtype); err != nil {
		return Entry{}, err
	}
	if err = json.Unmarshal([]byte(transform), &e.Metadata.Transform); err != nil {
		return Entry{}, fmt.Errorf("%w: transform: %v", cube.ErrFormat, err)
	}
	if nodata.Valid {
		if e.Metadata.NoData, err = strconv.ParseFloat(nodata.String, 64); err != nil {
			return Entry{}, fmt.Errorf("%w: nodata %q", cube.ErrFormat, nodata.String)
		}
		e.Metadata.HasNoData = true
	}
	if e.Created, err = time.Parse(time.RFC3339, stamp); err != nil {
		return Entry{}, fmt.Errorf("%w: created: %v", cube.ErrFormat, err)
	}
	return e, nil
}

// Get returns the entry for name with its dates, or cube.ErrNotFound.
func (c *Catalog) Get(ctx context.Context, name string) (*Entry, error) {
	e, err := scanEntry(c.db.QueryRowContext(ctx, c.bind(selectCubes+` where name = ?`), name))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("catalog: %s: %w", name, cube.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", name, err)
	}

	rows, err := c.db.QueryContext(ctx, c.bind(`select date from cube_dates where name = ? order by band`), name)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %v", name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("catalog: %s: %v", name, err)
		}
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("catalog: %s: %w: date %q", name, cube.ErrFormat, s)
		}
		e.Dates = append(e.Dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: %s: %v", name, err)
	}
	return &e, nil
}

// List returns every entry ordered by name. Dates are not loaded.
func (c *Catalog) List(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, selectCubes+` order by name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %v", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: list: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list: %v", err)
	}
	return entries, nil
}
