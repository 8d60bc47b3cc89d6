package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jinzhu/gorm"
)

// DBSource reads the tables from a SQL database. Column names match the CSV
// headers; row numbers in violations count result rows from 1.
type DBSource struct {
	db *gorm.DB
}

func NewDBSource(db *gorm.DB) *DBSource {
	return &DBSource{db: db}
}

func (s *DBSource) Describe() string {
	return "db:" + s.db.Dialect().GetName()
}

func (s *DBSource) ReadTable(ctx context.Context, name string) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.db.HasTable(name) {
		return nil, fmt.Errorf("table %s does not exist", name)
	}
	rows, err := s.db.Table(name).Rows()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	t := &Table{Name: name, File: name, Header: columns, FirstRow: 1}
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := make([]sql.NullString, len(columns))
		dest := make([]any, len(columns))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}
		rec := make([]string, len(columns))
		for i, v := range raw {
			rec[i] = v.String
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, rows.Err()
}
