// Package localstore keeps a catalogue of films in SQLite and serves it as a
// page source.
package localstore

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	wp "github.com/zhangzqs/windowpager-go"
)

// Film is one catalogue entry. Number is its position in the catalogue.
type Film struct {
	ID        string
	Name      string
	Year      int
	Number    int
	CreatedAt time.Time
}

type filmRow struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	Year      int `gorm:"index"`
	Number    int `gorm:"uniqueIndex"`
	CreatedAt time.Time
}

func (filmRow) TableName() string {
	return "films"
}

func (r filmRow) film() Film {
	return Film{ID: r.ID, Name: r.Name, Year: r.Year, Number: r.Number, CreatedAt: r.CreatedAt}
}

// Store is a film catalogue backed by SQLite.
type Store struct {
	db *gorm.DB
}

// Open opens the catalogue at dsn, creating its table when missing. Use
// ":memory:" for a throwaway catalogue.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", dsn)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get connection pool")
	}
	// an in-memory database lives and dies with its connection
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&filmRow{}); err != nil {
		return nil, errors.Wrap(err, "migrate films")
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "get connection pool")
	}
	return sqlDB.Close()
}

// Seed appends n generated films after the last one.
func (s *Store) Seed(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int
		err := tx.Model(&filmRow{}).Select("COALESCE(MAX(number), 0)").Scan(&last).Error
		if err != nil {
			return errors.Wrap(err, "find last film")
		}

		now := time.Now()
		rows := make([]filmRow, n)
		for i := range rows {
			number := last + i + 1
			rows[i] = filmRow{
				ID:        uuid.NewString(),
				Name:      fmt.Sprintf("Film %04d", number),
				Year:      1990 + (number*7)%35,
				Number:    number,
				CreatedAt: now,
			}
		}
		return errors.Wrap(tx.CreateInBatches(rows, 100).Error, "insert films")
	})
}

// Films returns up to limit films in catalogue order, skipping offset.
func (s *Store) Films(ctx context.Context, limit, offset int) ([]Film, error) {
	var rows []filmRow
	err := s.db.WithContext(ctx).Order("number").Limit(limit).Offset(offset).Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "query films")
	}
	films := make([]Film, len(rows))
	for i, r := range rows {
		films[i] = r.film()
	}
	return films, nil
}

// Count returns the number of films.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&filmRow{}).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "count films")
	}
	return int(n), nil
}

// Delete removes the film with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&filmRow{}, "id = ?", id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete film %s", id)
	}
	if res.RowsAffected == 0 {
		return errors.Errorf("film %s not found", id)
	}
	return nil
}

// Clear removes every film.
func (s *Store) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&filmRow{}).Error
	return errors.Wrap(err, "clear films")
}

// Source serves the catalogue by page number.
func (s *Store) Source() wp.DataSource[Film, int] {
	return wp.DataSourceFunc[Film, int](func(ctx context.Context, key, pageSize int) (wp.Page[Film, int], error) {
		total, err := s.Count(ctx)
		if err != nil {
			return wp.Page[Film, int]{}, err
		}
		films, err := s.Films(ctx, pageSize, key*pageSize)
		if err != nil {
			return wp.Page[Film, int]{}, err
		}
		return wp.NewOffsetPage(key, pageSize, films, total), nil
	})
}
