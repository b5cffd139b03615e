package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Entry is one row of the kv_entries table.
type Entry struct {
	Name      string    `gorm:"primaryKey;size:128"`
	Value     string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName pins the table created by the SQL migrations.
func (Entry) TableName() string {
	return "kv_entries"
}

// Postgres is a Store backed by a Postgres table through GORM.
type Postgres struct {
	db *gorm.DB
}

// OpenPostgres connects to the database at dsn and checks it is reachable.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	var entry Entry
	err := p.db.WithContext(ctx).Where("name = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	entry := Entry{Name: key, Value: value, UpdatedAt: time.Now().UTC()}
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

// storedInt reads the existing row's value with leading-digit semantics.
const storedInt = `COALESCE(substring(kv_entries.value from '^[0-9]+'), '0')::bigint`

func (p *Postgres) Incr(ctx context.Context, key string) (int, error) {
	return p.upsertInt(ctx, key, "1", "("+storedInt+" + 1)::text")
}

func (p *Postgres) SetMax(ctx context.Context, key string, v int) (int, error) {
	return p.upsertInt(ctx, key, strconv.Itoa(max(v, 0)), "GREATEST("+storedInt+", excluded.value::bigint)::text")
}

// upsertInt inserts initial for a new key, or rewrites an existing row with
// expr, in one statement. It returns the stored value.
func (p *Postgres) upsertInt(ctx context.Context, key, initial, expr string) (int, error) {
	entry := Entry{Name: key, Value: initial, UpdatedAt: time.Now().UTC()}
	err := p.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.Assignments(map[string]any{
				"value":      gorm.Expr(expr),
				"updated_at": entry.UpdatedAt,
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "value"}}},
	).Create(&entry).Error
	if err != nil {
		return 0, err
	}
	return parseInt(entry.Value), nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ Store = (*Postgres)(nil)

// Migrate applies the embedded SQL migrations to the database at dsn.
func Migrate(dsn string) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("migration setup failed: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("database migration failed: %w", err)
	}
	return nil
}
