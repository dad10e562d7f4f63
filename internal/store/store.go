// Package store persists reusable script/material definitions via
// hand-written SQL over sqlx, and runs a gorm-backed ReconstructionRun
// audit log alongside it.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/arxos/crystalgeo/internal/applog"
	"github.com/arxos/crystalgeo/internal/config"
)

// Store owns both the sqlx connection (ScriptDefinition/MaterialPreset)
// and the gorm connection (ReconstructionRun audit log) against the same
// Postgres database, split by concern rather than used redundantly for
// the same tables.
type Store struct {
	db   *sqlx.DB
	gorm *gorm.DB
}

// Open establishes both connections and runs the gorm AutoMigrate for the
// audit log table. The sqlx-backed tables are expected to already exist
// (created by an out-of-band migration); crystalgeo does not ship a
// migration runner.
func Open(cfg config.DatabaseConfig, log *applog.Logger) (*Store, error) {
	dsn := cfg.DSN()

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: failed to connect: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("store: failed to ping: %w", err)
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("store: failed to open gorm: %w", err)
	}
	if err := gdb.AutoMigrate(&ReconstructionRun{}); err != nil {
		return nil, fmt.Errorf("store: failed to migrate audit log: %w", err)
	}

	log.Event("postgres store initialized", "host", cfg.Host, "port", cfg.Port, "db", cfg.Database)
	return &Store{db: db, gorm: gdb}, nil
}

// Close releases both underlying connections.
func (s *Store) Close() error {
	if sqlDB, err := s.gorm.DB(); err == nil {
		sqlDB.Close()
	}
	return s.db.Close()
}

// ScriptDefinition is a reusable lattice script submission: bounds,
// material, and the serialized op list the api layer encodes/decodes
// (store treats the op list as an opaque JSON blob).
type ScriptDefinition struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	Basis      string    `db:"basis"` // "cubic" | "hexagonal"
	BoundsH    float64   `db:"bounds_h"`
	BoundsK    float64   `db:"bounds_k"`
	BoundsL    float64   `db:"bounds_l"`
	MaterialE1 int       `db:"material_e1"`
	MaterialE2 int       `db:"material_e2"`
	OpsJSON    []byte    `db:"ops_json"`
	CreatedAt  time.Time `db:"created_at"`
}

// MaterialPreset is a named (E1,E2) pair for reuse across script
// submissions (e.g. "diamond", "gan", "sic").
type MaterialPreset struct {
	Name      string    `db:"name"`
	E1        int       `db:"e1"`
	E2        int       `db:"e2"`
	CreatedAt time.Time `db:"created_at"`
}

const insertScriptDefinitionSQL = `
	INSERT INTO script_definitions
		(id, name, basis, bounds_h, bounds_k, bounds_l, material_e1, material_e2, ops_json, created_at)
	VALUES
		(:id, :name, :basis, :bounds_h, :bounds_k, :bounds_l, :material_e1, :material_e2, :ops_json, now())`

const getScriptDefinitionSQL = `SELECT id, name, basis, bounds_h, bounds_k, bounds_l, material_e1, material_e2, ops_json, created_at
	FROM script_definitions WHERE id = $1`

const listMaterialPresetsSQL = `SELECT name, e1, e2, created_at FROM material_presets ORDER BY name`

const upsertMaterialPresetSQL = `
	INSERT INTO material_presets (name, e1, e2, created_at)
	VALUES (:name, :e1, :e2, now())
	ON CONFLICT (name) DO UPDATE SET e1 = EXCLUDED.e1, e2 = EXCLUDED.e2`

// InsertScriptDefinition persists a script definition, expecting the
// caller to have already populated ID (a uuid string from internal/api).
func (s *Store) InsertScriptDefinition(ctx context.Context, def ScriptDefinition) error {
	_, err := s.db.NamedExecContext(ctx, insertScriptDefinitionSQL, def)
	if err != nil {
		return fmt.Errorf("store: insert script definition: %w", err)
	}
	return nil
}

// GetScriptDefinition fetches a script definition by id.
func (s *Store) GetScriptDefinition(ctx context.Context, id string) (*ScriptDefinition, error) {
	var def ScriptDefinition
	if err := s.db.GetContext(ctx, &def, getScriptDefinitionSQL, id); err != nil {
		return nil, fmt.Errorf("store: get script definition %q: %w", id, err)
	}
	return &def, nil
}

// ListMaterialPresets returns every named material preset.
func (s *Store) ListMaterialPresets(ctx context.Context) ([]MaterialPreset, error) {
	var presets []MaterialPreset
	if err := s.db.SelectContext(ctx, &presets, listMaterialPresetsSQL); err != nil {
		return nil, fmt.Errorf("store: list material presets: %w", err)
	}
	return presets, nil
}

// UpsertMaterialPreset inserts or replaces a named material preset.
func (s *Store) UpsertMaterialPreset(ctx context.Context, preset MaterialPreset) error {
	_, err := s.db.NamedExecContext(ctx, upsertMaterialPresetSQL, preset)
	if err != nil {
		return fmt.Errorf("store: upsert material preset %q: %w", preset.Name, err)
	}
	return nil
}

// ReconstructionSummary is the per-step counters gorm stores as JSON
// alongside a ReconstructionRun row.
type ReconstructionSummary struct {
	RemovalRounds   int `json:"removal_rounds"`
	CollisionRounds int `json:"collision_rounds"`
	DimerBonds      int `json:"dimer_bonds"`
	PassivatorAtoms int `json:"passivator_atoms"`
}

// ReconstructionRun is the audit-log row gorm AutoMigrates and writes one
// row per POST /v1/reconstruct call.
type ReconstructionRun struct {
	ID         string `gorm:"primaryKey"`
	StartedAt  time.Time
	FinishedAt time.Time
	AtomCount  int
	BondCount  int
	H2Count    int
	Succeeded  bool
	ErrorText  string
	Summary    datatypes.JSONType[ReconstructionSummary]
}

// RecordReconstructionRun writes one audit row per reconstruction call.
func (s *Store) RecordReconstructionRun(ctx context.Context, run ReconstructionRun) error {
	if err := s.gorm.WithContext(ctx).Create(&run).Error; err != nil {
		return fmt.Errorf("store: record reconstruction run: %w", err)
	}
	return nil
}
