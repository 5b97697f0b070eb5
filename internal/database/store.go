package database

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/reference"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/types"
)

// lookupColumn is the natural key column of each reference table.
var lookupColumn = map[reference.Kind]string{
	reference.KindPartition:   "nro_partida",
	reference.KindCatalogItem: "nombre",
	reference.KindUnit:        "nombre",
}

// Store is the MySQL implementation of reference.Store plus the watermark
// reads the later stages align against.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// =============================================================================
// REFERENCE LOOKUPS
// =============================================================================

// FindID implements reference.Store.
func (s *Store) FindID(ctx context.Context, kind reference.Kind, key string) (int64, bool, error) {
	column, ok := lookupColumn[kind]
	if !ok {
		return 0, false, errors.Errorf("unknown reference kind %q", kind)
	}

	query := fmt.Sprintf("SELECT id FROM %s WHERE LOWER(TRIM(%s)) = ? LIMIT 1", kind, column)

	var ids []int64
	if err := s.db.WithContext(ctx).Raw(query, key).Scan(&ids).Error; err != nil {
		return 0, false, errors.Wrapf(err, "select %s", kind)
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[0], true, nil
}

// Create implements reference.Store. Each insert runs in autocommit mode so
// the row is visible to the next lookup.
func (s *Store) Create(ctx context.Context, e reference.NewEntity) (int64, error) {
	db := s.db.WithContext(ctx)
	y, m, d := e.At.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, e.At.Location())

	switch e.Kind {
	case reference.KindPartition:
		row := Partition{PartitionNumber: e.Name, Name: e.Label, RegisteredAt: day, CreatedAt: e.At, UpdatedAt: e.At}
		if err := db.Create(&row).Error; err != nil {
			return 0, errors.Wrap(err, "insert partidas")
		}
		return row.ID, nil

	case reference.KindCatalogItem:
		row := CatalogItem{Name: e.Name, RegisteredAt: day, CreatedAt: e.At, UpdatedAt: e.At}
		if err := db.Create(&row).Error; err != nil {
			return 0, errors.Wrap(err, "insert catalogo_items")
		}
		return row.ID, nil

	case reference.KindUnit:
		row := MeasureUnit{Name: e.Name, Abbreviation: e.Abbreviation, RegisteredAt: day, CreatedAt: e.At, UpdatedAt: e.At}
		if err := db.Create(&row).Error; err != nil {
			return 0, errors.Wrap(err, "insert unidad_medidas")
		}
		return row.ID, nil
	}
	return 0, errors.Errorf("unknown reference kind %q", e.Kind)
}

// =============================================================================
// WATERMARK READS
// =============================================================================

// IntakesAfter returns ingresos rows with id > watermark in id order.
func (s *Store) IntakesAfter(ctx context.Context, watermark int64) ([]types.IntakeRef, error) {
	var rows []intakeRow
	err := s.db.WithContext(ctx).
		Raw("SELECT id, almacen_id FROM ingresos WHERE id > ? ORDER BY id ASC", watermark).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "select ingresos")
	}

	out := make([]types.IntakeRef, len(rows))
	for i, r := range rows {
		out[i] = types.IntakeRef{ID: r.ID, WarehouseID: r.WarehouseID}
	}
	return out, nil
}

// IntakeDetailsAfter returns ingreso_detalles rows with id > watermark in id
// order.
func (s *Store) IntakeDetailsAfter(ctx context.Context, watermark int64) ([]types.IntakeDetailRef, error) {
	var rows []intakeDetailRow
	err := s.db.WithContext(ctx).
		Raw("SELECT id, ingreso_id, almacen_id, partida_id, item_id FROM ingreso_detalles WHERE id > ? ORDER BY id ASC", watermark).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "select ingreso_detalles")
	}

	out := make([]types.IntakeDetailRef, len(rows))
	for i, r := range rows {
		out[i] = types.IntakeDetailRef{
			ID:          r.ID,
			IntakeID:    r.IntakeID,
			WarehouseID: r.WarehouseID,
			PartitionID: r.PartitionID,
			ItemID:      r.ItemID,
		}
	}
	return out, nil
}

// CatalogNames maps catalogo_items.id to nombre.
func (s *Store) CatalogNames(ctx context.Context) (map[int64]string, error) {
	var rows []catalogNameRow
	if err := s.db.WithContext(ctx).Raw("SELECT id, nombre FROM catalogo_items").Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "select catalogo_items")
	}

	names := make(map[int64]string, len(rows))
	for _, r := range rows {
		names[r.ID] = r.Name
	}
	return names, nil
}
