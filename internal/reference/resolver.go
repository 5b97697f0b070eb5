// =============================================================================
// XLSX to SQL Migration - Reference Resolver
// =============================================================================
//
// The resolver turns workbook text into foreign keys for three lookup tables:
//   - partidas        (budget partitions, keyed by nro_partida)
//   - catalogo_items  (catalog items, keyed by nombre)
//   - unidad_medidas  (units of measure, keyed by nombre)
//
// LOOKUP RULES:
//   - Names are compared trimmed and lower-cased on both sides.
//   - A missing entity is created on the spot and its new id returned. The
//     store commits each creation so the next lookup sees it.
//   - Every creation is logged as a warning: it points at a gap in the
//     source data, not at a pipeline bug.
//   - A blank partition code or description resolves to no id (NULL FK).
//     A blank unit resolves to the configured unknown-unit name.
//
// =============================================================================

package reference

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/normalize"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/types"
)

// Kind identifies a reference table.
type Kind string

const (
	KindPartition   Kind = "partidas"
	KindCatalogItem Kind = "catalogo_items"
	KindUnit        Kind = "unidad_medidas"
)

// AbbreviationLength is the width of unidad_medidas.abreviatura.
const AbbreviationLength = 10

// NewEntity is the row inserted when a lookup misses.
type NewEntity struct {
	Kind Kind

	// Name is the trimmed source text (nro_partida for partitions).
	Name string

	// Label is partidas.nombre; empty for other kinds.
	Label string

	// Abbreviation is unidad_medidas.abreviatura; empty for other kinds.
	Abbreviation string

	// At stamps fecha_registro, created_at and updated_at.
	At time.Time
}

// Store is the persistence side of the resolver.
type Store interface {
	// FindID looks an entity up by its trimmed, lower-cased key.
	FindID(ctx context.Context, kind Kind, key string) (id int64, found bool, err error)

	// Create inserts the entity, commits, and returns the new id.
	Create(ctx context.Context, entity NewEntity) (int64, error)
}

// Resolver finds or creates reference entities. It assumes a single writer.
type Resolver struct {
	store       Store
	logger      logrus.FieldLogger
	at          time.Time
	unknownUnit string

	cache    map[Kind]map[string]int64
	warnings []types.Warning
	lookups  int
}

// NewResolver creates a resolver.
//
// PARAMETERS:
//   - store: Lookup and insert access to the reference tables.
//   - logger: Receives one warning per created entity.
//   - at: The batch instant stamped on created rows.
//   - unknownUnit: The unit name used for blank unit cells.
func NewResolver(store Store, logger logrus.FieldLogger, at time.Time, unknownUnit string) *Resolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Resolver{
		store:       store,
		logger:      logger,
		at:          at,
		unknownUnit: unknownUnit,
		cache: map[Kind]map[string]int64{
			KindPartition:   {},
			KindCatalogItem: {},
			KindUnit:        {},
		},
	}
}

// Partition resolves a partition code. A blank code yields nil.
func (r *Resolver) Partition(ctx context.Context, code string) (*int64, error) {
	if normalize.IsBlank(code) {
		return nil, nil
	}
	return r.resolve(ctx, KindPartition, code)
}

// CatalogItem resolves an item description. A blank description yields nil.
func (r *Resolver) CatalogItem(ctx context.Context, description string) (*int64, error) {
	if normalize.IsBlank(description) {
		return nil, nil
	}
	return r.resolve(ctx, KindCatalogItem, description)
}

// Unit resolves a unit label. A blank label resolves the unknown unit.
func (r *Resolver) Unit(ctx context.Context, label string) (*int64, error) {
	if normalize.IsBlank(label) {
		label = r.unknownUnit
	}
	return r.resolve(ctx, KindUnit, label)
}

func (r *Resolver) resolve(ctx context.Context, kind Kind, raw string) (*int64, error) {
	key := normalize.Key(raw)
	if id, ok := r.cache[kind][key]; ok {
		return &id, nil
	}

	r.lookups++
	id, found, err := r.store.FindID(ctx, kind, key)
	if err != nil {
		return nil, fmt.Errorf("lookup %s %q: %w", kind, key, err)
	}

	if !found {
		entity := r.newEntity(kind, raw)
		id, err = r.store.Create(ctx, entity)
		if err != nil {
			return nil, fmt.Errorf("create %s %q: %w", kind, entity.Name, err)
		}

		r.logger.WithFields(logrus.Fields{
			"kind": kind,
			"name": key,
			"id":   id,
		}).Warn("reference not found, created")
		r.warnings = append(r.warnings, types.Warning{
			Code:    types.WarnReferenceCreated,
			Message: fmt.Sprintf("%s: %q not found, created id=%d", kind, key, id),
			Fields:  map[string]any{"kind": string(kind), "name": key, "id": id},
		})
	}

	r.cache[kind][key] = id
	return &id, nil
}

func (r *Resolver) newEntity(kind Kind, raw string) NewEntity {
	name := strings.TrimSpace(raw)
	entity := NewEntity{Kind: kind, Name: name, At: r.at}

	switch kind {
	case KindPartition:
		entity.Label = "Partida " + name
	case KindUnit:
		entity.Abbreviation = truncateRunes(name, AbbreviationLength)
	}
	return entity
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Warnings returns one reference_created warning per created entity.
func (r *Resolver) Warnings() []types.Warning {
	return r.warnings
}

// Created is the number of entities this resolver inserted.
func (r *Resolver) Created() int {
	return len(r.warnings)
}

// Lookups is the number of store round trips, cache hits excluded.
func (r *Resolver) Lookups() int {
	return r.lookups
}
