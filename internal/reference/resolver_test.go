package reference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/normalize"
)

// memoryStore mimics the reference tables: LOWER(TRIM(name)) lookups and
// auto-increment ids per table.
type memoryStore struct {
	rows    map[Kind]map[string]int64
	created []NewEntity
	finds   int
	nextID  int64
	findErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rows: map[Kind]map[string]int64{}, nextID: 100}
}

func (m *memoryStore) FindID(_ context.Context, kind Kind, key string) (int64, bool, error) {
	m.finds++
	if m.findErr != nil {
		return 0, false, m.findErr
	}
	id, ok := m.rows[kind][key]
	return id, ok, nil
}

func (m *memoryStore) Create(_ context.Context, e NewEntity) (int64, error) {
	if m.rows[e.Kind] == nil {
		m.rows[e.Kind] = map[string]int64{}
	}
	m.nextID++
	m.rows[e.Kind][normalize.Key(e.Name)] = m.nextID
	m.created = append(m.created, e)
	return m.nextID, nil
}

var batchAt = time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

func newTestResolver(store Store) (*Resolver, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	return NewResolver(store, logger, batchAt, "DESCONOCIDO"), hook
}

func TestCatalogItemIdempotent(t *testing.T) {
	store := newMemoryStore()
	r, hook := newTestResolver(store)
	ctx := context.Background()

	first, err := r.CatalogItem(ctx, "Gasa Esteril")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := r.CatalogItem(ctx, "Gasa Esteril")
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, *first, *second)
	assert.Len(t, store.created, 1)
	assert.Equal(t, "Gasa Esteril", store.created[0].Name)
	assert.Equal(t, batchAt, store.created[0].At)
	assert.Equal(t, 1, r.Created())

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "gasa esteril", hook.LastEntry().Data["name"])
}

func TestIdempotentAcrossRuns(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()

	run1, _ := newTestResolver(store)
	id1, err := run1.CatalogItem(ctx, "Gasa Esteril")
	require.NoError(t, err)

	run2, hook := newTestResolver(store)
	id2, err := run2.CatalogItem(ctx, "  gasa esteril ")
	require.NoError(t, err)

	assert.Equal(t, *id1, *id2)
	assert.Len(t, store.created, 1)
	assert.Zero(t, run2.Created())
	assert.Empty(t, hook.AllEntries())
}

func TestCaseAndSpacingShareOneEntity(t *testing.T) {
	store := newMemoryStore()
	r, _ := newTestResolver(store)
	ctx := context.Background()

	a, err := r.Unit(ctx, "Caja")
	require.NoError(t, err)
	b, err := r.Unit(ctx, " CAJA ")
	require.NoError(t, err)

	assert.Equal(t, *a, *b)
	assert.Equal(t, 1, r.Lookups())
}

func TestBlankPartitionIsNil(t *testing.T) {
	store := newMemoryStore()
	r, _ := newTestResolver(store)

	for _, code := range []string{"", "   ", "nan"} {
		id, err := r.Partition(context.Background(), code)
		require.NoError(t, err)
		assert.Nil(t, id)
	}
	assert.Zero(t, store.finds)
}

func TestBlankDescriptionIsNil(t *testing.T) {
	r, _ := newTestResolver(newMemoryStore())
	id, err := r.CatalogItem(context.Background(), " ")
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestNewPartitionDefaults(t *testing.T) {
	store := newMemoryStore()
	r, _ := newTestResolver(store)

	id, err := r.Partition(context.Background(), " 39800 ")
	require.NoError(t, err)
	require.NotNil(t, id)

	require.Len(t, store.created, 1)
	assert.Equal(t, KindPartition, store.created[0].Kind)
	assert.Equal(t, "39800", store.created[0].Name)
	assert.Equal(t, "Partida 39800", store.created[0].Label)
}

func TestBlankUnitUsesUnknown(t *testing.T) {
	store := newMemoryStore()
	r, _ := newTestResolver(store)

	id, err := r.Unit(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "DESCONOCIDO", store.created[0].Name)
	assert.Equal(t, "DESCONOCID", store.created[0].Abbreviation)
}

func TestUnitAbbreviationCountsRunes(t *testing.T) {
	store := newMemoryStore()
	r, _ := newTestResolver(store)

	_, err := r.Unit(context.Background(), "Bolsa pequeña grande")
	require.NoError(t, err)
	assert.Equal(t, "Bolsa pequ", store.created[0].Abbreviation)

	_, err = r.Unit(context.Background(), "Pieza")
	require.NoError(t, err)
	assert.Equal(t, "Pieza", store.created[1].Abbreviation)
}

func TestLookupErrorPropagates(t *testing.T) {
	store := newMemoryStore()
	store.findErr = errors.New("connection refused")
	r, _ := newTestResolver(store)

	_, err := r.CatalogItem(context.Background(), "Algodon")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.findErr)
	assert.Contains(t, err.Error(), "catalogo_items")
}
