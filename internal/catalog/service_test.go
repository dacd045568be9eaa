package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	products map[int64]*Product
	updates  map[string]any
	nextID   int64
	err      error
}

func newMockRepository() *mockRepository {
	return &mockRepository{products: map[int64]*Product{}}
}

func (m *mockRepository) List(ctx context.Context) ([]Product, error) {
	out := []Product{}
	for _, p := range m.products {
		out = append(out, *p)
	}
	return out, m.err
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepository) Create(ctx context.Context, req CreateProductRequest) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.nextID++
	m.products[m.nextID] = &Product{ID: m.nextID, Name: req.Name, Price: req.Price, Stock: req.Stock}
	return m.nextID, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	m.updates = updates
	return nil
}

type mockCache struct{ bumps int }

func (m *mockCache) Bump(ctx context.Context) error {
	m.bumps++
	return nil
}

func TestCreateProduct(t *testing.T) {
	repo := newMockRepository()
	cache := &mockCache{}
	svc := NewService(repo, nil, cache)

	id, err := svc.Create(context.Background(), CreateProductRequest{Name: "Rice 1kg", Price: 4.5, Stock: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, "Rice 1kg", repo.products[1].Name)
	assert.Equal(t, 1, cache.bumps, "create must invalidate cached reports")
}

func TestUpdateProductBuildsPatchFromSetFields(t *testing.T) {
	repo := newMockRepository()
	repo.products[1] = &Product{ID: 1, Name: "Rice 1kg"}
	cache := &mockCache{}
	svc := NewService(repo, nil, cache)

	price := 4.75
	archived := true
	err := svc.Update(context.Background(), 1, UpdateProductRequest{Price: &price, Archived: &archived})
	require.NoError(t, err)

	assert.Len(t, repo.updates, 2)
	assert.Equal(t, 4.75, repo.updates["price"])
	assert.Equal(t, true, repo.updates["archived"])
	assert.Equal(t, 1, cache.bumps)
}

func TestUpdateProductNoFieldsIsNoop(t *testing.T) {
	repo := newMockRepository()
	repo.products[1] = &Product{ID: 1}
	svc := NewService(repo, nil, nil)

	require.NoError(t, svc.Update(context.Background(), 1, UpdateProductRequest{}))
	assert.Nil(t, repo.updates)
}

func TestUpdateUnknownProduct(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	name := "x"
	err := svc.Update(context.Background(), 42, UpdateProductRequest{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}
