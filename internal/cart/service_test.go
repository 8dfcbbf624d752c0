package cart

import (
	"context"
	"errors"
	"testing"

	"gidimart-be/internal/product"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetItems(ctx context.Context, userID uint) ([]Item, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Item), args.Error(1)
}

func (m *MockRepository) SaveItems(ctx context.Context, userID uint, items []Item) error {
	args := m.Called(ctx, userID, items)
	return args.Error(0)
}

func (m *MockRepository) Clear(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetProduct(ctx context.Context, id uint) (*product.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductRepository) ListProducts(ctx context.Context, limit, offset int32) ([]*product.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*product.Product), args.Error(1)
}

func activeProduct() *product.Product {
	return &product.Product{
		ID:       1,
		Name:     "Wireless Mouse",
		Brand:    "Logi",
		Price:    14500,
		ImageURL: "https://cdn/mouse.png",
		Active:   true,
	}
}

func TestService_Add(t *testing.T) {
	ctx := context.Background()

	t.Run("NewItem", func(t *testing.T) {
		repo := new(MockRepository)
		productRepo := new(MockProductRepository)
		svc := NewService(repo, productRepo)

		productRepo.On("GetProduct", ctx, uint(1)).Return(activeProduct(), nil)
		repo.On("GetItems", ctx, uint(7)).Return(nil, nil)
		repo.On("SaveItems", ctx, uint(7), mock.Anything).Return(nil)

		item, err := svc.Add(ctx, 7, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, "Wireless Mouse", item.Name)
		assert.Equal(t, 2, item.Quantity)
		assert.Equal(t, 14500.0, item.Price)
		repo.AssertExpectations(t)
	})

	t.Run("MergesQuantity", func(t *testing.T) {
		repo := new(MockRepository)
		productRepo := new(MockProductRepository)
		svc := NewService(repo, productRepo)

		existing := []Item{{ProductID: 1, Name: "Wireless Mouse", Price: 14500, Quantity: 1}}
		productRepo.On("GetProduct", ctx, uint(1)).Return(activeProduct(), nil)
		repo.On("GetItems", ctx, uint(7)).Return(existing, nil)
		repo.On("SaveItems", ctx, uint(7), mock.MatchedBy(func(items []Item) bool {
			return len(items) == 1 && items[0].Quantity == 3
		})).Return(nil)

		item, err := svc.Add(ctx, 7, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, item.Quantity)
	})

	t.Run("InactiveProduct", func(t *testing.T) {
		repo := new(MockRepository)
		productRepo := new(MockProductRepository)
		svc := NewService(repo, productRepo)

		p := activeProduct()
		p.Active = false
		productRepo.On("GetProduct", ctx, uint(1)).Return(p, nil)

		_, err := svc.Add(ctx, 7, 1, 1)
		assert.ErrorIs(t, err, ErrProductInactive)
	})

	t.Run("InvalidQuantity", func(t *testing.T) {
		svc := NewService(new(MockRepository), new(MockProductRepository))
		_, err := svc.Add(ctx, 7, 1, 0)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("ProductLookupFails", func(t *testing.T) {
		repo := new(MockRepository)
		productRepo := new(MockProductRepository)
		svc := NewService(repo, productRepo)

		productRepo.On("GetProduct", ctx, uint(1)).Return(nil, product.ErrNotFound)

		_, err := svc.Add(ctx, 7, 1, 1)
		assert.ErrorIs(t, err, product.ErrNotFound)
	})
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := NewService(repo, new(MockProductRepository))

	items := []Item{
		{ProductID: 1, Price: 100, Quantity: 2},
		{ProductID: 2, Price: 250, Quantity: 1},
	}
	repo.On("GetItems", ctx, uint(7)).Return(items, nil)

	snap, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, snap.Empty())
	assert.Equal(t, 450.0, snap.Total)
}

func TestService_Get_EmptyCart(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := NewService(repo, new(MockProductRepository))

	repo.On("GetItems", ctx, uint(7)).Return(nil, nil)

	snap, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, snap.Empty())
	assert.Equal(t, 0.0, snap.Total)
}

func TestService_UpdateQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("SetsQuantity", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockProductRepository))

		repo.On("GetItems", ctx, uint(7)).Return([]Item{{ProductID: 1, Quantity: 1}}, nil)
		repo.On("SaveItems", ctx, uint(7), mock.MatchedBy(func(items []Item) bool {
			return items[0].Quantity == 5
		})).Return(nil)

		assert.NoError(t, svc.UpdateQuantity(ctx, 7, 1, 5))
	})

	t.Run("ZeroRemoves", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockProductRepository))

		repo.On("GetItems", ctx, uint(7)).Return([]Item{{ProductID: 1, Quantity: 1}}, nil)
		repo.On("SaveItems", ctx, uint(7), mock.MatchedBy(func(items []Item) bool {
			return len(items) == 0
		})).Return(nil)

		assert.NoError(t, svc.UpdateQuantity(ctx, 7, 1, 0))
	})

	t.Run("MissingItem", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockProductRepository))

		repo.On("GetItems", ctx, uint(7)).Return(nil, nil)

		err := svc.UpdateQuantity(ctx, 7, 9, 2)
		assert.ErrorIs(t, err, ErrItemNotFound)
	})
}

func TestService_Remove(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := NewService(repo, new(MockProductRepository))

	items := []Item{{ProductID: 1}, {ProductID: 2}}
	repo.On("GetItems", ctx, uint(7)).Return(items, nil)
	repo.On("SaveItems", ctx, uint(7), mock.MatchedBy(func(kept []Item) bool {
		return len(kept) == 1 && kept[0].ProductID == 2
	})).Return(nil)

	assert.NoError(t, svc.Remove(ctx, 7, 1))
}

func TestService_Clear(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := NewService(repo, new(MockProductRepository))

	repo.On("Clear", ctx, uint(7)).Return(nil)
	assert.NoError(t, svc.Clear(ctx, 7))

	repo.On("Clear", ctx, uint(8)).Return(errors.New("redis down"))
	assert.Error(t, svc.Clear(ctx, 8))
}
