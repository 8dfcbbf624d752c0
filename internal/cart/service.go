package cart

import (
	"context"

	"gidimart-be/internal/product"
)

// Service defines the business logic for carts.
type Service interface {
	Add(ctx context.Context, userID, productID uint, quantity int) (*Item, error)
	Get(ctx context.Context, userID uint) (Snapshot, error)
	UpdateQuantity(ctx context.Context, userID, productID uint, quantity int) error
	Remove(ctx context.Context, userID, productID uint) error
	Clear(ctx context.Context, userID uint) error
}

type service struct {
	repo        Repository
	productRepo product.Repository
}

func NewService(repo Repository, productRepo product.Repository) Service {
	return &service{repo: repo, productRepo: productRepo}
}

// Add puts a product in the cart, merging quantities when it is already
// there. Name, brand and price are snapshotted from the catalog here.
func (s *service) Add(ctx context.Context, userID, productID uint, quantity int) (*Item, error) {
	if userID == 0 {
		return nil, ErrUserIDRequired
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.productRepo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, ErrProductInactive
	}

	items, err := s.repo.GetItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += quantity
			if err := s.repo.SaveItems(ctx, userID, items); err != nil {
				return nil, err
			}
			return &items[i], nil
		}
	}

	item := Item{
		ProductID: p.ID,
		Name:      p.Name,
		Brand:     p.Brand,
		Price:     p.Price,
		Quantity:  quantity,
		ImageURL:  p.ImageURL,
	}
	items = append(items, item)

	if err := s.repo.SaveItems(ctx, userID, items); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *service) Get(ctx context.Context, userID uint) (Snapshot, error) {
	if userID == 0 {
		return Snapshot{}, ErrUserIDRequired
	}

	items, err := s.repo.GetItems(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{Items: items, Total: total(items)}, nil
}

// UpdateQuantity sets the quantity for a line; zero or negative removes it.
func (s *service) UpdateQuantity(ctx context.Context, userID, productID uint, quantity int) error {
	if userID == 0 {
		return ErrUserIDRequired
	}
	if quantity <= 0 {
		return s.Remove(ctx, userID, productID)
	}

	items, err := s.repo.GetItems(ctx, userID)
	if err != nil {
		return err
	}

	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			return s.repo.SaveItems(ctx, userID, items)
		}
	}

	return ErrItemNotFound
}

func (s *service) Remove(ctx context.Context, userID, productID uint) error {
	if userID == 0 {
		return ErrUserIDRequired
	}

	items, err := s.repo.GetItems(ctx, userID)
	if err != nil {
		return err
	}

	kept := items[:0]
	found := false
	for _, it := range items {
		if it.ProductID == productID {
			found = true
			continue
		}
		kept = append(kept, it)
	}
	if !found {
		return ErrItemNotFound
	}

	return s.repo.SaveItems(ctx, userID, kept)
}

func (s *service) Clear(ctx context.Context, userID uint) error {
	if userID == 0 {
		return ErrUserIDRequired
	}
	return s.repo.Clear(ctx, userID)
}
