package cart

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"storefront-service/clients"
	"storefront-service/models"
)

var (
	ErrMinQuantity     = errors.New("quantity cannot go below 1")
	ErrLineBusy        = errors.New("cart line is already being updated")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

type API interface {
	GetCart(ctx context.Context) (*models.Cart, error)
	AddToCart(ctx context.Context, productID string, quantity int) (*models.Cart, error)
	UpdateCartItem(ctx context.Context, productID string, quantity int) (*models.Cart, error)
	RemoveCartItem(ctx context.Context, productID string) (*models.Cart, error)
	ClearCart(ctx context.Context) (*models.Cart, error)
}

// Service runs cart mutations. Every mutation is a single API request and
// its result is the whole cart the API returned.
type Service struct {
	api    API
	guard  *LineGuard
	logger *zap.Logger
}

func NewService(api API, guard *LineGuard, logger *zap.Logger) *Service {
	if guard == nil {
		guard = NewLineGuard()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, guard: guard, logger: logger}
}

func (s *Service) Guard() *LineGuard {
	return s.guard
}

// Get returns the caller's cart. A cart the API does not know yet is empty.
func (s *Service) Get(ctx context.Context) (*models.Cart, error) {
	c, err := s.api.GetCart(ctx)
	if err != nil {
		if clients.IsNotFound(err) {
			return &models.Cart{Items: []models.CartItem{}}, nil
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) guarded(owner, productID string, fn func() (*models.Cart, error)) (*models.Cart, error) {
	release, ok := s.guard.Acquire(owner, productID)
	if !ok {
		return nil, ErrLineBusy
	}
	defer release()
	return fn()
}

func (s *Service) Add(ctx context.Context, owner, productID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	return s.guarded(owner, productID, func() (*models.Cart, error) {
		return s.api.AddToCart(ctx, productID, quantity)
	})
}

// Increment asks for current+1 where current is the quantity the caller
// was shown. An unknown current quantity sends nothing.
func (s *Service) Increment(ctx context.Context, owner, productID string, current int) (*models.Cart, error) {
	if current < 1 {
		return nil, ErrInvalidQuantity
	}
	return s.guarded(owner, productID, func() (*models.Cart, error) {
		return s.api.UpdateCartItem(ctx, productID, current+1)
	})
}

// Decrement asks for current-1. At quantity 1 nothing is sent.
func (s *Service) Decrement(ctx context.Context, owner, productID string, current int) (*models.Cart, error) {
	if current < 1 {
		return nil, ErrInvalidQuantity
	}
	if current == 1 {
		return nil, ErrMinQuantity
	}
	return s.guarded(owner, productID, func() (*models.Cart, error) {
		return s.api.UpdateCartItem(ctx, productID, current-1)
	})
}

func (s *Service) Remove(ctx context.Context, owner, productID string) (*models.Cart, error) {
	return s.guarded(owner, productID, func() (*models.Cart, error) {
		return s.api.RemoveCartItem(ctx, productID)
	})
}

func (s *Service) Clear(ctx context.Context) (*models.Cart, error) {
	return s.api.ClearCart(ctx)
}
