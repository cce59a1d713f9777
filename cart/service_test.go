package cart

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-service/clients"
	"storefront-service/models"
)

type MockAPI struct{ mock.Mock }

func (m *MockAPI) result(args mock.Arguments) (*models.Cart, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *MockAPI) GetCart(ctx context.Context) (*models.Cart, error) {
	return m.result(m.Called(ctx))
}

func (m *MockAPI) AddToCart(ctx context.Context, productID string, quantity int) (*models.Cart, error) {
	return m.result(m.Called(ctx, productID, quantity))
}

func (m *MockAPI) UpdateCartItem(ctx context.Context, productID string, quantity int) (*models.Cart, error) {
	return m.result(m.Called(ctx, productID, quantity))
}

func (m *MockAPI) RemoveCartItem(ctx context.Context, productID string) (*models.Cart, error) {
	return m.result(m.Called(ctx, productID))
}

func (m *MockAPI) ClearCart(ctx context.Context) (*models.Cart, error) {
	return m.result(m.Called(ctx))
}

func cartWith(productID string, qty int, price float64) *models.Cart {
	total := price * float64(qty)
	return &models.Cart{
		Items:              []models.CartItem{{ProductID: productID, Quantity: qty, Price: price}},
		Total:              total,
		TotalAfterDiscount: total,
	}
}

func TestGetTreatsNotFoundAsEmpty(t *testing.T) {
	api := new(MockAPI)
	api.On("GetCart", mock.Anything).Return(nil, &clients.APIError{StatusCode: http.StatusNotFound})

	c, err := NewService(api, nil, nil).Get(context.Background())
	require.NoError(t, err)
	assert.True(t, c.Empty())
}

func TestGetPropagatesOtherErrors(t *testing.T) {
	api := new(MockAPI)
	api.On("GetCart", mock.Anything).Return(nil, &clients.APIError{StatusCode: http.StatusInternalServerError})

	_, err := NewService(api, nil, nil).Get(context.Background())
	assert.True(t, clients.IsServerError(err))
}

func TestIncrementReplacesCartWithResponse(t *testing.T) {
	api := new(MockAPI)
	server := cartWith("p1", 3, 9.5)
	server.TotalAfterDiscount = 25
	api.On("UpdateCartItem", mock.Anything, "p1", 3).Return(server, nil)

	c, err := NewService(api, nil, nil).Increment(context.Background(), "s1", "p1", 2)
	require.NoError(t, err)

	assert.Same(t, server, c)
	assert.Equal(t, 25.0, c.GrandTotal())
	api.AssertExpectations(t)
}

func TestDecrementAtOneSendsNothing(t *testing.T) {
	api := new(MockAPI)

	_, err := NewService(api, nil, nil).Decrement(context.Background(), "s1", "p1", 1)
	assert.ErrorIs(t, err, ErrMinQuantity)
	api.AssertNotCalled(t, "UpdateCartItem", mock.Anything, mock.Anything, mock.Anything)
}

func TestUnknownCurrentQuantitySendsNothing(t *testing.T) {
	api := new(MockAPI)
	svc := NewService(api, nil, nil)

	for _, current := range []int{0, -3} {
		_, err := svc.Increment(context.Background(), "s1", "p1", current)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		_, err = svc.Decrement(context.Background(), "s1", "p1", current)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
	api.AssertNotCalled(t, "UpdateCartItem", mock.Anything, mock.Anything, mock.Anything)
}

func TestDecrementRequestsOneLess(t *testing.T) {
	api := new(MockAPI)
	api.On("UpdateCartItem", mock.Anything, "p1", 1).Return(cartWith("p1", 1, 2), nil)

	c, err := NewService(api, nil, nil).Decrement(context.Background(), "s1", "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Items[0].Quantity)
	api.AssertExpectations(t)
}

func TestFailedMutationReturnsError(t *testing.T) {
	api := new(MockAPI)
	api.On("RemoveCartItem", mock.Anything, "p1").Return(nil, errors.New("boom"))
	svc := NewService(api, nil, nil)

	c, err := svc.Remove(context.Background(), "s1", "p1")
	assert.Error(t, err)
	assert.Nil(t, c)
	assert.False(t, svc.Guard().Busy("s1", "p1"), "line is released after failure")
}

func TestBusyLineRejectsSecondMutation(t *testing.T) {
	api := new(MockAPI)
	entered := make(chan struct{})
	unblock := make(chan struct{})
	api.On("UpdateCartItem", mock.Anything, "p1", 3).
		Run(func(mock.Arguments) {
			close(entered)
			<-unblock
		}).
		Return(cartWith("p1", 3, 1), nil)
	api.On("UpdateCartItem", mock.Anything, "p2", 2).Return(cartWith("p2", 2, 1), nil)

	svc := NewService(api, nil, nil)
	done := make(chan error, 1)
	go func() {
		_, err := svc.Increment(context.Background(), "s1", "p1", 2)
		done <- err
	}()
	<-entered

	assert.True(t, svc.Guard().Busy("s1", "p1"))
	_, err := svc.Decrement(context.Background(), "s1", "p1", 2)
	assert.ErrorIs(t, err, ErrLineBusy)

	_, err = svc.Increment(context.Background(), "s1", "p2", 1)
	assert.NoError(t, err, "other lines are not blocked")

	close(unblock)
	require.NoError(t, <-done)
	assert.False(t, svc.Guard().Busy("s1", "p1"))
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	api := new(MockAPI)
	_, err := NewService(api, nil, nil).Add(context.Background(), "s1", "p1", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	api.AssertNotCalled(t, "AddToCart", mock.Anything, mock.Anything, mock.Anything)
}

func TestLineGuardForget(t *testing.T) {
	g := NewLineGuard()
	release, ok := g.Acquire("s1", "p1")
	require.True(t, ok)
	assert.Equal(t, map[string]bool{"p1": true}, g.BusyLines("s1"))

	g.Forget("s1")
	assert.False(t, g.Busy("s1", "p1"))
	release()
	assert.Empty(t, g.BusyLines("s1"))
}
