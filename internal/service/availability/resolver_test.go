package availability

import (
	"context"
	"errors"
	"testing"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSeatSource struct {
	mock.Mock
}

func (m *MockSeatSource) ConfirmedSeats(ctx context.Context, tripID string) ([]string, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func TestResolver_Resolve(t *testing.T) {
	source := &MockSeatSource{}
	ctx := context.Background()
	source.On("ConfirmedSeats", ctx, "trip-1").Return([]string{"L-1-1", "U-2-2"}, nil).Once()

	held, err := NewResolver(source).Resolve(ctx, "trip-1")
	require.NoError(t, err)
	assert.True(t, held.Has("L-1-1"))
	assert.True(t, held.Has("U-2-2"))
	assert.False(t, held.Has("L-1-2"))
	assert.Equal(t, []string{"L-1-1"}, held.Intersect([]string{"L-1-2", "L-1-1"}))

	source.AssertExpectations(t)
}

func TestResolver_RereadsEveryCall(t *testing.T) {
	source := &MockSeatSource{}
	ctx := context.Background()
	source.On("ConfirmedSeats", ctx, "trip-1").Return([]string{"L-1-1"}, nil).Once()
	source.On("ConfirmedSeats", ctx, "trip-1").Return([]string{}, nil).Once()

	r := NewResolver(source)
	first, err := r.Resolve(ctx, "trip-1")
	require.NoError(t, err)
	second, err := r.Resolve(ctx, "trip-1")
	require.NoError(t, err)

	assert.Len(t, first, 1)
	assert.Empty(t, second)
	source.AssertNumberOfCalls(t, "ConfirmedSeats", 2)
}

func TestResolver_StorageError(t *testing.T) {
	source := &MockSeatSource{}
	ctx := context.Background()
	source.On("ConfirmedSeats", ctx, "trip-1").
		Return(nil, domain.NewStorageError("read confirmed seats", errors.New("timeout"))).Once()

	held, err := NewResolver(source).Resolve(ctx, "trip-1")
	assert.Nil(t, held)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}
