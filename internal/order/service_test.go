package order

import (
	"context"
	"testing"
	"time"

	"animeshop-be/internal/address"
	"animeshop-be/internal/apperr"
	"animeshop-be/internal/auth"
	"animeshop-be/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindCart(ctx context.Context, userID primitive.ObjectID) (*Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) UpsertCart(ctx context.Context, userID primitive.ObjectID, items []LineItem, total float64) (*Order, error) {
	args := m.Called(ctx, userID, items, total)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) SaveCart(ctx context.Context, cart *Order) error {
	return m.Called(ctx, cart).Error(0)
}

func (m *MockRepository) Create(ctx context.Context, o *Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Order), args.Error(1)
}

func (m *MockRepository) ListAll(ctx context.Context) ([]Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Order), args.Error(1)
}

func (m *MockRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, paidAt time.Time, result *PaymentResult) (*Order, error) {
	args := m.Called(ctx, id, paidAt, result)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to Status, at time.Time) (*Order, error) {
	args := m.Called(ctx, id, from, to, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockOwners struct {
	mock.Mock
}

func (m *MockOwners) FindByID(ctx context.Context, id primitive.ObjectID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockOwners) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]user.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[primitive.ObjectID]user.User), args.Error(1)
}

// --- Helpers ---

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestService(repo *MockRepository, owners *MockOwners) *service {
	svc := NewService(repo, owners).(*service)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func userIdentity(id primitive.ObjectID) auth.Identity {
	return auth.Identity{ID: id.Hex()}
}

var adminIdentity = auth.Identity{ID: auth.AdminSentinelID, IsAdmin: true}

// --- Tests ---

func TestService_Place(t *testing.T) {
	ctx := context.Background()
	uid := primitive.NewObjectID()
	p1, p2 := primitive.NewObjectID(), primitive.NewObjectID()
	ship := &address.Shipping{Street: "1 Main", City: "Manila"}

	t.Run("Empty items", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockOwners))

		_, err := svc.Place(ctx, userIdentity(uid), PlaceInput{ShippingAddress: ship})

		assert.ErrorIs(t, err, ErrNoOrderItems)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Recomputes total and ignores client total", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockOwners))
		claimed := 1.0

		repo.On("Create", ctx, mock.MatchedBy(func(o *Order) bool {
			return o.TotalPrice == 250 &&
				o.Status == StatusPending &&
				o.User == uid &&
				o.PaymentMethod == DefaultPaymentMethod &&
				o.ShippingAddress.Country == address.DefaultCountry
		})).Return(nil).Once()

		o, err := svc.Place(ctx, userIdentity(uid), PlaceInput{
			OrderItems: []LineItem{
				{Product: p1, Name: "Hoodie", Price: 100, Qty: 2},
				{Product: p2, Name: "Mug", Price: 50, Qty: 1},
			},
			ShippingAddress: ship,
			TotalPrice:      &claimed,
		})

		require.NoError(t, err)
		assert.Equal(t, 250.0, o.TotalPrice)
		repo.AssertExpectations(t)
	})

	t.Run("Invalid quantity", func(t *testing.T) {
		svc := newTestService(new(MockRepository), new(MockOwners))

		_, err := svc.Place(ctx, userIdentity(uid), PlaceInput{
			OrderItems: []LineItem{{Product: p1, Price: 10, Qty: 0}},
		})

		assert.ErrorIs(t, err, ErrInvalidLineItem)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("Shipping falls back to profile address", func(t *testing.T) {
		repo := new(MockRepository)
		owners := new(MockOwners)
		svc := newTestService(repo, owners)

		owners.On("FindByID", ctx, uid).Return(&user.User{
			ID:      uid,
			Address: &address.Address{AddressLine1: "9 Leaf St", City: "Konoha", Country: "Japan"},
		}, nil).Once()
		repo.On("Create", ctx, mock.MatchedBy(func(o *Order) bool {
			return o.ShippingAddress.Street == "9 Leaf St" && o.ShippingAddress.Country == "Japan"
		})).Return(nil).Once()

		_, err := svc.Place(ctx, userIdentity(uid), PlaceInput{
			OrderItems: []LineItem{{Product: p1, Price: 10, Qty: 1}},
		})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("Sentinel identity cannot place", func(t *testing.T) {
		svc := newTestService(new(MockRepository), new(MockOwners))

		_, err := svc.Place(ctx, auth.Identity{ID: auth.GuestSentinelID, IsGuest: true}, PlaceInput{
			OrderItems: []LineItem{{Product: p1, Price: 10, Qty: 1}},
		})

		assert.ErrorIs(t, err, ErrRegisteredOnly)
	})
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()
	oid := primitive.NewObjectID()
	stored := &Order{ID: oid, User: owner, Status: StatusPending}

	t.Run("Other user is not authorized", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockOwners))
		repo.On("GetByID", ctx, oid).Return(stored, nil).Once()

		_, err := svc.Get(ctx, userIdentity(other), oid.Hex())

		assert.ErrorIs(t, err, ErrNotAuthorized)
		assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
	})

	t.Run("Admin sees any order with owner resolved", func(t *testing.T) {
		repo := new(MockRepository)
		owners := new(MockOwners)
		svc := newTestService(repo, owners)

		repo.On("GetByID", ctx, oid).Return(stored, nil).Once()
		owners.On("FindByIDs", ctx, []primitive.ObjectID{owner}).
			Return(map[primitive.ObjectID]user.User{owner: {ID: owner, FirstName: "Rock", LastName: "Lee", Email: "lee@example.com"}}, nil).Once()

		res, err := svc.Get(ctx, adminIdentity, oid.Hex())

		require.NoError(t, err)
		assert.Equal(t, "lee@example.com", res.User.Email)
	})

	t.Run("Owner sees own order", func(t *testing.T) {
		repo := new(MockRepository)
		owners := new(MockOwners)
		svc := newTestService(repo, owners)

		repo.On("GetByID", ctx, oid).Return(stored, nil).Once()
		owners.On("FindByIDs", ctx, []primitive.ObjectID{owner}).
			Return(map[primitive.ObjectID]user.User{}, nil).Once()

		res, err := svc.Get(ctx, userIdentity(owner), oid.Hex())

		require.NoError(t, err)
		assert.Equal(t, owner, res.User.ID)
	})

	t.Run("Malformed id", func(t *testing.T) {
		svc := newTestService(new(MockRepository), new(MockOwners))

		_, err := svc.Get(ctx, adminIdentity, "123")

		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestService_MarkPaid(t *testing.T) {
	ctx := context.Background()
	owner := primitive.NewObjectID()
	oid := primitive.NewObjectID()
	result := &PaymentResult{ID: "PAY-1", Status: "COMPLETED", UpdateTime: "2024-05-01T10:00:00Z", EmailAddress: "payer@example.com"}

	t.Run("Owner marks paid", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockOwners))

		repo.On("GetByID", ctx, oid).Return(&Order{ID: oid, User: owner, Status: StatusPending}, nil).Once()
		repo.On("MarkPaid", ctx, oid, fixedNow, result).
			Return(&Order{ID: oid, IsPaid: true, PaidAt: &fixedNow, PaymentResult: result}, nil).Once()

		o, err := svc.MarkPaid(ctx, userIdentity(owner), oid.Hex(), result)

		require.NoError(t, err)
		assert.True(t, o.IsPaid)
		assert.Equal(t, "payer@example.com", o.PaymentResult.EmailAddress)
		repo.AssertExpectations(t)
	})

	t.Run("Stranger is rejected", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockOwners))

		repo.On("GetByID", ctx, oid).Return(&Order{ID: oid, User: owner, Status: StatusPending}, nil).Once()

		_, err := svc.MarkPaid(ctx, userIdentity(primitive.NewObjectID()), oid.Hex(), nil)

		assert.ErrorIs(t, err, ErrNotAuthorized)
		repo.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing order", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockOwners))

		repo.On("GetByID", ctx, oid).Return(nil, ErrOrderNotFound).Once()

		_, err := svc.MarkPaid(ctx, adminIdentity, oid.Hex(), nil)

		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("Cart cannot be paid", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockOwners))

		repo.On("GetByID", ctx, oid).Return(&Order{ID: oid, User: owner, Status: StatusCart}, nil).Once()

		_, err := svc.MarkPaid(ctx, userIdentity(owner), oid.Hex(), nil)

		assert.ErrorIs(t, err, ErrCartNotPlaced)
	})
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	oid := primitive.NewObjectID()

	t.Run("Status required", func(t *testing.T) {
		svc := newTestService(new(MockRepository), new(MockOwners))

		_, err := svc.UpdateStatus(ctx, adminIdentity, oid.Hex(), " ")

		assert.ErrorIs(t, err, ErrStatusRequired)
	})

	t.Run("Missing status is reported before the admin check", func(t *testing.T) {
		svc := newTestService(new(MockRepository), new(MockOwners))

		_, err := svc.UpdateStatus(ctx, userIdentity(primitive.NewObjectID()), oid.Hex(), "")

		assert.ErrorIs(t, err, ErrStatusRequired)
	})

	t.Run("Admin only", func(t *testing.T) {
		svc := newTestService(new(MockRepository), new(MockOwners))

		_, err := svc.UpdateStatus(ctx, userIdentity(primitive.NewObjectID()), oid.Hex(), "shipped")

		assert.ErrorIs(t, err, ErrNotAdmin)
	})

	t.Run("Delivered compare-and-swap", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockOwners))

		repo.On("GetByID", ctx, oid).Return(&Order{ID: oid, Status: StatusShipped}, nil).Once()
		repo.On("UpdateStatus", ctx, oid, StatusShipped, StatusDelivered, fixedNow).
			Return(&Order{ID: oid, Status: StatusDelivered, IsDelivered: true, DeliveredAt: &fixedNow}, nil).Once()

		o, err := svc.UpdateStatus(ctx, adminIdentity, oid.Hex(), "Delivered")

		require.NoError(t, err)
		assert.True(t, o.IsDelivered)
		assert.Equal(t, fixedNow, *o.DeliveredAt)
		repo.AssertExpectations(t)
	})

	t.Run("Backwards transition rejected", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockOwners))

		repo.On("GetByID", ctx, oid).Return(&Order{ID: oid, Status: StatusDelivered}, nil).Once()

		_, err := svc.UpdateStatus(ctx, adminIdentity, oid.Hex(), "pending")

		assert.ErrorIs(t, err, ErrIllegalTransition)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown status", func(t *testing.T) {
		svc := newTestService(new(MockRepository), new(MockOwners))

		_, err := svc.UpdateStatus(ctx, adminIdentity, oid.Hex(), "teleported")

		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("Lost race surfaces conflict", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockOwners))

		repo.On("GetByID", ctx, oid).Return(&Order{ID: oid, Status: StatusPending}, nil).Once()
		repo.On("UpdateStatus", ctx, oid, StatusPending, StatusProcessing, fixedNow).
			Return(nil, ErrStatusConflict).Once()

		_, err := svc.UpdateStatus(ctx, adminIdentity, oid.Hex(), "processing")

		assert.True(t, IsConflict(err))
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})
}

func TestService_ListMine(t *testing.T) {
	ctx := context.Background()

	t.Run("Sentinel identity gets empty list", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockOwners))

		orders, err := svc.ListMine(ctx, auth.Identity{ID: auth.GuestSentinelID, IsGuest: true})

		require.NoError(t, err)
		assert.Empty(t, orders)
		assert.NotNil(t, orders)
		repo.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything)
	})

	t.Run("Registered user", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockOwners))
		uid := primitive.NewObjectID()

		repo.On("ListByUser", ctx, uid).Return([]Order{{User: uid, Status: StatusPending}}, nil).Once()

		orders, err := svc.ListMine(ctx, userIdentity(uid))

		require.NoError(t, err)
		assert.Len(t, orders, 1)
	})
}

func TestService_ListAll(t *testing.T) {
	ctx := context.Background()
	u1, u2 := primitive.NewObjectID(), primitive.NewObjectID()

	t.Run("Non admin", func(t *testing.T) {
		svc := newTestService(new(MockRepository), new(MockOwners))

		_, err := svc.ListAll(ctx, userIdentity(u1))

		assert.ErrorIs(t, err, ErrNotAdmin)
	})

	t.Run("Owners resolved once per user", func(t *testing.T) {
		repo := new(MockRepository)
		owners := new(MockOwners)
		svc := newTestService(repo, owners)

		repo.On("ListAll", ctx).Return([]Order{{User: u1}, {User: u2}, {User: u1}}, nil).Once()
		owners.On("FindByIDs", ctx, []primitive.ObjectID{u1, u2}).Return(map[primitive.ObjectID]user.User{
			u1: {ID: u1, FirstName: "Naruto"},
			u2: {ID: u2, FirstName: "Sasuke"},
		}, nil).Once()

		res, err := svc.ListAll(ctx, adminIdentity)

		require.NoError(t, err)
		require.Len(t, res, 3)
		assert.Equal(t, "Naruto", res[0].User.FirstName)
		assert.Equal(t, "Sasuke", res[1].User.FirstName)
		assert.Equal(t, "Naruto", res[2].User.FirstName)
	})
}
