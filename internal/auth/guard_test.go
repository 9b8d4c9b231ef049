package auth

import (
	"errors"
	"testing"
	"time"

	"animeshop-be/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(token string) (*Claims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Claims), args.Error(1)
}

func TestGuard_Resolve(t *testing.T) {
	t.Run("Missing token", func(t *testing.T) {
		g := NewGuard(new(MockVerifier))

		_, err := g.Resolve("", false)
		assert.ErrorIs(t, err, ErrNoToken)
		assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
	})

	t.Run("Admin sentinel skips verification", func(t *testing.T) {
		v := new(MockVerifier)
		g := NewGuard(v)

		id, err := g.Resolve(AdminToken, true)
		require.NoError(t, err)
		assert.Equal(t, Identity{ID: AdminSentinelID, IsAdmin: true}, id)
		v.AssertNotCalled(t, "Verify", mock.Anything)
	})

	t.Run("Guest sentinels", func(t *testing.T) {
		g := NewGuard(new(MockVerifier))

		for _, tok := range []string{GuestToken, "null", "undefined"} {
			id, err := g.Resolve(tok, true)
			require.NoError(t, err)
			assert.True(t, id.IsGuest)
			assert.False(t, id.IsAdmin)
		}
	})

	t.Run("Valid token", func(t *testing.T) {
		v := new(MockVerifier)
		v.On("Verify", "good").Return(&Claims{ID: "u1", IsAdmin: false}, nil).Once()
		g := NewGuard(v)

		id, err := g.Resolve("good", true)
		require.NoError(t, err)
		assert.Equal(t, Identity{ID: "u1"}, id)
		v.AssertExpectations(t)
	})

	t.Run("Invalid token", func(t *testing.T) {
		v := new(MockVerifier)
		v.On("Verify", "bad").Return(nil, errors.New("signature is invalid")).Once()
		g := NewGuard(v)

		_, err := g.Resolve("bad", true)
		assert.ErrorIs(t, err, ErrTokenInvalid)
		assert.NotErrorIs(t, err, ErrNoToken)
	})
}

func TestGuard_AdminTokenIgnoresSecret(t *testing.T) {
	for _, secret := range []string{"one", "two"} {
		g := NewGuard(NewIssuer(secret, time.Hour))
		id, err := g.Resolve(AdminToken, true)
		require.NoError(t, err)
		assert.True(t, id.IsAdmin)
	}
}

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, RequireAdmin(Identity{ID: "a", IsAdmin: true}))

	err := RequireAdmin(Identity{ID: "u"})
	assert.ErrorIs(t, err, ErrNotAdmin)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestIdentity_ObjectID(t *testing.T) {
	_, ok := Identity{ID: AdminSentinelID}.ObjectID()
	assert.False(t, ok)

	oid, ok := Identity{ID: "64b7f0c2a1b2c3d4e5f60718"}.ObjectID()
	assert.True(t, ok)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", oid.Hex())
}
