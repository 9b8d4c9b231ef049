package product

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const productsNS = "animeshop.products"

func toDoc(tb testing.TB, v interface{}) bson.D {
	tb.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(tb, err)
	var d bson.D
	require.NoError(tb, bson.Unmarshal(raw, &d))
	return d
}

func TestRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("GetByID found", func(mt *mtest.T) {
		repo := NewRepository(mt.DB)
		want := Product{ID: primitive.NewObjectID(), Name: "Poster", Price: 12.5, Category: "Posters"}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, productsNS, mtest.FirstBatch, toDoc(mt, want)))

		got, err := repo.GetByID(context.Background(), want.ID)

		require.NoError(mt, err)
		assert.Equal(mt, want.Name, got.Name)
		assert.Equal(mt, want.Price, got.Price)
	})

	mt.Run("GetByID missing", func(mt *mtest.T) {
		repo := NewRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, productsNS, mtest.FirstBatch))

		_, err := repo.GetByID(context.Background(), primitive.NewObjectID())

		assert.ErrorIs(mt, err, ErrProductNotFound)
	})

	mt.Run("Create assigns id and timestamps", func(mt *mtest.T) {
		repo := NewRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		p := &Product{Name: "Poster"}

		require.NoError(mt, repo.Create(context.Background(), p))

		assert.False(mt, p.ID.IsZero())
		assert.False(mt, p.CreatedAt.IsZero())
		assert.Equal(mt, p.CreatedAt, p.UpdatedAt)
	})

	mt.Run("Update missing", func(mt *mtest.T) {
		repo := NewRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.Update(context.Background(), primitive.NewObjectID(), bson.M{"price": 5.0})

		assert.ErrorIs(mt, err, ErrProductNotFound)
		cmd := mt.GetStartedEvent().Command
		_, hasUpdatedAt := cmd.Lookup("update", "$set", "updatedAt").TimeOK()
		assert.True(mt, hasUpdatedAt)
	})

	mt.Run("Delete missing", func(mt *mtest.T) {
		repo := NewRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.Delete(context.Background(), primitive.NewObjectID())

		assert.ErrorIs(mt, err, ErrProductNotFound)
	})

	mt.Run("Categories are sorted and skip blanks", func(mt *mtest.T) {
		repo := NewRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "values", Value: bson.A{"Posters", "", "Figures"}}))

		got, err := repo.Categories(context.Background())

		require.NoError(mt, err)
		assert.Equal(mt, []string{"Figures", "Posters"}, got)
	})

	mt.Run("FindByIDs skips the round trip for no ids", func(mt *mtest.T) {
		repo := NewRepository(mt.DB)

		got, err := repo.FindByIDs(context.Background(), nil)

		require.NoError(mt, err)
		assert.Empty(mt, got)
		assert.Empty(mt, mt.GetAllStartedEvents())
	})

	mt.Run("FindByIDs keys by id", func(mt *mtest.T) {
		repo := NewRepository(mt.DB)
		a := Product{ID: primitive.NewObjectID(), Name: "A"}
		b := Product{ID: primitive.NewObjectID(), Name: "B"}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, productsNS, mtest.FirstBatch, toDoc(mt, a), toDoc(mt, b)))

		got, err := repo.FindByIDs(context.Background(), []primitive.ObjectID{a.ID, b.ID})

		require.NoError(mt, err)
		assert.Equal(mt, "A", got[a.ID].Name)
		assert.Equal(mt, "B", got[b.ID].Name)
	})
}
