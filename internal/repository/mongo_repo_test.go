package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"lume/internal/domain"
)

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

// startedCommand devuelve el primer comando enviado con ese nombre.
func startedCommand(mt *mtest.T, name string) bson.Raw {
	for evt := mt.GetStartedEvent(); evt != nil; evt = mt.GetStartedEvent() {
		if evt.CommandName == name {
			return evt.Command
		}
	}
	mt.Fatalf("no %s command was sent", name)
	return nil
}

func TestMongoUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create ok", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Create(context.Background(), domain.User{
			ID:           "u-1",
			Username:     "ana",
			PasswordHash: "hash",
			CreatedAt:    time.Now().UTC(),
		})
		require.NoError(mt, err)
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: users index: username_unique",
		}))

		err := repo.Create(context.Background(), domain.User{ID: "u-2", Username: "ana"})
		require.True(mt, errors.Is(err, ErrDuplicate), "expected ErrDuplicate, got %v", err)
	})

	mt.Run("get by username", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u-1"},
			{Key: "username", Value: "ana"},
			{Key: "email", Value: "ana@example.com"},
			{Key: "password", Value: "hash"},
			{Key: "created_at", Value: primitive.NewDateTimeFromTime(created)},
		}))

		u, err := repo.GetByUsername(context.Background(), "ana")
		require.NoError(mt, err)
		require.Equal(mt, "u-1", u.ID)
		require.Equal(mt, "ana@example.com", u.Email)
		require.Equal(mt, "hash", u.PasswordHash)
		require.True(mt, created.Equal(u.CreatedAt))
	})

	mt.Run("get missing", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		_, err := repo.GetByUsername(context.Background(), "nadie")
		require.True(mt, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
	})
}

func TestMongoChatRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("append", func(mt *mtest.T) {
		repo := NewMongoChatRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Append(context.Background(), domain.Turn{
			ID:        "t-1",
			Username:  "ana",
			Role:      domain.RoleUser,
			Content:   "hola",
			Timestamp: time.Now().UTC(),
		})
		require.NoError(mt, err)

		docs, err := startedCommand(mt, "insert").Lookup("documents").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, docs, 1)
		doc := docs[0].Document()
		require.Equal(mt, "t-1", doc.Lookup("_id").StringValue())
		require.Equal(mt, bson.TypeObjectID, doc.Lookup("seq").Type)
	})

	mt.Run("append rejects unknown role", func(mt *mtest.T) {
		repo := NewMongoChatRepository(mt.Coll)

		err := repo.Append(context.Background(), domain.Turn{ID: "t-9", Username: "ana", Role: "system", Content: "x"})
		require.ErrorIs(mt, err, ErrInvalidRole)
	})

	mt.Run("list sorts by timestamp then seq", func(mt *mtest.T) {
		repo := NewMongoChatRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		_, err := repo.ListByUsername(context.Background(), "ana")
		require.NoError(mt, err)

		elems, err := startedCommand(mt, "find").Lookup("sort").Document().Elements()
		require.NoError(mt, err)
		keys := make([]string, 0, len(elems))
		for _, e := range elems {
			keys = append(keys, e.Key())
		}
		require.Equal(mt, []string{"timestamp", "seq"}, keys)
	})

	mt.Run("list keeps order", func(mt *mtest.T) {
		repo := NewMongoChatRepository(mt.Coll)
		base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "t-1"},
				{Key: "username", Value: "ana"},
				{Key: "role", Value: "user"},
				{Key: "content", Value: "hola"},
				{Key: "timestamp", Value: primitive.NewDateTimeFromTime(base)},
				{Key: "seq", Value: primitive.NewObjectID()},
			},
			bson.D{
				{Key: "_id", Value: "t-2"},
				{Key: "username", Value: "ana"},
				{Key: "role", Value: "model"},
				{Key: "content", Value: "hola, como estas?"},
				{Key: "timestamp", Value: primitive.NewDateTimeFromTime(base.Add(time.Millisecond))},
			},
		))

		turns, err := repo.ListByUsername(context.Background(), "ana")
		require.NoError(mt, err)
		require.Len(mt, turns, 2)
		require.Equal(mt, domain.RoleUser, turns[0].Role)
		require.Equal(mt, domain.RoleModel, turns[1].Role)
		require.True(mt, turns[0].Timestamp.Before(turns[1].Timestamp))
	})

	mt.Run("list empty", func(mt *mtest.T) {
		repo := NewMongoChatRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		turns, err := repo.ListByUsername(context.Background(), "ana")
		require.NoError(mt, err)
		require.NotNil(mt, turns)
		require.Empty(mt, turns)
	})

	mt.Run("count", func(mt *mtest.T) {
		repo := NewMongoChatRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{{Key: "n", Value: int32(4)}},
		))

		n, err := repo.CountByUsername(context.Background(), "ana")
		require.NoError(mt, err)
		require.Equal(mt, int64(4), n)
	})
}

func TestTranslateErrors(t *testing.T) {
	require.Nil(t, translatePgError(nil))
	require.Nil(t, translateMongoError(nil))

	require.ErrorIs(t, translatePgError(pgx.ErrNoRows), ErrNotFound)
	require.ErrorIs(t, translatePgError(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})), ErrDuplicate)
	require.ErrorIs(t, translateMongoError(mongo.ErrNoDocuments), ErrNotFound)

	other := errors.New("boom")
	require.Equal(t, other, translatePgError(other))
	require.Equal(t, other, translateMongoError(other))
}
