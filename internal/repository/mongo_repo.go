package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lume/internal/domain"
)

// MongoUserRepository guarda usuarios en la coleccion users.
type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewMongoUserRepository(coll *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{coll: coll}
}

func (r *MongoUserRepository) Create(ctx context.Context, user domain.User) error {
	_, err := r.coll.InsertOne(ctx, user)
	return translateMongoError(err)
}

func (r *MongoUserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	var u domain.User
	err := r.coll.FindOne(ctx, bson.D{{Key: "username", Value: username}}).Decode(&u)
	if err != nil {
		return domain.User{}, translateMongoError(err)
	}
	return u, nil
}

// MongoChatRepository guarda los turnos en la coleccion chats.
type MongoChatRepository struct {
	coll *mongo.Collection
}

func NewMongoChatRepository(coll *mongo.Collection) *MongoChatRepository {
	return &MongoChatRepository{coll: coll}
}

// chatDocument agrega seq al turno: desempata turnos con el mismo timestamp en orden de insercion.
type chatDocument struct {
	domain.Turn `bson:",inline"`
	Seq         primitive.ObjectID `bson:"seq"`
}

func (r *MongoChatRepository) Append(ctx context.Context, turn domain.Turn) error {
	if !domain.IsValidRole(turn.Role) {
		return ErrInvalidRole
	}
	_, err := r.coll.InsertOne(ctx, chatDocument{Turn: turn, Seq: primitive.NewObjectID()})
	return translateMongoError(err)
}

func (r *MongoChatRepository) ListByUsername(ctx context.Context, username string) ([]domain.Turn, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "seq", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.D{{Key: "username", Value: username}}, opts)
	if err != nil {
		return nil, err
	}

	turns := []domain.Turn{}
	if err := cursor.All(ctx, &turns); err != nil {
		return nil, err
	}
	return turns, nil
}

func (r *MongoChatRepository) CountByUsername(ctx context.Context, username string) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.D{{Key: "username", Value: username}})
}
