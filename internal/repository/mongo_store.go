package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/box-builder/internal/model"
)

// Collection names used by the document store.
const (
	boxesCollection     = "boxes"
	itemsCollection     = "items"
	ordersCollection    = "orders"
	operatorsCollection = "operators"
)

// MongoStore keeps each entity as one document. Orders embed their
// placements, which makes an order write a single atomic insert.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ Store = (*MongoStore)(nil)

func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(dbName)}
}

// EnsureIndexes creates the indexes the queries rely on. It is idempotent.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.db.Collection(operatorsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return unavailable("index operators", err)
	}
	if _, err := s.db.Collection(ordersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	}); err != nil {
		return unavailable("index orders", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

// mongoNow matches the millisecond precision of BSON dates.
func mongoNow() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, sort bson.D) ([]T, error) {
	cur, err := coll.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, unavailable("find "+coll.Name(), err)
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, unavailable("decode "+coll.Name(), err)
	}
	return out, nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any) (T, error) {
	var v T
	if err := coll.FindOne(ctx, filter).Decode(&v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return v, ErrNotFound
		}
		return v, unavailable("find "+coll.Name(), err)
	}
	return v, nil
}

func deleteOne[T any](ctx context.Context, coll *mongo.Collection, id string) (T, error) {
	var v T
	if err := coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return v, ErrNotFound
		}
		return v, unavailable("delete "+coll.Name(), err)
	}
	return v, nil
}

func replaceOne(ctx context.Context, coll *mongo.Collection, id string, doc any) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return unavailable("replace "+coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var oldestFirst = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

func (s *MongoStore) ListBoxes(ctx context.Context, activeOnly bool) ([]model.Box, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	return findAll[model.Box](ctx, s.db.Collection(boxesCollection), filter, oldestFirst)
}

func (s *MongoStore) GetBox(ctx context.Context, id string) (model.Box, error) {
	return findOne[model.Box](ctx, s.db.Collection(boxesCollection), bson.M{"_id": id})
}

func (s *MongoStore) CreateBox(ctx context.Context, b model.Box) (model.Box, error) {
	now := mongoNow()
	b.ID = uuid.NewString()
	b.CreatedAt, b.UpdatedAt = now, now
	if _, err := s.db.Collection(boxesCollection).InsertOne(ctx, b); err != nil {
		return model.Box{}, unavailable("insert box", err)
	}
	return b, nil
}

func (s *MongoStore) UpdateBox(ctx context.Context, b model.Box) (model.Box, error) {
	cur, err := s.GetBox(ctx, b.ID)
	if err != nil {
		return model.Box{}, err
	}
	b.CreatedAt = cur.CreatedAt
	b.UpdatedAt = mongoNow()
	if err := replaceOne(ctx, s.db.Collection(boxesCollection), b.ID, b); err != nil {
		return model.Box{}, err
	}
	return b, nil
}

func (s *MongoStore) DeleteBox(ctx context.Context, id string) (model.Box, error) {
	return deleteOne[model.Box](ctx, s.db.Collection(boxesCollection), id)
}

func (s *MongoStore) ListItems(ctx context.Context, f model.ItemFilter) ([]model.Item, error) {
	filter := bson.M{}
	switch f {
	case model.FilterPopular:
		filter["popular"] = true
	case model.FilterInStock:
		filter["in_stock"] = true
	}
	return findAll[model.Item](ctx, s.db.Collection(itemsCollection), filter, oldestFirst)
}

func (s *MongoStore) GetItem(ctx context.Context, id string) (model.Item, error) {
	return findOne[model.Item](ctx, s.db.Collection(itemsCollection), bson.M{"_id": id})
}

func (s *MongoStore) CreateItem(ctx context.Context, it model.Item) (model.Item, error) {
	now := mongoNow()
	it.ID = uuid.NewString()
	it.CreatedAt, it.UpdatedAt = now, now
	if _, err := s.db.Collection(itemsCollection).InsertOne(ctx, it); err != nil {
		return model.Item{}, unavailable("insert item", err)
	}
	return it, nil
}

func (s *MongoStore) UpdateItem(ctx context.Context, it model.Item) (model.Item, error) {
	cur, err := s.GetItem(ctx, it.ID)
	if err != nil {
		return model.Item{}, err
	}
	it.CreatedAt = cur.CreatedAt
	it.UpdatedAt = mongoNow()
	if err := replaceOne(ctx, s.db.Collection(itemsCollection), it.ID, it); err != nil {
		return model.Item{}, err
	}
	return it, nil
}

func (s *MongoStore) DeleteItem(ctx context.Context, id string) (model.Item, error) {
	return deleteOne[model.Item](ctx, s.db.Collection(itemsCollection), id)
}

func (s *MongoStore) CreateOrder(ctx context.Context, o model.Order) (model.Order, error) {
	o = cloneOrder(o)
	o.ID = uuid.NewString()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = mongoNow()
	}
	o.CreatedAt = o.CreatedAt.Truncate(time.Millisecond)
	if _, err := s.db.Collection(ordersCollection).InsertOne(ctx, o); err != nil {
		return model.Order{}, unavailable("insert order", err)
	}
	return o, nil
}

func (s *MongoStore) GetOrder(ctx context.Context, id string) (model.Order, error) {
	o, err := findOne[model.Order](ctx, s.db.Collection(ordersCollection), bson.M{"_id": id})
	if err != nil {
		return model.Order{}, err
	}
	return cloneOrder(o), nil
}

func (s *MongoStore) ListOrders(ctx context.Context) ([]model.Order, error) {
	out, err := findAll[model.Order](ctx, s.db.Collection(ordersCollection), bson.M{},
		bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i] = cloneOrder(out[i])
	}
	return out, nil
}

func (s *MongoStore) GetOperator(ctx context.Context, id string) (model.Operator, error) {
	return findOne[model.Operator](ctx, s.db.Collection(operatorsCollection), bson.M{"_id": id})
}

func (s *MongoStore) GetOperatorByUsername(ctx context.Context, username string) (model.Operator, error) {
	return findOne[model.Operator](ctx, s.db.Collection(operatorsCollection), bson.M{"username": normalizeUsername(username)})
}

func (s *MongoStore) CreateOperator(ctx context.Context, op model.Operator) (model.Operator, error) {
	now := mongoNow()
	op.ID = uuid.NewString()
	op.Username = normalizeUsername(op.Username)
	op.CreatedAt, op.UpdatedAt = now, now
	if _, err := s.db.Collection(operatorsCollection).InsertOne(ctx, op); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.Operator{}, ErrConflict
		}
		return model.Operator{}, unavailable("insert operator", err)
	}
	return op, nil
}

func (s *MongoStore) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := s.db.Collection(operatorsCollection).UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"password_hash": hash, "updated_at": mongoNow()}})
	if err != nil {
		return unavailable("update password", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
