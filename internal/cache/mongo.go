package cache

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"dash-mcp/internal/database"
)

const collectionName = "cache_entries"

// MongoStore is the production Store backed by a single Mongo collection.
type MongoStore struct {
	db *database.DB
}

// NewMongoStore returns a store over db's cache_entries collection.
func NewMongoStore(db *database.DB) *MongoStore {
	return &MongoStore{db: db}
}

// EnsureIndexes creates the lookup indexes plus the storage-level TTL index
// on expiresAt. The TTL index is a secondary defense; the explicit sweep
// remains the primary cleanup path.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	coll := s.db.Collection(collectionName)
	if coll == nil {
		return ErrStoreUnavailable
	}
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}}},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	if err != nil {
		return fmt.Errorf("create cache indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Connected() bool { return s.db.Connected() }

func (s *MongoStore) coll() (*mongo.Collection, error) {
	if !s.db.Connected() {
		return nil, ErrStoreUnavailable
	}
	return s.db.Collection(collectionName), nil
}

func (s *MongoStore) Upsert(ctx context.Context, key string, payload any, category Category, expiresAt time.Time, metadata map[string]any) (*Entry, error) {
	coll, err := s.coll()
	if err != nil {
		return nil, err
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"payload":   payload,
			"category":  category,
			"expiresAt": expiresAt,
			"metadata":  metadata,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"key":       key,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var entry Entry
	if err := coll.FindOneAndUpdate(ctx, bson.M{"key": key}, update, opts).Decode(&entry); err != nil {
		return nil, fmt.Errorf("upsert cache entry %q: %w", key, err)
	}
	return &entry, nil
}

func (s *MongoStore) FindLiveByKey(ctx context.Context, key string) (*Entry, error) {
	coll, err := s.coll()
	if err != nil {
		return nil, err
	}
	filter := bson.M{"key": key, "expiresAt": bson.M{"$gt": time.Now().UTC()}}
	var entry Entry
	if err := coll.FindOne(ctx, filter).Decode(&entry); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("find cache entry %q: %w", key, err)
	}
	return &entry, nil
}

func (s *MongoStore) FindLiveByCategory(ctx context.Context, category Category, limit int64) ([]Entry, error) {
	coll, err := s.coll()
	if err != nil {
		return nil, err
	}
	filter := bson.M{"category": category, "expiresAt": bson.M{"$gt": time.Now().UTC()}}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find cache entries for %s: %w", category, err)
	}
	defer cur.Close(ctx)

	var entries []Entry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode cache entries for %s: %w", category, err)
	}
	return entries, nil
}

func (s *MongoStore) DeleteByKey(ctx context.Context, key string) (bool, error) {
	coll, err := s.coll()
	if err != nil {
		return false, err
	}
	res, err := coll.DeleteOne(ctx, bson.M{"key": key})
	if err != nil {
		return false, fmt.Errorf("delete cache entry %q: %w", key, err)
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) DeleteByCategory(ctx context.Context, category Category) (int64, error) {
	coll, err := s.coll()
	if err != nil {
		return 0, err
	}
	res, err := coll.DeleteMany(ctx, bson.M{"category": category})
	if err != nil {
		return 0, fmt.Errorf("delete cache entries for %s: %w", category, err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) SweepExpired(ctx context.Context) (int64, error) {
	coll, err := s.coll()
	if err != nil {
		return 0, err
	}
	res, err := coll.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lte": time.Now().UTC()}})
	if err != nil {
		return 0, fmt.Errorf("sweep expired cache entries: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) CountAll(ctx context.Context) (int64, error) {
	coll, err := s.coll()
	if err != nil {
		return 0, err
	}
	n, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return n, nil
}

func (s *MongoStore) CountByCategory(ctx context.Context) (map[Category]int64, error) {
	coll, err := s.coll()
	if err != nil {
		return nil, err
	}
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate cache counts: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Category Category `bson:"_id"`
		Count    int64    `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode cache counts: %w", err)
	}
	counts := make(map[Category]int64, len(rows))
	for _, row := range rows {
		counts[row.Category] = row.Count
	}
	return counts, nil
}

func (s *MongoStore) CountExpired(ctx context.Context) (int64, error) {
	coll, err := s.coll()
	if err != nil {
		return 0, err
	}
	n, err := coll.CountDocuments(ctx, bson.M{"expiresAt": bson.M{"$lte": time.Now().UTC()}})
	if err != nil {
		return 0, fmt.Errorf("count expired cache entries: %w", err)
	}
	return n, nil
}
