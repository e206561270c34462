package storage

import (
	"context"
	"fmt"
	"time"

	storagecommon "ytcollector-go/internal/storage/common"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultMongoDatabase = "youtube_transcripts"

// MongoBackend stores each namespace in its own collection. Expiry is handled
// by a TTL index on expires_at; reads also filter expired documents because the
// TTL monitor only runs about once a minute.
type MongoBackend struct {
	uri    string
	dbName string
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

type mongoEntry struct {
	Key       string     `bson:"key"`
	Data      string     `bson:"data"`
	CachedAt  time.Time  `bson:"cached_at"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

// NewMongoBackend creates a MongoDB cache backend. Call Initialize before use.
func NewMongoBackend(uri, dbName string) *MongoBackend {
	if dbName == "" {
		dbName = defaultMongoDatabase
	}
	return &MongoBackend{uri: uri, dbName: dbName, now: time.Now}
}

func (m *MongoBackend) Name() string { return "mongodb" }

// Initialize connects to MongoDB and ensures indexes on every namespace collection.
func (m *MongoBackend) Initialize(ctx context.Context) error {
	ctx, cancel := storagecommon.WithStorageTimeoutDefault(ctx)
	defer cancel()

	clientOptions := options.Client().ApplyURI(m.uri)
	clientOptions.SetMaxPoolSize(10)
	clientOptions.SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	m.client = client
	m.db = client.Database(m.dbName)

	for _, ns := range Namespaces {
		_, err := m.collection(ns).Indexes().CreateMany(ctx, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "key", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "cached_at", Value: 1}},
			},
			{
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(0),
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", ns, err)
		}
	}
	return nil
}

// Close disconnects the client.
func (m *MongoBackend) Close() error {
	if m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// Health pings the primary.
func (m *MongoBackend) Health(ctx context.Context) error {
	if m.client == nil {
		return fmt.Errorf("mongodb backend not initialized")
	}
	ctx, cancel := storagecommon.WithStorageTimeoutDefault(ctx)
	defer cancel()
	return m.client.Ping(ctx, nil)
}

func (m *MongoBackend) collection(ns Namespace) *mongo.Collection {
	return m.db.Collection(string(ns))
}

// liveFilter matches key when the document has no expiry or has not expired yet.
func liveFilter(key string, now time.Time) bson.M {
	return bson.M{
		"key": key,
		"$or": bson.A{
			bson.M{"expires_at": nil},
			bson.M{"expires_at": bson.M{"$gt": now}},
		},
	}
}

func (m *MongoBackend) Get(ctx context.Context, ns Namespace, key string) (Entry, error) {
	if !validNamespace(ns) {
		return Entry{}, fmt.Errorf("unknown namespace %q", ns)
	}
	ctx, cancel := storagecommon.WithStorageTimeoutDefault(ctx)
	defer cancel()

	var doc mongoEntry
	err := m.collection(ns).FindOne(ctx, liveFilter(key, m.now())).Decode(&doc)
	if err != nil {
		return Entry{}, storagecommon.MapMongoError(err, entryKey(ns, key))
	}
	entry := Entry{Value: []byte(doc.Data), CachedAt: doc.CachedAt}
	if doc.ExpiresAt != nil {
		entry.ExpiresAt = *doc.ExpiresAt
	}
	return entry, nil
}

func (m *MongoBackend) Set(ctx context.Context, ns Namespace, key string, value []byte, ttl time.Duration) error {
	if !validNamespace(ns) {
		return fmt.Errorf("unknown namespace %q", ns)
	}
	ctx, cancel := storagecommon.WithStorageTimeoutDefault(ctx)
	defer cancel()

	now := m.now().UTC()
	doc := mongoEntry{Key: key, Data: string(value), CachedAt: now}
	if ttl > 0 {
		exp := now.Add(ttl)
		doc.ExpiresAt = &exp
	}
	_, err := m.collection(ns).ReplaceOne(ctx, bson.M{"key": key}, doc, options.Replace().SetUpsert(true))
	return storagecommon.MapMongoError(err, entryKey(ns, key))
}

func (m *MongoBackend) Delete(ctx context.Context, ns Namespace, key string) error {
	ctx, cancel := storagecommon.WithStorageTimeoutDefault(ctx)
	defer cancel()
	_, err := m.collection(ns).DeleteOne(ctx, bson.M{"key": key})
	return storagecommon.MapMongoError(err, entryKey(ns, key))
}

func (m *MongoBackend) Purge(ctx context.Context, ns Namespace, olderThan time.Time) (int64, error) {
	ctx, cancel := storagecommon.WithStorageTimeoutDefault(ctx)
	defer cancel()
	res, err := m.collection(ns).DeleteMany(ctx, bson.M{"cached_at": bson.M{"$lt": olderThan.UTC()}})
	if err != nil {
		return 0, storagecommon.MapMongoError(err, string(ns))
	}
	return res.DeletedCount, nil
}

func (m *MongoBackend) Stats(ctx context.Context) (Stats, error) {
	ctx, cancel := storagecommon.WithStorageTimeoutDefault(ctx)
	defer cancel()

	stats := Stats{Backend: m.Name(), Namespaces: make(map[Namespace]NamespaceStats, len(Namespaces))}
	now := m.now()
	for _, ns := range Namespaces {
		coll := m.collection(ns)
		total, err := coll.CountDocuments(ctx, bson.M{})
		if err != nil {
			return Stats{}, fmt.Errorf("count %s: %w", ns, err)
		}
		expired, err := coll.CountDocuments(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
		if err != nil {
			return Stats{}, fmt.Errorf("count expired %s: %w", ns, err)
		}
		stats.Namespaces[ns] = NamespaceStats{Entries: total, Expired: expired}
	}
	return stats, nil
}
