package storage

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/tabledraw/pkg/errors"
)

// Mongo defaults.
const (
	DefaultDatabase   = "tabledraw"
	DefaultCollection = "documents"
)

// createdAtIndex names the index on created_at that carries the TTL.
// legacyCreatedAtIndex is the driver's generated name for the same keys.
const (
	createdAtIndex       = "created_at_ttl"
	legacyCreatedAtIndex = "created_at_1"
)

// MongoConfig configures a [MongoStore].
type MongoConfig struct {
	URI        string
	Database   string
	Collection string

	// TTL expires documents this long after creation. Zero keeps them.
	TTL time.Duration
}

// MongoStore stores documents in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func (c MongoConfig) validate() error {
	if c.URI == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "mongodb URI is required")
	}
	if c.TTL < 0 || (c.TTL > 0 && c.TTL < time.Second) {
		return errors.New(errors.ErrCodeInvalidConfig, "mongodb TTL %s: must be zero or at least 1s", c.TTL)
	}
	return nil
}

// NewMongoStore connects to MongoDB, pings the server and ensures the
// created_at index matches cfg.TTL.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping mongodb")
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	if err := ensureCreatedAtIndex(ctx, coll, ttlSeconds(cfg.TTL)); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &MongoStore{client: client, coll: coll}, nil
}

// indexAction is what ensureCreatedAtIndex must do to reach the wanted TTL.
type indexAction int

const (
	indexKeep indexAction = iota
	indexCreate
	indexModify
	indexRecreate
)

// existingIndex is the part of a listIndexes entry that matters here.
type existingIndex struct {
	Name string `bson:"name"`
	// TTL in seconds, or -1 when the index does not expire documents.
	TTL int64
}

func ttlSeconds(ttl time.Duration) int32 {
	return int32(ttl / time.Second)
}

// planCreatedAtIndex decides how to move from the existing index, if any,
// to one expiring after ttl seconds (0 for none). collMod can only change
// the expiry of an index that already has one.
func planCreatedAtIndex(existing *existingIndex, ttl int32) indexAction {
	switch {
	case existing == nil:
		return indexCreate
	case existing.Name != createdAtIndex:
		return indexRecreate
	case existing.TTL < 0 && ttl == 0:
		return indexKeep
	case existing.TTL == int64(ttl):
		return indexKeep
	case existing.TTL >= 0 && ttl > 0:
		return indexModify
	default:
		return indexRecreate
	}
}

func createdAtIndexModel(ttl int32) mongo.IndexModel {
	opts := options.Index().SetName(createdAtIndex)
	if ttl > 0 {
		opts.SetExpireAfterSeconds(ttl)
	}
	return mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: 1}}, Options: opts}
}

// ensureCreatedAtIndex creates the created_at index or brings an existing
// one in line with ttl, so restarts with a different retention succeed.
func ensureCreatedAtIndex(ctx context.Context, coll *mongo.Collection, ttl int32) error {
	existing, err := findCreatedAtIndex(ctx, coll)
	if err != nil {
		return err
	}

	switch planCreatedAtIndex(existing, ttl) {
	case indexKeep:
		return nil
	case indexModify:
		cmd := bson.D{
			{Key: "collMod", Value: coll.Name()},
			{Key: "index", Value: bson.D{
				{Key: "name", Value: createdAtIndex},
				{Key: "expireAfterSeconds", Value: ttl},
			}},
		}
		if err := coll.Database().RunCommand(ctx, cmd).Err(); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "update created_at index TTL")
		}
		return nil
	case indexRecreate:
		if _, err := coll.Indexes().DropOne(ctx, existing.Name); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "drop index %s", existing.Name)
		}
	}
	if _, err := coll.Indexes().CreateOne(ctx, createdAtIndexModel(ttl)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create created_at index")
	}
	return nil
}

func findCreatedAtIndex(ctx context.Context, coll *mongo.Collection) (*existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list indexes")
	}
	var specs []bson.M
	if err := cur.All(ctx, &specs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list indexes")
	}

	var found *existingIndex
	for _, spec := range specs {
		name, _ := spec["name"].(string)
		if name != createdAtIndex && name != legacyCreatedAtIndex {
			continue
		}
		idx := &existingIndex{Name: name, TTL: indexTTL(spec["expireAfterSeconds"])}
		if name == createdAtIndex || found == nil {
			found = idx
		}
	}
	return found, nil
}

// indexTTL normalizes expireAfterSeconds, which servers report as int32,
// int64 or double.
func indexTTL(v any) int64 {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return -1
	}
}

// Save implements Store.
func (s *MongoStore) Save(ctx context.Context, doc *Document) error {
	prepare(doc)
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save document %s", doc.ID)
	}
	return nil
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, id string) (*Document, error) {
	var doc Document
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeNotFound, "document %q not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load document %s", id)
	}
	return &doc, nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
