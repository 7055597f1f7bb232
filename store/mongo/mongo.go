// Package mongo stores keys and usage counters in MongoDB.
//
// Keys live in the api_keys collection with the key as _id. Counters live in
// usage_counters with a unique (api_key, day) index; increments are single
// findAndModify upserts.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/keymeter/pkg/keys"
	mongoutil "github.com/dmitrymomot/keymeter/pkg/mongo"
	"github.com/dmitrymomot/keymeter/pkg/usage"
)

const (
	keysCollection  = "api_keys"
	usageCollection = "usage_counters"

	// upsertAttempts bounds retries of upserts that lost an insert race.
	upsertAttempts = 3
)

var (
	ErrInvalidRecord = errors.New("mongo: stored record is invalid")
	ErrIndexes       = errors.New("mongo: failed to create indexes")
)

type keyDoc struct {
	Key       string    `bson:"_id"`
	Plan      string    `bson:"plan"`
	Active    bool      `bson:"is_active"`
	CreatedAt time.Time `bson:"created_at"`
}

type counterDoc struct {
	Key   string `bson:"api_key"`
	Day   string `bson:"day"`
	Count int64  `bson:"count"`
}

// Store implements keys.Store and usage.Ledger on a mongo database.
type Store struct {
	client *mongo.Client
	keys   *mongo.Collection
	usage  *mongo.Collection
}

// Open connects with cfg, creates the indexes and returns a Store owning
// the client.
func Open(ctx context.Context, cfg mongoutil.Config) (*Store, error) {
	db, err := mongoutil.NewWithDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := New(db)
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

// New uses an existing database handle.
func New(db *mongo.Database) *Store {
	return &Store{
		client: db.Client(),
		keys:   db.Collection(keysCollection),
		usage:  db.Collection(usageCollection),
	}
}

// EnsureIndexes creates the unique (api_key, day) counter index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.usage.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "api_key", Value: 1}, {Key: "day", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("api_key_day_unique"),
	})
	if err != nil {
		return errors.Join(ErrIndexes, err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, rec keys.Record) error {
	_, err := s.keys.InsertOne(ctx, keyDoc{
		Key:       rec.Key,
		Plan:      string(rec.Plan),
		Active:    rec.Active,
		CreatedAt: rec.CreatedAt.UTC(),
	})
	if mongoutil.IsDuplicateKeyError(err) {
		return keys.ErrKeyExists
	}
	if err != nil {
		return fmt.Errorf("mongo: insert key: %w", err)
	}
	return nil
}

func (s *Store) EnsureExists(ctx context.Context, key string, createdAt time.Time) error {
	update := bson.M{"$setOnInsert": bson.M{
		"plan":       string(keys.PlanFree),
		"is_active":  true,
		"created_at": createdAt.UTC(),
	}}
	if err := s.upsertKey(ctx, key, update); err != nil {
		return fmt.Errorf("mongo: ensure key: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (keys.Record, error) {
	var doc keyDoc
	err := s.keys.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if mongoutil.IsNotFoundError(err) {
		return keys.Record{}, keys.ErrNotFound
	}
	if err != nil {
		return keys.Record{}, fmt.Errorf("mongo: get key: %w", err)
	}

	plan, err := keys.ParsePlan(doc.Plan)
	if err != nil {
		return keys.Record{}, errors.Join(ErrInvalidRecord, err)
	}
	return keys.Record{
		Key:       doc.Key,
		Plan:      plan,
		Active:    doc.Active,
		CreatedAt: doc.CreatedAt.UTC(),
	}, nil
}

func (s *Store) UpgradeToPro(ctx context.Context, key string, createdAt time.Time) error {
	update := bson.M{
		"$set":         bson.M{"plan": string(keys.PlanPro), "is_active": true},
		"$setOnInsert": bson.M{"created_at": createdAt.UTC()},
	}
	if err := s.upsertKey(ctx, key, update); err != nil {
		return fmt.Errorf("mongo: upgrade key: %w", err)
	}
	return nil
}

func (s *Store) SetActive(ctx context.Context, key string, active bool) error {
	res, err := s.keys.UpdateOne(ctx, bson.M{"_id": key}, bson.M{"$set": bson.M{"is_active": active}})
	if err != nil {
		return fmt.Errorf("mongo: set active: %w", err)
	}
	if res.MatchedCount == 0 {
		return keys.ErrNotFound
	}
	return nil
}

// upsertKey retries when a concurrent upsert inserted the same _id first;
// the retry then takes the update path.
func (s *Store) upsertKey(ctx context.Context, key string, update bson.M) error {
	var err error
	for range upsertAttempts {
		_, err = s.keys.UpdateOne(ctx, bson.M{"_id": key}, update, options.UpdateOne().SetUpsert(true))
		if !mongoutil.IsDuplicateKeyError(err) {
			return err
		}
	}
	return err
}

func (s *Store) IncrementAndGet(ctx context.Context, key string, day usage.Day) (int64, error) {
	filter := bson.M{"api_key": key, "day": string(day)}
	update := bson.M{"$inc": bson.M{"count": int64(1)}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var (
		doc counterDoc
		err error
	)
	for range upsertAttempts {
		err = s.usage.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
		if !mongoutil.IsDuplicateKeyError(err) {
			break
		}
	}
	if err != nil {
		return 0, fmt.Errorf("mongo: increment usage: %w", err)
	}
	return doc.Count, nil
}

func (s *Store) Count(ctx context.Context, key string, day usage.Day) (int64, error) {
	var doc counterDoc
	err := s.usage.FindOne(ctx, bson.M{"api_key": key, "day": string(day)}).Decode(&doc)
	if mongoutil.IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("mongo: read usage: %w", err)
	}
	return doc.Count, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return mongoutil.Healthcheck(s.client)(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
