// Package mongo stores shipment records as documents in a MongoDB collection.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shipments/internal/core"
	"shipments/internal/log"
	"shipments/internal/store"
)

const backendName = "mongo"

// document is the stored shape of a record. Quantity keeps its exact decimal
// value; RecordedAt is a BSON datetime.
type document struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	ShipmentDate string               `bson:"shipment_date"`
	StaffName    string               `bson:"staff_name"`
	Vegetable    string               `bson:"vegetable"`
	Quantity     primitive.Decimal128 `bson:"quantity"`
	RecordedAt   time.Time            `bson:"recorded_at"`
}

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	opts   store.Options
}

var (
	_ store.Store        = (*Store)(nil)
	_ store.RecordMirror = (*Store)(nil)
)

// Open connects to uri and verifies the connection with a ping.
func Open(ctx context.Context, uri, dbName, collName string, opts ...store.Option) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, store.Unavailable(backendName, "connect", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, store.Unavailable(backendName, "connect", fmt.Errorf("ping mongodb: %w", err))
	}
	return &Store{
		client: client,
		coll:   client.Database(dbName).Collection(collName),
		opts:   store.NewOptions(opts...),
	}, nil
}

// Close closes the MongoDB connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureInitialized creates the shipment_date index; creating an existing
// index is a no-op on the server.
func (s *Store) EnsureInitialized(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "shipment_date", Value: 1}},
		Options: options.Index().SetName("shipment_date_1"),
	})
	return store.Unavailable(backendName, log.OpInit, err)
}

func (s *Store) Load(ctx context.Context) ([]core.ShipmentRecord, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, store.Unavailable(backendName, log.OpLoad, err)
	}
	defer cur.Close(ctx)

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, store.Unavailable(backendName, log.OpLoad, err)
	}

	records := make([]core.ShipmentRecord, 0, len(docs))
	for _, d := range docs {
		rec, err := fromDocument(d)
		if err != nil {
			return nil, store.Unavailable(backendName, log.OpLoad, fmt.Errorf("document %s: %w", d.ID.Hex(), err))
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Store) Append(ctx context.Context, rec core.ShipmentRecord) (core.ShipmentRecord, error) {
	rec = s.opts.Stamp(rec)
	if err := s.insert(ctx, rec); err != nil {
		return core.ShipmentRecord{}, store.Unavailable(backendName, log.OpAppend, err)
	}
	s.opts.Logger.Debug("record appended", log.Record(rec)...)
	return rec, nil
}

// MirrorRecord inserts rec keeping its RecordedAt.
func (s *Store) MirrorRecord(ctx context.Context, rec core.ShipmentRecord) error {
	return store.Unavailable(backendName, log.OpMirror, s.insert(ctx, rec))
}

func (s *Store) insert(ctx context.Context, rec core.ShipmentRecord) error {
	doc, err := toDocument(rec)
	if err != nil {
		return err
	}
	_, err = s.coll.InsertOne(ctx, doc)
	return err
}

func toDocument(rec core.ShipmentRecord) (document, error) {
	q, err := primitive.ParseDecimal128(rec.Quantity.String())
	if err != nil {
		return document{}, fmt.Errorf("quantity %s: %w", rec.Quantity, err)
	}
	return document{
		ShipmentDate: rec.ShipmentDate.String(),
		StaffName:    rec.StaffName,
		Vegetable:    rec.Vegetable,
		Quantity:     q,
		RecordedAt:   rec.RecordedAt,
	}, nil
}

func fromDocument(d document) (core.ShipmentRecord, error) {
	date, err := core.ParseDate(d.ShipmentDate)
	if err != nil {
		return core.ShipmentRecord{}, err
	}
	q, err := decimal.NewFromString(d.Quantity.String())
	if err != nil {
		return core.ShipmentRecord{}, fmt.Errorf("quantity %s: %w", d.Quantity, err)
	}
	return core.ShipmentRecord{
		ShipmentDate: date,
		StaffName:    d.StaffName,
		Vegetable:    d.Vegetable,
		Quantity:     q,
		RecordedAt:   d.RecordedAt.UTC(),
	}, nil
}
