package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlock "rentwheels/internal/domain/lock"
	"rentwheels/internal/domain/shared/timerange"
)

type LockRepository struct {
	col *mongo.Collection
}

// NewLockRepository installs a partial unique index so that at most one
// active lock can exist per vehicle; mutual exclusion lives in the store,
// not in application-level read-then-write.
func NewLockRepository(db *mongo.Database) *LockRepository {
	col := db.Collection("agg_lock")
	idx := mongo.IndexModel{
		Keys: bson.D{{Key: "vehicle_id", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"status": string(domainlock.StateActive)}),
	}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &LockRepository{col: col}
}

func (r *LockRepository) ByID(ctx context.Context, id domainlock.LockID) (*domainlock.Lock, error) {
	var doc lockDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainlock.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *LockRepository) ActiveByVehicle(ctx context.Context, vehicleID string, now time.Time) (*domainlock.Lock, error) {
	filter := bson.M{
		"vehicle_id": vehicleID,
		"status":     string(domainlock.StateActive),
		"expires_at": bson.M{"$gt": now.UTC().UnixMilli()},
	}
	var doc lockDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainlock.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Create inserts a fresh active lock. A duplicate-key rejection means the
// index already holds an active row for the vehicle; if that row's expiry has
// lapsed it is flipped to expired and the insert retried, so a dead hold never
// blocks the next customer between sweeps.
func (r *LockRepository) Create(ctx context.Context, l *domainlock.Lock) error {
	for attempt := 0; attempt < 2; attempt++ {
		doc := newLockDocument(l)
		doc.Version = 1
		_, err := r.col.InsertOne(ctx, doc)
		if err == nil {
			l.Version = doc.Version
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return err
		}
		var blocker lockDocument
		ferr := r.col.FindOne(ctx, bson.M{
			"vehicle_id": l.VehicleID,
			"status":     string(domainlock.StateActive),
		}).Decode(&blocker)
		if ferr == mongo.ErrNoDocuments {
			continue
		}
		if ferr != nil {
			return ferr
		}
		if blocker.ExpiresAt > l.CreatedAt.UnixMilli() {
			return &domainlock.LockedByOtherError{VehicleID: l.VehicleID, ExpiresAt: timestampToTime(blocker.ExpiresAt)}
		}
		// Expiry guard in the filter: lose to a concurrent refresh rather
		// than expire a row that just came back to life.
		if _, uerr := r.col.UpdateOne(ctx,
			bson.M{"_id": blocker.ID, "status": string(domainlock.StateActive), "expires_at": blocker.ExpiresAt},
			bson.M{
				"$set": bson.M{"status": string(domainlock.StateExpired), "updated_at": l.CreatedAt.UnixMilli()},
				"$inc": bson.M{"version": 1},
			},
		); uerr != nil {
			return uerr
		}
	}
	return domainlock.ErrHeldByOther
}

func (r *LockRepository) Save(ctx context.Context, l *domainlock.Lock) error {
	doc := newLockDocument(l)
	filter := bson.M{"_id": doc.ID, "version": l.Version}
	doc.Version = l.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	l.Version = doc.Version
	return nil
}

func (r *LockRepository) Delete(ctx context.Context, id domainlock.LockID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	return err
}

func (r *LockRepository) StaleActive(ctx context.Context, now time.Time, limit int) ([]*domainlock.Lock, error) {
	filter := bson.M{
		"status":     string(domainlock.StateActive),
		"expires_at": bson.M{"$lte": now.UTC().UnixMilli()},
	}
	opts := options.Find().SetLimit(int64(limit))
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var locks []*domainlock.Lock
	for cursor.Next(ctx) {
		var doc lockDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		locks = append(locks, doc.toAggregate())
	}
	return locks, cursor.Err()
}

type lockDocument struct {
	ID         string `bson:"_id"`
	VehicleID  string `bson:"vehicle_id"`
	CustomerID string `bson:"customer_id"`
	SessionID  string `bson:"session_id"`
	Pickup     int64  `bson:"pickup"`
	Return     int64  `bson:"return"`
	ExpiresAt  int64  `bson:"expires_at"`
	Status     string `bson:"status"`
	CreatedAt  int64  `bson:"created_at"`
	UpdatedAt  int64  `bson:"updated_at"`
	Version    int64  `bson:"version"`
}

func newLockDocument(l *domainlock.Lock) lockDocument {
	return lockDocument{
		ID:         string(l.ID),
		VehicleID:  l.VehicleID,
		CustomerID: l.CustomerID,
		SessionID:  l.SessionID,
		Pickup:     l.Window.Pickup.UnixMilli(),
		Return:     l.Window.Return.UnixMilli(),
		ExpiresAt:  l.ExpiresAt.UnixMilli(),
		Status:     string(l.Status),
		CreatedAt:  l.CreatedAt.UnixMilli(),
		UpdatedAt:  l.UpdatedAt.UnixMilli(),
		Version:    l.Version,
	}
}

func (d lockDocument) toAggregate() *domainlock.Lock {
	return &domainlock.Lock{
		ID:         domainlock.LockID(d.ID),
		VehicleID:  d.VehicleID,
		CustomerID: d.CustomerID,
		SessionID:  d.SessionID,
		Window:     timerange.TimeRange{Pickup: timestampToTime(d.Pickup), Return: timestampToTime(d.Return)},
		ExpiresAt:  timestampToTime(d.ExpiresAt),
		Status:     domainlock.State(d.Status),
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
		Version:    d.Version,
	}
}

var _ domainlock.Repository = (*LockRepository)(nil)
