package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentwheels/internal/domain/shared/money"
	domainvehicle "rentwheels/internal/domain/vehicle"
)

type VehicleRepository struct {
	col *mongo.Collection
}

func NewVehicleRepository(db *mongo.Database) *VehicleRepository {
	col := db.Collection("agg_vehicle")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "city", Value: 1}, {Key: "next_available", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &VehicleRepository{col: col}
}

func (r *VehicleRepository) ByID(ctx context.Context, id domainvehicle.VehicleID) (*domainvehicle.Vehicle, error) {
	var doc vehicleDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainvehicle.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *VehicleRepository) Save(ctx context.Context, v *domainvehicle.Vehicle) error {
	doc := newVehicleDocument(v)
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

func (r *VehicleRepository) SearchByCity(ctx context.Context, city string, availableBy time.Time) ([]*domainvehicle.Vehicle, error) {
	filter := bson.M{
		"city":           city,
		"active":         true,
		"next_available": bson.M{"$lte": availableBy.UTC().UnixMilli()},
	}
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "daily_rate", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var vehicles []*domainvehicle.Vehicle
	for cursor.Next(ctx) {
		var doc vehicleDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, doc.toAggregate())
	}
	return vehicles, cursor.Err()
}

type vehicleDocument struct {
	ID            string `bson:"_id"`
	City          string `bson:"city"`
	Make          string `bson:"make"`
	Model         string `bson:"model"`
	DailyRate     int64  `bson:"daily_rate"`
	BufferHours   int    `bson:"buffer_hours"`
	NextAvailable int64  `bson:"next_available"`
	Active        bool   `bson:"active"`
	CreatedAt     int64  `bson:"created_at"`
	UpdatedAt     int64  `bson:"updated_at"`
}

func newVehicleDocument(v *domainvehicle.Vehicle) vehicleDocument {
	return vehicleDocument{
		ID:            string(v.ID),
		City:          v.City,
		Make:          v.Make,
		Model:         v.Model,
		DailyRate:     v.DailyRate.Amount,
		BufferHours:   v.BufferHours,
		NextAvailable: v.NextAvailable.UnixMilli(),
		Active:        v.Active,
		CreatedAt:     v.CreatedAt.UnixMilli(),
		UpdatedAt:     v.UpdatedAt.UnixMilli(),
	}
}

func (d vehicleDocument) toAggregate() *domainvehicle.Vehicle {
	return &domainvehicle.Vehicle{
		ID:            domainvehicle.VehicleID(d.ID),
		City:          d.City,
		Make:          d.Make,
		Model:         d.Model,
		DailyRate:     money.Money{Amount: d.DailyRate},
		BufferHours:   d.BufferHours,
		NextAvailable: timestampToTime(d.NextAvailable),
		Active:        d.Active,
		CreatedAt:     timestampToTime(d.CreatedAt),
		UpdatedAt:     timestampToTime(d.UpdatedAt),
	}
}

var _ domainvehicle.Repository = (*VehicleRepository)(nil)
