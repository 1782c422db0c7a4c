package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "rentwheels/internal/domain/booking"
	domainpricing "rentwheels/internal/domain/pricing"
	"rentwheels/internal/domain/shared/money"
	"rentwheels/internal/domain/shared/timerange"
	domainvehicle "rentwheels/internal/domain/vehicle"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("agg_booking")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "status", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &BookingRepository{col: col}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
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
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ConfirmedByVehicle(ctx context.Context, vehicleID domainvehicle.VehicleID) ([]*domainbooking.Booking, error) {
	filter := bson.M{"vehicle_id": string(vehicleID), "status": string(domainbooking.StateConfirmed)}
	return r.find(ctx, filter, nil)
}

func (r *BookingRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"customer_id": customerID}, opts)
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainbooking.Booking, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = r.col.Find(ctx, filter, opts)
	} else {
		cursor, err = r.col.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var bookings []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		bookings = append(bookings, doc.toAggregate())
	}
	return bookings, cursor.Err()
}

type bookingDocument struct {
	ID            string        `bson:"_id"`
	CustomerID    string        `bson:"customer_id"`
	VehicleID     string        `bson:"vehicle_id"`
	Pickup        int64         `bson:"pickup"`
	Return        int64         `bson:"return"`
	Price         quoteDocument `bson:"price"`
	PaymentID     string        `bson:"payment_id"`
	OrderID       string        `bson:"order_id"`
	AppliedCoupon string        `bson:"applied_coupon,omitempty"`
	Status        string        `bson:"status"`
	CreatedAt     int64         `bson:"created_at"`
	UpdatedAt     int64         `bson:"updated_at"`
	Version       int64         `bson:"version"`
}

// quoteDocument flattens the itemized price to whole-rupee integers; the
// aggregate is rebuilt loss-free because every component is already rounded.
type quoteDocument struct {
	Hours              int   `bson:"hours"`
	Tier               int   `bson:"tier"`
	BaseHourlyRate     int64 `bson:"base_hourly_rate"`
	AdjustedHourlyRate int64 `bson:"adjusted_hourly_rate"`
	RentalCost         int64 `bson:"rental_cost"`
	InsuranceCost      int64 `bson:"insurance_cost"`
	ConvenienceFee     int64 `bson:"convenience_fee"`
	GST                int64 `bson:"gst"`
	Discount           int64 `bson:"discount"`
	Total              int64 `bson:"total"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:            string(b.ID),
		CustomerID:    b.CustomerID,
		VehicleID:     string(b.VehicleID),
		Pickup:        b.Window.Pickup.UnixMilli(),
		Return:        b.Window.Return.UnixMilli(),
		Price:         newQuoteDocument(b.Price),
		PaymentID:     b.PaymentID,
		OrderID:       b.OrderID,
		AppliedCoupon: b.AppliedCoupon,
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt.UnixMilli(),
		UpdatedAt:     b.UpdatedAt.UnixMilli(),
		Version:       b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:            domainbooking.BookingID(d.ID),
		CustomerID:    d.CustomerID,
		VehicleID:     domainvehicle.VehicleID(d.VehicleID),
		Window:        timerange.TimeRange{Pickup: timestampToTime(d.Pickup), Return: timestampToTime(d.Return)},
		Price:         d.Price.toQuote(),
		PaymentID:     d.PaymentID,
		OrderID:       d.OrderID,
		AppliedCoupon: d.AppliedCoupon,
		Status:        domainbooking.State(d.Status),
		CreatedAt:     timestampToTime(d.CreatedAt),
		UpdatedAt:     timestampToTime(d.UpdatedAt),
		Version:       d.Version,
	}
}

func newQuoteDocument(q domainpricing.Quote) quoteDocument {
	return quoteDocument{
		Hours:              q.Hours,
		Tier:               int(q.Tier),
		BaseHourlyRate:     q.BaseHourlyRate.Amount,
		AdjustedHourlyRate: q.AdjustedHourlyRate.Amount,
		RentalCost:         q.RentalCost.Amount,
		InsuranceCost:      q.InsuranceCost.Amount,
		ConvenienceFee:     q.ConvenienceFee.Amount,
		GST:                q.GST.Amount,
		Discount:           q.Discount.Amount,
		Total:              q.Total.Amount,
	}
}

func (d quoteDocument) toQuote() domainpricing.Quote {
	return domainpricing.Quote{
		Hours:              d.Hours,
		Tier:               domainpricing.TierID(d.Tier),
		BaseHourlyRate:     money.Money{Amount: d.BaseHourlyRate},
		AdjustedHourlyRate: money.Money{Amount: d.AdjustedHourlyRate},
		RentalCost:         money.Money{Amount: d.RentalCost},
		InsuranceCost:      money.Money{Amount: d.InsuranceCost},
		ConvenienceFee:     money.Money{Amount: d.ConvenienceFee},
		GST:                money.Money{Amount: d.GST},
		Discount:           money.Money{Amount: d.Discount},
		Total:              money.Money{Amount: d.Total},
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
