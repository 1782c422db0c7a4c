package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domaincoupon "rentwheels/internal/domain/coupon"
	"rentwheels/internal/domain/shared/money"
)

type CouponRepository struct {
	col *mongo.Collection
}

func NewCouponRepository(db *mongo.Database) *CouponRepository {
	return &CouponRepository{col: db.Collection("agg_coupon")}
}

func (r *CouponRepository) ByCode(ctx context.Context, code string) (*domaincoupon.Coupon, error) {
	var doc couponDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": code}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domaincoupon.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// IncrementUsage bumps the counter with a server-side $inc, guarded by the
// usage limit in the filter, so two concurrent redemptions cannot both land
// on the last remaining slot.
func (r *CouponRepository) IncrementUsage(ctx context.Context, code string) error {
	filter := bson.M{
		"_id": code,
		"$or": []bson.M{
			{"usage_limit": 0},
			{"$expr": bson.M{"$lt": []string{"$used_count", "$usage_limit"}}},
		},
	}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"used_count": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domaincoupon.ErrExhausted
	}
	return nil
}

type couponDocument struct {
	Code             string   `bson:"_id"`
	DiscountType     string   `bson:"discount_type"`
	DiscountValue    int64    `bson:"discount_value"`
	MaxDiscount      int64    `bson:"max_discount"`
	MinAmount        int64    `bson:"min_amount"`
	UsageLimit       int64    `bson:"usage_limit"`
	UsedCount        int64    `bson:"used_count"`
	SingleUse        bool     `bson:"single_use"`
	RequiredPrevious []string `bson:"required_previous,omitempty"`
	ValidFrom        int64    `bson:"valid_from"`
	ValidUntil       int64    `bson:"valid_until"`
}

func (d couponDocument) toAggregate() *domaincoupon.Coupon {
	return &domaincoupon.Coupon{
		Code:             d.Code,
		DiscountType:     domaincoupon.DiscountType(d.DiscountType),
		DiscountValue:    d.DiscountValue,
		MaxDiscount:      money.Money{Amount: d.MaxDiscount},
		MinAmount:        money.Money{Amount: d.MinAmount},
		UsageLimit:       d.UsageLimit,
		UsedCount:        d.UsedCount,
		SingleUse:        d.SingleUse,
		RequiredPrevious: d.RequiredPrevious,
		ValidFrom:        time.UnixMilli(d.ValidFrom).UTC(),
		ValidUntil:       time.UnixMilli(d.ValidUntil).UTC(),
	}
}

var _ domaincoupon.Repository = (*CouponRepository)(nil)
