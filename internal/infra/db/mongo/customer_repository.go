package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincustomer "rentwheels/internal/domain/customer"
)

type CustomerRepository struct {
	col *mongo.Collection
}

func NewCustomerRepository(db *mongo.Database) *CustomerRepository {
	return &CustomerRepository{col: db.Collection("agg_customer")}
}

func (r *CustomerRepository) ByID(ctx context.Context, id string) (*domaincustomer.Customer, error) {
	var doc customerDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domaincustomer.ErrNotFound
		}
		return nil, err
	}
	return &domaincustomer.Customer{
		ID:        doc.ID,
		Phone:     doc.Phone,
		Name:      doc.Name,
		CreatedAt: timestampToTime(doc.CreatedAt),
	}, nil
}

func (r *CustomerRepository) Save(ctx context.Context, c *domaincustomer.Customer) error {
	doc := customerDocument{
		ID:        c.ID,
		Phone:     c.Phone,
		Name:      c.Name,
		CreatedAt: c.CreatedAt.UnixMilli(),
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

type customerDocument struct {
	ID        string `bson:"_id"`
	Phone     string `bson:"phone"`
	Name      string `bson:"name"`
	CreatedAt int64  `bson:"created_at"`
}

var _ domaincustomer.Repository = (*CustomerRepository)(nil)
