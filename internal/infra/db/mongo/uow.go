package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentwheels/internal/app/uow"
	domainbooking "rentwheels/internal/domain/booking"
	domaincoupon "rentwheels/internal/domain/coupon"
	domaincustomer "rentwheels/internal/domain/customer"
	domainlock "rentwheels/internal/domain/lock"
	domainvehicle "rentwheels/internal/domain/vehicle"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo sessions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	VehicleRepo  domainvehicle.Repository
	LockRepo     domainlock.Repository
	BookingRepo  domainbooking.Repository
	CouponRepo   domaincoupon.Repository
	CustomerRepo domaincustomer.Repository
}

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:        f.DB,
		session:   session,
		vehicles:  f.VehicleRepo,
		locks:     f.LockRepo,
		bookings:  f.BookingRepo,
		coupons:   f.CouponRepo,
		customers: f.CustomerRepo,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

	vehicles  domainvehicle.Repository
	locks     domainlock.Repository
	bookings  domainbooking.Repository
	coupons   domaincoupon.Repository
	customers domaincustomer.Repository
}

func (u *Unit) Vehicles() domainvehicle.Repository { return u.vehicles }

func (u *Unit) Locks() domainlock.Repository { return u.locks }

func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) Coupons() domaincoupon.Repository { return u.coupons }

func (u *Unit) Customers() domaincustomer.Repository { return u.customers }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)
