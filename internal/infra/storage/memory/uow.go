package memory

import (
	"context"
	"errors"

	"rentwheels/internal/app/uow"
	domainbooking "rentwheels/internal/domain/booking"
	domaincoupon "rentwheels/internal/domain/coupon"
	domaincustomer "rentwheels/internal/domain/customer"
	domainlock "rentwheels/internal/domain/lock"
	domainvehicle "rentwheels/internal/domain/vehicle"
)

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	VehicleRepo  domainvehicle.Repository
	LockRepo     domainlock.Repository
	BookingRepo  domainbooking.Repository
	CouponRepo   domaincoupon.Repository
	CustomerRepo domaincustomer.Repository
}

// NewFactory builds a factory over fresh empty stores.
func NewFactory() Factory {
	return Factory{
		VehicleRepo:  NewVehicleRepository(),
		LockRepo:     NewLockRepository(),
		BookingRepo:  NewBookingRepository(),
		CouponRepo:   NewCouponRepository(),
		CustomerRepo: NewCustomerRepository(),
	}
}

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.VehicleRepo == nil || f.LockRepo == nil || f.BookingRepo == nil || f.CouponRepo == nil || f.CustomerRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		vehicles:  f.VehicleRepo,
		locks:     f.LockRepo,
		bookings:  f.BookingRepo,
		coupons:   f.CouponRepo,
		customers: f.CustomerRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
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

func (u *Unit) Commit(ctx context.Context) error { return nil }

func (u *Unit) Rollback(ctx context.Context) error { return nil }

var _ uow.UoWFactory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)
