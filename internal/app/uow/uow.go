package uow

import (
	"context"

	domainbooking "rentwheels/internal/domain/booking"
	domaincoupon "rentwheels/internal/domain/coupon"
	domaincustomer "rentwheels/internal/domain/customer"
	domainlock "rentwheels/internal/domain/lock"
	domainvehicle "rentwheels/internal/domain/vehicle"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Vehicles() domainvehicle.Repository
	Locks() domainlock.Repository
	Bookings() domainbooking.Repository
	Coupons() domaincoupon.Repository
	Customers() domaincustomer.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
