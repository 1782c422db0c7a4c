package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainbooking "rentwheels/internal/domain/booking"
	domaincoupon "rentwheels/internal/domain/coupon"
	domaincustomer "rentwheels/internal/domain/customer"
	domainlock "rentwheels/internal/domain/lock"
	domainvehicle "rentwheels/internal/domain/vehicle"
)

// VehicleRepository is an in-memory implementation for tests and dev mode.
type VehicleRepository struct {
	mu    sync.RWMutex
	items map[domainvehicle.VehicleID]*domainvehicle.Vehicle
}

func NewVehicleRepository() *VehicleRepository {
	return &VehicleRepository{items: make(map[domainvehicle.VehicleID]*domainvehicle.Vehicle)}
}

func (r *VehicleRepository) ByID(ctx context.Context, id domainvehicle.VehicleID) (*domainvehicle.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[id]
	if !ok {
		return nil, domainvehicle.ErrNotFound
	}
	clone := *v
	return &clone, nil
}

func (r *VehicleRepository) Save(ctx context.Context, v *domainvehicle.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *v
	r.items[v.ID] = &clone
	return nil
}

func (r *VehicleRepository) SearchByCity(ctx context.Context, city string, availableBy time.Time) ([]*domainvehicle.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matches []*domainvehicle.Vehicle
	for _, v := range r.items {
		if !v.Active || v.City != city {
			continue
		}
		if v.NextAvailable.After(availableBy) {
			continue
		}
		clone := *v
		matches = append(matches, &clone)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].DailyRate.Amount < matches[j].DailyRate.Amount
	})
	return matches, nil
}

// LockRepository enforces the one-active-lock-per-vehicle guard under a
// mutex, mirroring what the Mongo partial unique index provides.
type LockRepository struct {
	mu    sync.Mutex
	items map[domainlock.LockID]*domainlock.Lock
}

func NewLockRepository() *LockRepository {
	return &LockRepository{items: make(map[domainlock.LockID]*domainlock.Lock)}
}

func (r *LockRepository) ByID(ctx context.Context, id domainlock.LockID) (*domainlock.Lock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	if !ok {
		return nil, domainlock.ErrNotFound
	}
	clone := *l
	return &clone, nil
}

func (r *LockRepository) ActiveByVehicle(ctx context.Context, vehicleID string, now time.Time) (*domainlock.Lock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.items {
		if l.VehicleID == vehicleID && l.Live(now) {
			clone := *l
			return &clone, nil
		}
	}
	return nil, domainlock.ErrNotFound
}

func (r *LockRepository) Create(ctx context.Context, l *domainlock.Lock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.VehicleID != l.VehicleID || existing.Status != domainlock.StateActive {
			continue
		}
		if existing.Live(l.CreatedAt) {
			return &domainlock.LockedByOtherError{VehicleID: l.VehicleID, ExpiresAt: existing.ExpiresAt}
		}
		// Stale active row from a lapsed hold: expire it in place so the
		// fresh lock can land without waiting for the sweep.
		_ = existing.Expire(l.CreatedAt)
		existing.ClearEvents()
		existing.Version++
	}
	l.Version = 1
	clone := *l
	r.items[l.ID] = &clone
	return nil
}

func (r *LockRepository) Save(ctx context.Context, l *domainlock.Lock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.Version++
	clone := *l
	r.items[l.ID] = &clone
	return nil
}

func (r *LockRepository) Delete(ctx context.Context, id domainlock.LockID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *LockRepository) StaleActive(ctx context.Context, now time.Time, limit int) ([]*domainlock.Lock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stale []*domainlock.Lock
	for _, l := range r.items {
		if l.Status != domainlock.StateActive || l.ExpiresAt.After(now) {
			continue
		}
		clone := *l
		stale = append(stale, &clone)
		if limit > 0 && len(stale) >= limit {
			break
		}
	}
	return stale, nil
}

// BookingRepository stores bookings keyed by id.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.Version++
	clone := *b
	r.items[b.ID] = &clone
	return nil
}

func (r *BookingRepository) ConfirmedByVehicle(ctx context.Context, vehicleID domainvehicle.VehicleID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matches []*domainbooking.Booking
	for _, b := range r.items {
		if b.VehicleID == vehicleID && b.Status == domainbooking.StateConfirmed {
			clone := *b
			matches = append(matches, &clone)
		}
	}
	return matches, nil
}

func (r *BookingRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matches []*domainbooking.Booking
	for _, b := range r.items {
		if b.CustomerID == customerID {
			clone := *b
			matches = append(matches, &clone)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

// CouponRepository stores coupons keyed by code.
type CouponRepository struct {
	mu    sync.Mutex
	items map[string]*domaincoupon.Coupon
}

func NewCouponRepository() *CouponRepository {
	return &CouponRepository{items: make(map[string]*domaincoupon.Coupon)}
}

func (r *CouponRepository) Put(c *domaincoupon.Coupon) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *c
	r.items[c.Code] = &clone
}

func (r *CouponRepository) ByCode(ctx context.Context, code string) (*domaincoupon.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[code]
	if !ok {
		return nil, domaincoupon.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *CouponRepository) IncrementUsage(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[code]
	if !ok {
		return domaincoupon.ErrNotFound
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return domaincoupon.ErrExhausted
	}
	c.UsedCount++
	return nil
}

// CustomerRepository stores customers keyed by id.
type CustomerRepository struct {
	mu    sync.RWMutex
	items map[string]*domaincustomer.Customer
}

func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{items: make(map[string]*domaincustomer.Customer)}
}

func (r *CustomerRepository) ByID(ctx context.Context, id string) (*domaincustomer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[id]
	if !ok {
		return nil, domaincustomer.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *CustomerRepository) Save(ctx context.Context, c *domaincustomer.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *c
	r.items[c.ID] = &clone
	return nil
}

var (
	_ domainvehicle.Repository  = (*VehicleRepository)(nil)
	_ domainlock.Repository     = (*LockRepository)(nil)
	_ domainbooking.Repository  = (*BookingRepository)(nil)
	_ domaincoupon.Repository   = (*CouponRepository)(nil)
	_ domaincustomer.Repository = (*CustomerRepository)(nil)
)
