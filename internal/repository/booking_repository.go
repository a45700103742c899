package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servicehub/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type bookingDocument struct {
	ID            primitive.ObjectID `bson:"_id"`
	User          primitive.ObjectID `bson:"user"`
	Service       primitive.ObjectID `bson:"service"`
	ScheduledDate time.Time          `bson:"scheduledDate"`
	Status        string             `bson:"status"`
	Address       string             `bson:"address"`
	Phone         string             `bson:"phone"`
	Images        []mediaDocument    `bson:"images"`
	PaymentStatus string             `bson:"paymentStatus"`
	Notes         string             `bson:"notes,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d *bookingDocument) toDomain() *domain.Booking {
	return &domain.Booking{
		ID:            d.ID.Hex(),
		UserID:        hexOrEmpty(d.User),
		ServiceID:     hexOrEmpty(d.Service),
		ScheduledDate: d.ScheduledDate,
		Status:        domain.BookingStatus(d.Status),
		Address:       d.Address,
		Phone:         d.Phone,
		Images:        fromMediaDocuments(d.Images),
		PaymentStatus: domain.PaymentStatus(d.PaymentStatus),
		Notes:         d.Notes,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type bookingRepository struct {
	coll *mongo.Collection
}

// NewBookingRepository creates a new instance of BookingRepository
func NewBookingRepository(db *mongo.Database) BookingRepository {
	return &bookingRepository{coll: db.Collection(BookingsCollection)}
}

func (r *bookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	oid, err := newObjectID(&booking.ID)
	if err != nil {
		return err
	}
	user, err := objectID(booking.UserID)
	if err != nil {
		return err
	}
	service, err := objectID(booking.ServiceID)
	if err != nil {
		return err
	}

	return insert(ctx, r.coll, &bookingDocument{
		ID:            oid,
		User:          user,
		Service:       service,
		ScheduledDate: booking.ScheduledDate,
		Status:        string(booking.Status),
		Address:       booking.Address,
		Phone:         booking.Phone,
		Images:        toMediaDocuments(booking.Images),
		PaymentStatus: string(booking.PaymentStatus),
		Notes:         booking.Notes,
		CreatedAt:     booking.CreatedAt,
		UpdatedAt:     booking.UpdatedAt,
	})
}

func (r *bookingRepository) FindByID(ctx context.Context, id string) (*domain.Booking, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOne(ctx, r.coll, bson.M{"_id": oid}, (*bookingDocument).toDomain)
}

func (r *bookingRepository) List(ctx context.Context) ([]*domain.Booking, error) {
	return findAll(ctx, r.coll, bson.M{}, (*bookingDocument).toDomain, sortByCreated())
}

func (r *bookingRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Booking, error) {
	oid, err := objectID(userID)
	if err != nil {
		return []*domain.Booking{}, nil
	}
	return findAll(ctx, r.coll, bson.M{"user": oid}, (*bookingDocument).toDomain, sortByCreated())
}

func (r *bookingRepository) ListByService(ctx context.Context, serviceID string) ([]*domain.Booking, error) {
	oid, err := objectID(serviceID)
	if err != nil {
		return []*domain.Booking{}, nil
	}
	return findAll(ctx, r.coll, bson.M{"service": oid}, (*bookingDocument).toDomain, sortByCreated())
}

func (r *bookingRepository) Update(ctx context.Context, id string, patch domain.BookingPatch) (*domain.Booking, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	s := newSetter()
	if patch.ScheduledDate != nil {
		s.put("scheduledDate", *patch.ScheduledDate)
	}
	if patch.Address != nil {
		s.put("address", *patch.Address)
	}
	if patch.Phone != nil {
		s.put("phone", *patch.Phone)
	}
	if patch.Notes != nil {
		s.put("notes", *patch.Notes)
	}
	if patch.Status != nil {
		s.put("status", string(*patch.Status))
	}
	if patch.PaymentStatus != nil {
		s.put("paymentStatus", string(*patch.PaymentStatus))
	}

	return updateOne(ctx, r.coll, bson.M{"_id": oid}, s.update(), (*bookingDocument).toDomain)
}

func (r *bookingRepository) AppendImages(ctx context.Context, id string, refs []domain.MediaRef, max int) (*domain.Booking, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	if len(refs) > max {
		return nil, ErrImageLimit
	}
	if len(refs) == 0 {
		return r.FindByID(ctx, id)
	}

	// The array must not yet have an element at index max-len(refs).
	filter := bson.M{
		"_id": oid,
		fmt.Sprintf("images.%d", max-len(refs)): bson.M{"$exists": false},
	}
	update := bson.M{
		"$push": bson.M{"images": bson.M{"$each": toMediaDocuments(refs)}},
		"$set":  bson.M{"updatedAt": now()},
	}

	booking, err := updateOne(ctx, r.coll, filter, update, (*bookingDocument).toDomain)
	if !errors.Is(err, ErrNotFound) {
		return booking, err
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrImageLimit
}

func (r *bookingRepository) RemoveImage(ctx context.Context, id, url string) (*domain.Booking, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	update := bson.M{
		"$pull": bson.M{"images": bson.M{"url": url}},
		"$set":  bson.M{"updatedAt": now()},
	}
	return updateOne(ctx, r.coll, bson.M{"_id": oid}, update, (*bookingDocument).toDomain)
}

func (r *bookingRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}
