package repository

import (
	"context"
	"time"

	"servicehub/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type paymentDocument struct {
	ID            primitive.ObjectID `bson:"_id"`
	Booking       primitive.ObjectID `bson:"booking"`
	User          primitive.ObjectID `bson:"user"`
	Amount        float64            `bson:"amount"`
	TransactionID string             `bson:"transactionId"`
	Method        string             `bson:"paymentMethod"`
	PaymentDate   time.Time          `bson:"paymentDate"`
	RefundStatus  string             `bson:"refundStatus"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d *paymentDocument) toDomain() *domain.Payment {
	return &domain.Payment{
		ID:            d.ID.Hex(),
		BookingID:     hexOrEmpty(d.Booking),
		UserID:        hexOrEmpty(d.User),
		Amount:        d.Amount,
		TransactionID: d.TransactionID,
		Method:        domain.PaymentMethod(d.Method),
		PaymentDate:   d.PaymentDate,
		RefundStatus:  domain.RefundStatus(d.RefundStatus),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type paymentRepository struct {
	coll *mongo.Collection
}

// NewPaymentRepository creates a new instance of PaymentRepository
func NewPaymentRepository(db *mongo.Database) PaymentRepository {
	return &paymentRepository{coll: db.Collection(PaymentsCollection)}
}

// Create records a payment. Transaction ids are unique.
func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	oid, err := newObjectID(&payment.ID)
	if err != nil {
		return err
	}
	booking, err := objectID(payment.BookingID)
	if err != nil {
		return err
	}
	user, err := objectID(payment.UserID)
	if err != nil {
		return err
	}

	return insert(ctx, r.coll, &paymentDocument{
		ID:            oid,
		Booking:       booking,
		User:          user,
		Amount:        payment.Amount,
		TransactionID: payment.TransactionID,
		Method:        string(payment.Method),
		PaymentDate:   payment.PaymentDate,
		RefundStatus:  string(payment.RefundStatus),
		CreatedAt:     payment.CreatedAt,
		UpdatedAt:     payment.UpdatedAt,
	})
}

func (r *paymentRepository) List(ctx context.Context) ([]*domain.Payment, error) {
	return findAll(ctx, r.coll, bson.M{}, (*paymentDocument).toDomain, sortByCreated())
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Payment, error) {
	oid, err := objectID(userID)
	if err != nil {
		return []*domain.Payment{}, nil
	}
	return findAll(ctx, r.coll, bson.M{"user": oid}, (*paymentDocument).toDomain, sortByCreated())
}
