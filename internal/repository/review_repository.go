package repository

import (
	"context"
	"fmt"
	"time"

	"servicehub/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type reviewDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	User      primitive.ObjectID `bson:"userId"`
	Service   primitive.ObjectID `bson:"service"`
	Rating    int                `bson:"rating"`
	Comment   string             `bson:"comment"`
	Images    []mediaDocument    `bson:"images"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *reviewDocument) toDomain() *domain.Review {
	return &domain.Review{
		ID:        d.ID.Hex(),
		UserID:    hexOrEmpty(d.User),
		ServiceID: hexOrEmpty(d.Service),
		Rating:    d.Rating,
		Comment:   d.Comment,
		Images:    fromMediaDocuments(d.Images),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type reviewRepository struct {
	coll *mongo.Collection
}

// NewReviewRepository creates a new instance of ReviewRepository
func NewReviewRepository(db *mongo.Database) ReviewRepository {
	return &reviewRepository{coll: db.Collection(ReviewsCollection)}
}

func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	oid, err := newObjectID(&review.ID)
	if err != nil {
		return err
	}
	user, err := objectID(review.UserID)
	if err != nil {
		return err
	}
	service, err := objectID(review.ServiceID)
	if err != nil {
		return err
	}

	return insert(ctx, r.coll, &reviewDocument{
		ID:        oid,
		User:      user,
		Service:   service,
		Rating:    review.Rating,
		Comment:   review.Comment,
		Images:    toMediaDocuments(review.Images),
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.UpdatedAt,
	})
}

func (r *reviewRepository) FindByID(ctx context.Context, id string) (*domain.Review, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOne(ctx, r.coll, bson.M{"_id": oid}, (*reviewDocument).toDomain)
}

func (r *reviewRepository) ListByService(ctx context.Context, serviceID string) ([]*domain.Review, error) {
	oid, err := objectID(serviceID)
	if err != nil {
		return []*domain.Review{}, nil
	}
	return findAll(ctx, r.coll, bson.M{"service": oid}, (*reviewDocument).toDomain, sortByCreated())
}

func (r *reviewRepository) Update(ctx context.Context, id string, rating int, comment string, images []domain.MediaRef) (*domain.Review, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	s := newSetter()
	s.put("rating", rating)
	s.put("comment", comment)
	s.put("images", toMediaDocuments(images))

	return updateOne(ctx, r.coll, bson.M{"_id": oid}, s.update(), (*reviewDocument).toDomain)
}

func (r *reviewRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}

func (r *reviewRepository) AverageRating(ctx context.Context, serviceID string) (float64, error) {
	oid, err := objectID(serviceID)
	if err != nil {
		return 0, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"service": oid}}},
		{{Key: "$group", Value: bson.M{"_id": "$service", "avg": bson.M{"$avg": "$rating"}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	var rows []struct {
		Avg float64 `bson:"avg"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("failed to decode ratings: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Avg, nil
}
