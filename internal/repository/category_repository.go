package repository

import (
	"context"
	"regexp"
	"time"

	"servicehub/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type categoryDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Description string             `bson:"description,omitempty"`
	Icon        string             `bson:"icon,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *categoryDocument) toDomain() *domain.Category {
	return &domain.Category{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Icon:        d.Icon,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type categoryRepository struct {
	coll *mongo.Collection
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *mongo.Database) CategoryRepository {
	return &categoryRepository{coll: db.Collection(CategoriesCollection)}
}

// Create inserts a new category. Names are unique.
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	oid, err := newObjectID(&category.ID)
	if err != nil {
		return err
	}

	return insert(ctx, r.coll, &categoryDocument{
		ID:          oid,
		Name:        category.Name,
		Description: category.Description,
		Icon:        category.Icon,
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	})
}

// FindByID retrieves a category by ID
func (r *categoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOne(ctx, r.coll, bson.M{"_id": oid}, (*categoryDocument).toDomain)
}

// FindByName retrieves a category by exact name, ignoring case
func (r *categoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	filter := bson.M{"name": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(name) + "$", Options: "i"}}
	return findOne(ctx, r.coll, filter, (*categoryDocument).toDomain)
}

// List retrieves every category ordered by name
func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return findAll(ctx, r.coll, bson.M{}, (*categoryDocument).toDomain, opts)
}

// Update renames a category and optionally replaces its description
func (r *categoryRepository) Update(ctx context.Context, id, name string, description *string) (*domain.Category, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	s := newSetter()
	s.put("name", name)
	if description != nil {
		s.put("description", *description)
	}

	return updateOne(ctx, r.coll, bson.M{"_id": oid}, s.update(), (*categoryDocument).toDomain)
}

// Delete removes a category. Services referencing it are left untouched.
func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}
