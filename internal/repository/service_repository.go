package repository

import (
	"context"
	"regexp"
	"time"

	"servicehub/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type serviceDocument struct {
	ID            primitive.ObjectID `bson:"_id"`
	Name          string             `bson:"name"`
	Description   string             `bson:"description"`
	Category      primitive.ObjectID `bson:"category"`
	Price         float64            `bson:"price"`
	Availability  string             `bson:"availability"`
	Provider      primitive.ObjectID `bson:"provider"`
	Icon          *mediaDocument     `bson:"icon,omitempty"`
	Images        []mediaDocument    `bson:"images"`
	AverageRating float64            `bson:"averageRating"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d *serviceDocument) toDomain() *domain.Service {
	return &domain.Service{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Description:   d.Description,
		CategoryID:    hexOrEmpty(d.Category),
		Price:         d.Price,
		Availability:  domain.Availability(d.Availability),
		ProviderID:    hexOrEmpty(d.Provider),
		Icon:          fromMediaDocument(d.Icon),
		Images:        fromMediaDocuments(d.Images),
		AverageRating: d.AverageRating,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type serviceRepository struct {
	coll *mongo.Collection
}

// NewServiceRepository creates a new instance of ServiceRepository
func NewServiceRepository(db *mongo.Database) ServiceRepository {
	return &serviceRepository{coll: db.Collection(ServicesCollection)}
}

func (r *serviceRepository) Create(ctx context.Context, service *domain.Service) error {
	oid, err := newObjectID(&service.ID)
	if err != nil {
		return err
	}
	category, err := objectID(service.CategoryID)
	if err != nil {
		return err
	}
	provider, err := objectID(service.ProviderID)
	if err != nil {
		return err
	}

	return insert(ctx, r.coll, &serviceDocument{
		ID:            oid,
		Name:          service.Name,
		Description:   service.Description,
		Category:      category,
		Price:         service.Price,
		Availability:  string(service.Availability),
		Provider:      provider,
		Icon:          toMediaDocument(service.Icon),
		Images:        toMediaDocuments(service.Images),
		AverageRating: service.AverageRating,
		CreatedAt:     service.CreatedAt,
		UpdatedAt:     service.UpdatedAt,
	})
}

func (r *serviceRepository) FindByID(ctx context.Context, id string) (*domain.Service, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOne(ctx, r.coll, bson.M{"_id": oid}, (*serviceDocument).toDomain)
}

func (r *serviceRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Service, error) {
	services, err := findAll(ctx, r.coll, bson.M{"_id": bson.M{"$in": objectIDs(ids)}}, (*serviceDocument).toDomain)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*domain.Service, len(services))
	for _, s := range services {
		out[s.ID] = s
	}
	return out, nil
}

func (r *serviceRepository) List(ctx context.Context) ([]*domain.Service, error) {
	return findAll(ctx, r.coll, bson.M{}, (*serviceDocument).toDomain, sortByCreated())
}

func (r *serviceRepository) Search(ctx context.Context, name string) ([]*domain.Service, error) {
	filter := bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(name), Options: "i"}}
	return findAll(ctx, r.coll, filter, (*serviceDocument).toDomain, sortByCreated())
}

func (r *serviceRepository) ListByProvider(ctx context.Context, providerID string) ([]*domain.Service, error) {
	oid, err := objectID(providerID)
	if err != nil {
		return []*domain.Service{}, nil
	}
	return findAll(ctx, r.coll, bson.M{"provider": oid}, (*serviceDocument).toDomain, sortByCreated())
}

func (r *serviceRepository) ListByCategory(ctx context.Context, categoryID string) ([]*domain.Service, error) {
	oid, err := objectID(categoryID)
	if err != nil {
		return []*domain.Service{}, nil
	}
	return findAll(ctx, r.coll, bson.M{"category": oid}, (*serviceDocument).toDomain, sortByCreated())
}

func (r *serviceRepository) Update(ctx context.Context, id string, upd domain.ServiceUpdate) (*domain.Service, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	s := newSetter()
	if upd.Name != nil {
		s.put("name", *upd.Name)
	}
	if upd.Description != nil {
		s.put("description", *upd.Description)
	}
	if upd.CategoryID != nil {
		category, err := objectID(*upd.CategoryID)
		if err != nil {
			return nil, err
		}
		s.put("category", category)
	}
	if upd.Price != nil {
		s.put("price", *upd.Price)
	}
	if upd.Availability != nil {
		s.put("availability", string(*upd.Availability))
	}
	if upd.Icon != nil {
		if icon := *upd.Icon; icon != nil {
			s.put("icon", toMediaDocument(icon))
		} else {
			s.clear("icon")
		}
	}
	if upd.Images != nil {
		s.put("images", toMediaDocuments(*upd.Images))
	}
	if upd.AverageRating != nil {
		s.put("averageRating", *upd.AverageRating)
	}

	return updateOne(ctx, r.coll, bson.M{"_id": oid}, s.update(), (*serviceDocument).toDomain)
}

func (r *serviceRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}
