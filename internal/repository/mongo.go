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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	UsersCollection      = "users"
	CategoriesCollection = "categories"
	ServicesCollection   = "services"
	BookingsCollection   = "bookings"
	ReviewsCollection    = "reviews"
	PaymentsCollection   = "payments"
)

// NewMongoRepositories creates every repository on db
func NewMongoRepositories(db *mongo.Database) *Repositories {
	return &Repositories{
		Users:      NewUserRepository(db),
		Categories: NewCategoryRepository(db),
		Services:   NewServiceRepository(db),
		Bookings:   NewBookingRepository(db),
		Reviews:    NewReviewRepository(db),
		Payments:   NewPaymentRepository(db),
	}
}

type mediaDocument struct {
	URL      string `bson:"url"`
	PublicID string `bson:"publicId,omitempty"`
}

func toMediaDocuments(refs []domain.MediaRef) []mediaDocument {
	docs := make([]mediaDocument, 0, len(refs))
	for _, r := range refs {
		docs = append(docs, mediaDocument{URL: r.URL, PublicID: r.PublicID})
	}
	return docs
}

func fromMediaDocuments(docs []mediaDocument) []domain.MediaRef {
	refs := make([]domain.MediaRef, 0, len(docs))
	for _, d := range docs {
		refs = append(refs, domain.MediaRef{URL: d.URL, PublicID: d.PublicID})
	}
	return refs
}

func toMediaDocument(ref *domain.MediaRef) *mediaDocument {
	if ref == nil {
		return nil
	}
	return &mediaDocument{URL: ref.URL, PublicID: ref.PublicID}
}

func fromMediaDocument(doc *mediaDocument) *domain.MediaRef {
	if doc == nil {
		return nil
	}
	return &domain.MediaRef{URL: doc.URL, PublicID: doc.PublicID}
}

// objectID parses a hex id. Malformed ids cannot match any document and
// are reported as ErrNotFound.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

// newObjectID assigns a fresh id when the entity has none
func newObjectID(id *string) (primitive.ObjectID, error) {
	if *id == "" {
		oid := primitive.NewObjectID()
		*id = oid.Hex()
		return oid, nil
	}
	return objectID(*id)
}

func objectIDs(ids []string) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		if _, ok := seen[oid]; ok {
			continue
		}
		seen[oid] = struct{}{}
		out = append(out, oid)
	}
	return out
}

func hexOrEmpty(oid primitive.ObjectID) string {
	if oid.IsZero() {
		return ""
	}
	return oid.Hex()
}

func now() time.Time {
	return time.Now().UTC()
}

// findAll runs filter on coll and converts every decoded document
func findAll[D any, T any](ctx context.Context, coll *mongo.Collection, filter any, conv func(*D) *T, opts ...*options.FindOptions) ([]*T, error) {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}

	var docs []D
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}

	out := make([]*T, 0, len(docs))
	for i := range docs {
		out = append(out, conv(&docs[i]))
	}
	return out, nil
}

// findOne decodes the single document matching filter
func findOne[D any, T any](ctx context.Context, coll *mongo.Collection, filter any, conv func(*D) *T) (*T, error) {
	var doc D
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find %s: %w", coll.Name(), err)
	}
	return conv(&doc), nil
}

// updateOne applies update to the document with oid and returns the result
func updateOne[D any, T any](ctx context.Context, coll *mongo.Collection, filter any, update bson.M, conv func(*D) *T) (*T, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc D
	if err := coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to update %s: %w", coll.Name(), err)
	}
	return conv(&doc), nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func insert(ctx context.Context, coll *mongo.Collection, doc any) error {
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert into %s: %w", coll.Name(), err)
	}
	return nil
}

// setter accumulates the $set and $unset parts of an update
type setter struct {
	set   bson.M
	unset bson.M
}

func newSetter() *setter {
	return &setter{set: bson.M{"updatedAt": now()}, unset: bson.M{}}
}

func (s *setter) put(key string, value any) {
	s.set[key] = value
}

func (s *setter) clear(key string) {
	s.unset[key] = ""
}

func (s *setter) update() bson.M {
	u := bson.M{"$set": s.set}
	if len(s.unset) > 0 {
		u["$unset"] = s.unset
	}
	return u
}

func sortByCreated() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}
