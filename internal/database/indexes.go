package database

import (
	"context"
	"fmt"

	"servicehub/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// IndexSpec is the set of indexes one collection needs
type IndexSpec struct {
	Collection string
	Models     []mongo.IndexModel
}

// Indexes lists every index the repositories rely on
func Indexes() []IndexSpec {
	return []IndexSpec{
		{
			Collection: repository.UsersCollection,
			Models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
				{Keys: bson.D{{Key: "role", Value: 1}}, Options: options.Index().SetName("role")},
			},
		},
		{
			Collection: repository.CategoriesCollection,
			Models: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "name", Value: 1}},
					Options: options.Index().SetUnique(true).SetName("name_unique").SetCollation(&options.Collation{Locale: "en", Strength: 2}),
				},
			},
		},
		{
			Collection: repository.ServicesCollection,
			Models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "provider", Value: 1}}, Options: options.Index().SetName("provider")},
				{Keys: bson.D{{Key: "category", Value: 1}}, Options: options.Index().SetName("category")},
			},
		},
		{
			Collection: repository.BookingsCollection,
			Models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("user_created")},
				{Keys: bson.D{{Key: "service", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("service_created")},
			},
		},
		{
			Collection: repository.ReviewsCollection,
			Models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "service", Value: 1}}, Options: options.Index().SetName("service")},
			},
		},
		{
			Collection: repository.PaymentsCollection,
			Models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetName("user")},
				{Keys: bson.D{{Key: "transactionId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("transaction_unique")},
			},
		},
	}
}

// EnsureIndexes creates any missing index. Existing indexes are left as is.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	logger.Info("Ensuring database indexes...", zap.String("database", db.Name()))

	for _, spec := range Indexes() {
		names, err := db.Collection(spec.Collection).Indexes().CreateMany(ctx, spec.Models)
		if err != nil {
			logger.Error("Failed to create indexes", zap.String("collection", spec.Collection), zap.Error(err))
			return fmt.Errorf("failed to create indexes on %s: %w", spec.Collection, err)
		}
		logger.Debug("Indexes ready", zap.String("collection", spec.Collection), zap.Strings("indexes", names))
	}

	logger.Info("Database indexes ensured successfully")
	return nil
}
