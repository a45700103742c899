package repository

import (
	"context"
	"strings"
	"time"

	"servicehub/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type userDocument struct {
	ID             primitive.ObjectID `bson:"_id"`
	Name           string             `bson:"name"`
	Email          string             `bson:"email"`
	PasswordHash   string             `bson:"password"`
	Address        string             `bson:"address"`
	Phone          string             `bson:"phone"`
	Role           string             `bson:"role"`
	ProfilePicture *mediaDocument     `bson:"profilePicture,omitempty"`
	AccountStatus  string             `bson:"accountStatus"`
	EmailVerified  bool               `bson:"isEmailVerified"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:             d.ID.Hex(),
		Name:           d.Name,
		Email:          d.Email,
		PasswordHash:   d.PasswordHash,
		Address:        d.Address,
		Phone:          d.Phone,
		Role:           domain.Role(d.Role),
		ProfilePicture: fromMediaDocument(d.ProfilePicture),
		AccountStatus:  domain.AccountStatus(d.AccountStatus),
		EmailVerified:  d.EmailVerified,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type userRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{coll: db.Collection(UsersCollection)}
}

// Create inserts a new user. Emails are stored lower-cased and are unique.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	oid, err := newObjectID(&user.ID)
	if err != nil {
		return err
	}
	user.Email = strings.ToLower(user.Email)

	return insert(ctx, r.coll, &userDocument{
		ID:             oid,
		Name:           user.Name,
		Email:          user.Email,
		PasswordHash:   user.PasswordHash,
		Address:        user.Address,
		Phone:          user.Phone,
		Role:           string(user.Role),
		ProfilePicture: toMediaDocument(user.ProfilePicture),
		AccountStatus:  string(user.AccountStatus),
		EmailVerified:  user.EmailVerified,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	})
}

// FindByID retrieves a user by ID
func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOne(ctx, r.coll, bson.M{"_id": oid}, (*userDocument).toDomain)
}

// FindByIDs retrieves the users with the given ids keyed by id. Unknown ids
// are absent from the result.
func (r *userRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	users, err := findAll(ctx, r.coll, bson.M{"_id": bson.M{"$in": objectIDs(ids)}}, (*userDocument).toDomain)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*domain.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// FindByEmail retrieves a user by email, ignoring case
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return findOne(ctx, r.coll, bson.M{"email": strings.ToLower(email)}, (*userDocument).toDomain)
}

// ListByRole lists every user holding role, newest first
func (r *userRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	return findAll(ctx, r.coll, bson.M{"role": string(role)}, (*userDocument).toDomain, sortByCreated())
}

// Update applies the non-nil fields of upd and returns the updated user
func (r *userRepository) Update(ctx context.Context, id string, upd domain.UserUpdate) (*domain.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	s := newSetter()
	if upd.Name != nil {
		s.put("name", *upd.Name)
	}
	if upd.Email != nil {
		s.put("email", strings.ToLower(*upd.Email))
	}
	if upd.Address != nil {
		s.put("address", *upd.Address)
	}
	if upd.Phone != nil {
		s.put("phone", *upd.Phone)
	}
	if upd.PasswordHash != nil {
		s.put("password", *upd.PasswordHash)
	}
	if upd.Role != nil {
		s.put("role", string(*upd.Role))
	}
	if upd.AccountStatus != nil {
		s.put("accountStatus", string(*upd.AccountStatus))
	}
	if upd.ProfilePicture != nil {
		if pic := *upd.ProfilePicture; pic != nil {
			s.put("profilePicture", toMediaDocument(pic))
		} else {
			s.clear("profilePicture")
		}
	}

	return updateOne(ctx, r.coll, bson.M{"_id": oid}, s.update(), (*userDocument).toDomain)
}
