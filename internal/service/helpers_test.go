package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"servicehub/internal/domain"
	"servicehub/internal/media"
	"servicehub/internal/repository"
	"servicehub/internal/repository/inmem"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret-key"

var errStoreDown = errors.New("store unavailable")

type fixture struct {
	repos    *repository.Repositories
	store    *media.MemoryStore
	manager  *media.Manager
	users    UserService
	catalog  CatalogService
	bookings BookingService
	reviews  ReviewService
	payments PaymentService
}

func newFixture(t *testing.T, opts ...BookingOption) *fixture {
	t.Helper()
	return newFixtureWith(inmem.New(), opts...)
}

func newFixtureWith(repos *repository.Repositories, opts ...BookingOption) *fixture {
	logger := zap.NewNop()
	store := media.NewMemoryStore()
	manager := media.NewManager(store, logger, time.Second)

	return &fixture{
		repos:    repos,
		store:    store,
		manager:  manager,
		users:    NewUserService(repos.Users, manager, testSecret, time.Hour, logger),
		catalog:  NewCatalogService(repos.Categories, repos.Services, repos.Users, manager, logger),
		bookings: NewBookingService(repos.Bookings, repos.Services, repos.Users, manager, logger, opts...),
		reviews:  NewReviewService(repos.Reviews, repos.Services, repos.Users, manager, logger),
		payments: NewPaymentService(repos.Payments, repos.Bookings, logger),
	}
}

var userSeq atomic.Int64

func (f *fixture) user(t *testing.T, role domain.Role) *domain.User {
	t.Helper()
	n := userSeq.Add(1)
	u := &domain.User{
		Name:          fmt.Sprintf("%s %d", role, n),
		Email:         fmt.Sprintf("%s-%d@example.com", role, n),
		PasswordHash:  "x",
		Role:          role,
		AccountStatus: domain.AccountActive,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	require.NoError(t, f.repos.Users.Create(context.Background(), u))
	return u
}

func (f *fixture) category(t *testing.T, name string) *domain.Category {
	t.Helper()
	c := &domain.Category{Name: name, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, f.repos.Categories.Create(context.Background(), c))
	return c
}

func (f *fixture) service(t *testing.T, provider *domain.User, images int) *domain.Service {
	t.Helper()
	cat := f.category(t, fmt.Sprintf("Category %d", userSeq.Add(1)))
	view, err := f.catalog.Create(context.Background(), provider, CreateServiceInput{
		Name:         "Pipe Repair",
		Description:  "Fix leaks",
		CategoryName: cat.Name,
		Price:        50,
	}, ServiceMedia{Images: jpegs(images)})
	require.NoError(t, err)
	return view.Service
}

func (f *fixture) booking(t *testing.T, owner *domain.User, serviceID string, images int) *domain.Booking {
	t.Helper()
	view, err := f.bookings.Create(context.Background(), owner, CreateBookingInput{
		ServiceID:     serviceID,
		ScheduledDate: time.Now().Add(48 * time.Hour),
		Address:       "1 Main St",
		Phone:         "555-0100",
	}, jpegs(images))
	require.NoError(t, err)
	return view.Booking
}

func jpeg(name string) media.File {
	body := "fake-jpeg-bytes"
	return media.File{
		Filename:    name,
		ContentType: "image/jpeg",
		Size:        int64(len(body)),
		Content:     strings.NewReader(body),
	}
}

func jpegs(n int) []media.File {
	files := make([]media.File, n)
	for i := range files {
		files[i] = jpeg(fmt.Sprintf("img%d.jpg", i))
	}
	return files
}

func requireKind(t *testing.T, want domain.ErrorKind, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, domain.KindOf(err), err.Error())
}

// failingBookings fails Create with errStoreDown
type failingBookings struct {
	repository.BookingRepository
}

func (failingBookings) Create(context.Context, *domain.Booking) error {
	return errStoreDown
}

// failingUserLookups fails every batch user lookup
type failingUserLookups struct {
	repository.UserRepository
}

func (failingUserLookups) FindByIDs(context.Context, []string) (map[string]*domain.User, error) {
	return nil, errStoreDown
}

func zapNop() *zap.Logger {
	return zap.NewNop()
}
