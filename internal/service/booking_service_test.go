package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"servicehub/internal/domain"
	"servicehub/internal/media"
	"servicehub/internal/repository/inmem"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingCreate_SixImagesRejectedWithNothingStored(t *testing.T) {
	f := newFixture(t)
	provider := f.user(t, domain.RoleProvider)
	customer := f.user(t, domain.RoleCustomer)
	svc := f.service(t, provider, 0)

	_, err := f.bookings.Create(context.Background(), customer, CreateBookingInput{
		ServiceID:     svc.ID,
		ScheduledDate: time.Now().Add(time.Hour),
		Address:       "1 Main St",
		Phone:         "555",
	}, jpegs(6))

	requireKind(t, domain.KindInvalidArgument, err)
	assert.Equal(t, 0, f.store.UploadCalls())
	assert.Equal(t, 0, f.store.Len())
}

func TestBookingCreate_RequiredFields(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, domain.RoleCustomer)
	when := time.Now().Add(time.Hour)

	tests := []struct {
		name string
		in   CreateBookingInput
	}{
		{"missing service", CreateBookingInput{ScheduledDate: when, Address: "a", Phone: "p"}},
		{"missing date", CreateBookingInput{ServiceID: "s", Address: "a", Phone: "p"}},
		{"missing address", CreateBookingInput{ServiceID: "s", ScheduledDate: when, Phone: "p"}},
		{"blank phone", CreateBookingInput{ServiceID: "s", ScheduledDate: when, Address: "a", Phone: "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.bookings.Create(context.Background(), customer, tt.in, jpegs(1))
			requireKind(t, domain.KindInvalidArgument, err)
		})
	}
	assert.Equal(t, 0, f.store.UploadCalls())
}

func TestBookingCreate_UnknownServiceUploadsNothing(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, domain.RoleCustomer)

	_, err := f.bookings.Create(context.Background(), customer, CreateBookingInput{
		ServiceID:     "missing",
		ScheduledDate: time.Now(),
		Address:       "a",
		Phone:         "p",
	}, jpegs(2))

	requireKind(t, domain.KindNotFound, err)
	assert.Equal(t, 0, f.store.UploadCalls())
}

func TestBookingCreate_PersistFailureCompensatesUploads(t *testing.T) {
	repos := inmem.New()
	repos.Bookings = failingBookings{repos.Bookings}
	f := newFixtureWith(repos)
	provider := f.user(t, domain.RoleProvider)
	customer := f.user(t, domain.RoleCustomer)
	svc := f.service(t, provider, 0)

	_, err := f.bookings.Create(context.Background(), customer, CreateBookingInput{
		ServiceID:     svc.ID,
		ScheduledDate: time.Now(),
		Address:       "a",
		Phone:         "p",
	}, jpegs(3))

	requireKind(t, domain.KindInternal, err)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 3, f.store.UploadCalls())
	assert.Equal(t, 0, f.store.Len())
}

func TestBookingCreate_UploadFailureReportsOriginalError(t *testing.T) {
	f := newFixture(t)
	provider := f.user(t, domain.RoleProvider)
	customer := f.user(t, domain.RoleCustomer)
	svc := f.service(t, provider, 0)

	f.store.FailUploadsAfter(2)
	f.store.FailDeletes(true)
	_, err := f.bookings.Create(context.Background(), customer, CreateBookingInput{
		ServiceID:     svc.ID,
		ScheduledDate: time.Now(),
		Address:       "a",
		Phone:         "p",
	}, jpegs(5))

	requireKind(t, domain.KindUpstream, err)
	assert.ErrorIs(t, err, media.ErrInjected)
	assert.Equal(t, 2, f.store.DeleteCalls())

	list, _ := f.repos.Bookings.ListByUser(context.Background(), customer.ID)
	assert.Empty(t, list)
}

func TestBookingCreate_PendingWithSummaries(t *testing.T) {
	f := newFixture(t)
	provider := f.user(t, domain.RoleProvider)
	customer := f.user(t, domain.RoleCustomer)
	svc := f.service(t, provider, 0)

	view, err := f.bookings.Create(context.Background(), customer, CreateBookingInput{
		ServiceID:     svc.ID,
		ScheduledDate: time.Now().Add(time.Hour),
		Address:       "1 Main St",
		Phone:         "555",
	}, jpegs(2))

	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, view.Status)
	assert.Equal(t, domain.PaymentPending, view.PaymentStatus)
	assert.Len(t, view.Images, 2)
	assert.Equal(t, svc.Name, view.Service.Name)
	assert.Equal(t, customer.ID, view.User.ID)
}

func TestAttachImages(t *testing.T) {
	f := newFixture(t)
	provider := f.user(t, domain.RoleProvider)
	owner := f.user(t, domain.RoleCustomer)
	stranger := f.user(t, domain.RoleCustomer)
	svc := f.service(t, provider, 0)
	b := f.booking(t, owner, svc.ID, 3)
	ctx := context.Background()

	_, err := f.bookings.AttachImages(ctx, stranger, b.ID, jpegs(1))
	requireKind(t, domain.KindForbidden, err)

	_, err = f.bookings.AttachImages(ctx, owner, b.ID, nil)
	requireKind(t, domain.KindInvalidArgument, err)

	uploads := f.store.UploadCalls()
	_, err = f.bookings.AttachImages(ctx, owner, b.ID, jpegs(3))
	requireKind(t, domain.KindInvalidArgument, err)
	assert.Equal(t, uploads, f.store.UploadCalls())

	got, err := f.bookings.AttachImages(ctx, provider, b.ID, jpegs(2))
	require.NoError(t, err)
	assert.Len(t, got.Images, domain.MaxImages)

	_, err = f.bookings.AttachImages(ctx, owner, "missing", jpegs(1))
	requireKind(t, domain.KindNotFound, err)
}

func TestRemoveImage(t *testing.T) {
	f := newFixture(t)
	provider := f.user(t, domain.RoleProvider)
	owner := f.user(t, domain.RoleCustomer)
	stranger := f.user(t, domain.RoleCustomer)
	svc := f.service(t, provider, 0)
	b := f.booking(t, owner, svc.ID, 3)
	ctx := context.Background()

	_, err := f.bookings.RemoveImage(ctx, stranger, b.ID, 0)
	requireKind(t, domain.KindForbidden, err)

	_, err = f.bookings.RemoveImage(ctx, owner, b.ID, 3)
	requireKind(t, domain.KindNotFound, err)
	_, err = f.bookings.RemoveImage(ctx, owner, b.ID, -1)
	requireKind(t, domain.KindNotFound, err)

	got, err := f.bookings.RemoveImage(ctx, owner, b.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []domain.MediaRef{b.Images[0], b.Images[2]}, got.Images)
	assert.False(t, f.store.Has(b.Images[1].PublicID))
}

func TestRemoveImage_StoreFailureLeavesBookingUnchanged(t *testing.T) {
	f := newFixture(t)
	provider := f.user(t, domain.RoleProvider)
	owner := f.user(t, domain.RoleCustomer)
	svc := f.service(t, provider, 0)
	b := f.booking(t, owner, svc.ID, 2)

	f.store.FailDeletes(true)
	_, err := f.bookings.RemoveImage(context.Background(), owner, b.ID, 0)

	requireKind(t, domain.KindUpstream, err)
	got, err := f.repos.Bookings.FindByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Images, got.Images)
}

func TestUpdateFields(t *testing.T) {
	f := newFixture(t)
	provider := f.user(t, domain.RoleProvider)
	owner := f.user(t, domain.RoleCustomer)
	svc := f.service(t, provider, 0)
	b := f.booking(t, owner, svc.ID, 0)
	ctx := context.Background()

	address := "2 New St"
	_, err := f.bookings.UpdateFields(ctx, owner, b.ID, domain.BookingPatch{Address: &address})
	requireKind(t, domain.KindForbidden, err)

	_, err = f.bookings.UpdateFields(ctx, provider, b.ID, domain.BookingPatch{})
	requireKind(t, domain.KindInvalidArgument, err)

	bogus := domain.PaymentStatus("free")
	_, err = f.bookings.UpdateFields(ctx, provider, b.ID, domain.BookingPatch{PaymentStatus: &bogus})
	requireKind(t, domain.KindInvalidArgument, err)

	paid := domain.PaymentPaid
	got, err := f.bookings.UpdateFields(ctx, provider, b.ID, domain.BookingPatch{Address: &address, PaymentStatus: &paid})
	require.NoError(t, err)
	assert.Equal(t, address, got.Address)
	assert.Equal(t, domain.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, owner.ID, got.UserID)
	assert.Equal(t, svc.ID, got.ServiceID)
}

func TestUpdateStatus_UnguardedByDefault(t *testing.T) {
	f := newFixture(t)
	provider := f.user(t, domain.RoleProvider)
	owner := f.user(t, domain.RoleCustomer)
	stranger := f.user(t, domain.RoleCustomer)
	svc := f.service(t, provider, 0)
	b := f.booking(t, owner, svc.ID, 0)
	ctx := context.Background()

	_, err := f.bookings.UpdateStatus(ctx, owner, b.ID, "bogus")
	requireKind(t, domain.KindInvalidArgument, err)

	_, err = f.bookings.UpdateStatus(ctx, stranger, b.ID, domain.BookingCancelled)
	requireKind(t, domain.KindForbidden, err)

	_, err = f.bookings.UpdateStatus(ctx, provider, b.ID, domain.BookingCompleted)
	require.NoError(t, err)
	got, err := f.bookings.UpdateStatus(ctx, owner, b.ID, domain.BookingPending)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, got.Status)
}

func TestUpdateStatus_StrictTransitions(t *testing.T) {
	f := newFixture(t, WithStrictTransitions(true))
	provider := f.user(t, domain.RoleProvider)
	owner := f.user(t, domain.RoleCustomer)
	svc := f.service(t, provider, 0)
	b := f.booking(t, owner, svc.ID, 0)
	ctx := context.Background()

	_, err := f.bookings.UpdateStatus(ctx, provider, b.ID, domain.BookingCompleted)
	requireKind(t, domain.KindInvalidArgument, err)

	_, err = f.bookings.UpdateStatus(ctx, provider, b.ID, domain.BookingConfirmed)
	require.NoError(t, err)
	_, err = f.bookings.UpdateStatus(ctx, provider, b.ID, domain.BookingCompleted)
	require.NoError(t, err)

	_, err = f.bookings.UpdateStatus(ctx, owner, b.ID, domain.BookingPending)
	requireKind(t, domain.KindInvalidArgument, err)

	pending := domain.BookingPending
	_, err = f.bookings.UpdateFields(ctx, provider, b.ID, domain.BookingPatch{Status: &pending})
	requireKind(t, domain.KindInvalidArgument, err)
}

func TestUpdateStatus_ConcurrentWritesLastWins(t *testing.T) {
	f := newFixture(t)
	provider := f.user(t, domain.RoleProvider)
	owner := f.user(t, domain.RoleCustomer)
	svc := f.service(t, provider, 0)
	b := f.booking(t, owner, svc.ID, 0)
	ctx := context.Background()

	statuses := []domain.BookingStatus{domain.BookingConfirmed, domain.BookingCancelled, domain.BookingCompleted}
	var wg sync.WaitGroup
	for _, st := range statuses {
		wg.Add(1)
		go func(st domain.BookingStatus) {
			defer wg.Done()
			_, err := f.bookings.UpdateStatus(ctx, provider, b.ID, st)
			assert.NoError(t, err)
		}(st)
	}
	wg.Wait()

	got, err := f.repos.Bookings.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Contains(t, statuses, got.Status)
}

func TestDelete_ReleasesEveryImageEvenWhenDeletesFail(t *testing.T) {
	f := newFixture(t)
	provider := f.user(t, domain.RoleProvider)
	owner := f.user(t, domain.RoleCustomer)
	svc := f.service(t, provider, 0)
	b := f.booking(t, owner, svc.ID, 3)
	ctx := context.Background()

	f.store.FailDeletes(true)
	before := f.store.DeleteCalls()
	require.NoError(t, f.bookings.Delete(ctx, owner, b.ID))

	assert.Equal(t, 3, f.store.DeleteCalls()-before)
	_, err := f.repos.Bookings.FindByID(ctx, b.ID)
	assert.Error(t, err)
}

func TestDelete_Authorization(t *testing.T) {
	f := newFixture(t)
	provider := f.user(t, domain.RoleProvider)
	admin := f.user(t, domain.RoleAdmin)
	owner := f.user(t, domain.RoleCustomer)
	stranger := f.user(t, domain.RoleCustomer)
	svc := f.service(t, provider, 0)
	ctx := context.Background()

	b := f.booking(t, owner, svc.ID, 1)
	requireKind(t, domain.KindForbidden, f.bookings.Delete(ctx, stranger, b.ID))
	requireKind(t, domain.KindForbidden, f.bookings.Delete(ctx, provider, b.ID))
	require.NoError(t, f.bookings.Delete(ctx, owner, b.ID))
	requireKind(t, domain.KindNotFound, f.bookings.Delete(ctx, owner, b.ID))

	other := f.booking(t, owner, svc.ID, 0)
	require.NoError(t, f.bookings.Delete(ctx, admin, other.ID))
}

func TestDelete_LeavesServiceImagesUntouched(t *testing.T) {
	f := newFixture(t)
	provider := f.user(t, domain.RoleProvider)
	owner := f.user(t, domain.RoleCustomer)
	svc := f.service(t, provider, 2)
	b := f.booking(t, owner, svc.ID, 1)

	require.NoError(t, f.bookings.Delete(context.Background(), owner, b.ID))

	got, err := f.repos.Services.FindByID(context.Background(), svc.ID)
	require.NoError(t, err)
	require.Len(t, got.Images, 2)
	for _, img := range got.Images {
		assert.True(t, f.store.Has(img.PublicID))
	}
}

func TestListings(t *testing.T) {
	f := newFixture(t)
	provider := f.user(t, domain.RoleProvider)
	admin := f.user(t, domain.RoleAdmin)
	owner := f.user(t, domain.RoleCustomer)
	other := f.user(t, domain.RoleCustomer)
	svc := f.service(t, provider, 0)
	f.booking(t, owner, svc.ID, 0)
	ctx := context.Background()

	mine, err := f.bookings.ListByUser(ctx, owner, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, svc.Name, mine[0].Service.Name)
	assert.Equal(t, owner.ID, mine[0].User.ID)

	_, err = f.bookings.ListByUser(ctx, other, owner.ID)
	requireKind(t, domain.KindForbidden, err)
	_, err = f.bookings.ListByUser(ctx, other, other.ID)
	requireKind(t, domain.KindNotFound, err)
	_, err = f.bookings.ListByUser(ctx, admin, owner.ID)
	require.NoError(t, err)

	_, err = f.bookings.ListByService(ctx, owner, svc.ID)
	requireKind(t, domain.KindForbidden, err)
	bySvc, err := f.bookings.ListByService(ctx, provider, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.Name, bySvc[0].User.Name)

	_, err = f.bookings.ListAll(ctx, provider)
	requireKind(t, domain.KindForbidden, err)
	all, err := f.bookings.ListAll(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestProperty_ImagesNeverExceedLimit(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("a booking never holds more than MaxImages images", prop.ForAll(
		func(initial int, batches []int) bool {
			f := newFixture(t)
			provider := f.user(t, domain.RoleProvider)
			owner := f.user(t, domain.RoleCustomer)
			svc := f.service(t, provider, 0)
			b := f.booking(t, owner, svc.ID, initial)
			ctx := context.Background()

			for _, n := range batches {
				_, _ = f.bookings.AttachImages(ctx, owner, b.ID, jpegs(n))
				got, err := f.repos.Bookings.FindByID(ctx, b.ID)
				if err != nil || len(got.Images) > domain.MaxImages {
					return false
				}
				if len(got.Images) > 0 && n%2 == 0 {
					_, _ = f.bookings.RemoveImage(ctx, owner, b.ID, 0)
				}
			}
			return f.store.Len() <= domain.MaxImages
		},
		gen.IntRange(0, domain.MaxImages),
		gen.SliceOfN(6, gen.IntRange(0, 4)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
