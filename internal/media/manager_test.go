package media

import (
	"context"
	"strings"
	"testing"

	"servicehub/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func jpeg(name string) File {
	body := "fake-jpeg-bytes"
	return File{
		Filename:    name,
		ContentType: "image/jpeg",
		Size:        int64(len(body)),
		Content:     strings.NewReader(body),
	}
}

func newTestManager() (*Manager, *MemoryStore) {
	store := NewMemoryStore()
	return NewManager(store, zap.NewNop(), 0), store
}

func TestPolicyCheck(t *testing.T) {
	tests := []struct {
		name    string
		file    File
		policy  Policy
		wantErr bool
	}{
		{"jpeg accepted", jpeg("a.jpg"), BookingPolicy, false},
		{"uppercase extension accepted", jpeg("A.JPEG"), BookingPolicy, false},
		{"png accepted", File{Filename: "a.png", ContentType: "image/png", Size: 1, Content: strings.NewReader("x")}, ReviewPolicy, false},
		{"content type with params", File{Filename: "a.png", ContentType: "image/png; charset=binary", Size: 1, Content: strings.NewReader("x")}, ReviewPolicy, false},
		{"no declared type", File{Filename: "a.png", Size: 1, Content: strings.NewReader("x")}, ReviewPolicy, false},
		{"gif rejected", File{Filename: "a.gif", ContentType: "image/gif", Size: 1, Content: strings.NewReader("x")}, BookingPolicy, true},
		{"mismatched type rejected", File{Filename: "a.jpg", ContentType: "application/pdf", Size: 1, Content: strings.NewReader("x")}, BookingPolicy, true},
		{"booking over 10MB rejected", File{Filename: "a.jpg", Size: 10<<20 + 1, Content: strings.NewReader("x")}, BookingPolicy, true},
		{"profile over 5MB rejected", File{Filename: "a.jpg", Size: 5<<20 + 1, Content: strings.NewReader("x")}, ProfilePolicy, true},
		{"profile at 5MB accepted", File{Filename: "a.jpg", Size: 5 << 20, Content: strings.NewReader("x")}, ProfilePolicy, false},
		{"missing content rejected", File{Filename: "a.jpg", Size: 1}, BookingPolicy, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Check(tt.file)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, domain.KindInvalidArgument, domain.KindOf(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAccept_InvalidFileNeverReachesStore(t *testing.T) {
	m, store := newTestManager()

	_, err := m.Accept(context.Background(), BookingPolicy, File{Filename: "x.exe", Size: 1, Content: strings.NewReader("x")})

	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidArgument, domain.KindOf(err))
	assert.Equal(t, 0, store.UploadCalls())
}

func TestAccept_UsesPolicyFolder(t *testing.T) {
	m, store := newTestManager()

	ref, err := m.Accept(context.Background(), ServicePolicy, jpeg("icon.jpg"))

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref.PublicID, "services/"))
	assert.True(t, strings.HasSuffix(ref.URL, ".jpg"))
	assert.True(t, store.Has(ref.PublicID))
}

func TestAccept_StoreFailureIsUpstream(t *testing.T) {
	m, store := newTestManager()
	store.FailUploadsAfter(0)

	_, err := m.Accept(context.Background(), BookingPolicy, jpeg("a.jpg"))

	require.Error(t, err)
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
	assert.ErrorIs(t, err, ErrInjected)
}

func TestAcceptAll_ValidatesBeforeUploading(t *testing.T) {
	m, store := newTestManager()
	files := []File{jpeg("a.jpg"), jpeg("b.jpg"), {Filename: "c.txt", Size: 1, Content: strings.NewReader("x")}}

	_, err := m.AcceptAll(context.Background(), BookingPolicy, files)

	require.Error(t, err)
	assert.Equal(t, 0, store.UploadCalls())
	assert.Equal(t, 0, store.Len())
}

func TestAcceptAll_PartialFailureCompensates(t *testing.T) {
	m, store := newTestManager()
	store.FailUploadsAfter(2)

	files := []File{jpeg("a.jpg"), jpeg("b.jpg"), jpeg("c.jpg"), jpeg("d.jpg")}
	refs, err := m.AcceptAll(context.Background(), BookingPolicy, files)

	require.Error(t, err)
	assert.Nil(t, refs)
	assert.Equal(t, 3, store.UploadCalls())
	assert.Equal(t, 2, store.DeleteCalls())
	assert.Equal(t, 0, store.Len())
}

func TestRelease_RoundTripIsIdempotent(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	ref, err := m.Accept(ctx, ReviewPolicy, jpeg("r.jpg"))
	require.NoError(t, err)
	require.True(t, store.Has(ref.PublicID))

	first := m.Release(ctx, ref)
	require.NoError(t, first.Err())
	assert.False(t, store.Has(ref.PublicID))

	second := m.Release(ctx, ref)
	assert.NoError(t, second.Err())
	assert.Equal(t, []domain.MediaRef{ref}, second.Released)
}

func TestRelease_AttemptsEveryReference(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	refs, err := m.AcceptAll(ctx, BookingPolicy, []File{jpeg("a.jpg"), jpeg("b.jpg"), jpeg("c.jpg")})
	require.NoError(t, err)

	store.FailDeletes(true)
	result := m.Release(ctx, refs...)

	assert.Equal(t, 3, store.DeleteCalls())
	assert.Len(t, result.Failed, 3)
	assert.Empty(t, result.Released)
	assert.Error(t, result.Err())
}

func TestRelease_RunsAfterCancellation(t *testing.T) {
	m, store := newTestManager()

	ref, err := m.Accept(context.Background(), BookingPolicy, jpeg("a.jpg"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := m.Release(ctx, ref)
	require.NoError(t, result.Err())
	assert.False(t, store.Has(ref.PublicID))
}

func TestRelease_LegacyRefWithoutPublicID(t *testing.T) {
	m, store := newTestManager()

	result := m.Release(context.Background(), domain.MediaRef{URL: "https://res.example/image/upload/v1/abc123.jpg"})

	require.NoError(t, result.Err())
	assert.Equal(t, 1, store.DeleteCalls())
}

func TestProperty_AcceptAllLeavesNothingOnFailure(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("a failed batch leaves zero objects stored", prop.ForAll(
		func(total int, failAfter int) bool {
			if failAfter >= total {
				failAfter = total - 1
			}

			m, store := newTestManager()
			store.FailUploadsAfter(failAfter)

			files := make([]File, total)
			for i := range files {
				files[i] = jpeg("img.jpg")
			}

			_, err := m.AcceptAll(context.Background(), BookingPolicy, files)
			return err != nil && store.Len() == 0 && store.DeleteCalls() == failAfter
		},
		gen.IntRange(1, domain.MaxImages),
		gen.IntRange(0, domain.MaxImages-1),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
