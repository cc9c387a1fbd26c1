package submission

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/apperr"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/catalog"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/platform/logger"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/progress"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/storage"
)

const testUserID = "2b7e1516-28ae-4d2a-a6f1-0c4e5b9a1e11"

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func dataURI(b []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(b)
}

// failingPuts fails every Put whose key starts with one of the prefixes.
type failingPuts struct {
	*storage.MemoryStore
	prefixes []string
}

func (f *failingPuts) Put(ctx context.Context, key string, data []byte, ct string) error {
	for _, p := range f.prefixes {
		if strings.HasPrefix(key, p) {
			return errors.New("simulated write failure")
		}
	}
	return f.MemoryStore.Put(ctx, key, data, ct)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events map[string]int
}

func (r *recordingNotifier) ProgressChanged(_ context.Context, key string, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = map[string]int{}
	}
	r.events[key] = count
}

type fixture struct {
	blobs    *storage.MemoryStore
	progress *progress.DocumentStore
	svc      SubmissionService
}

func newFixture(t *testing.T, blobs storage.BlobStore, opts ...Option) fixture {
	t.Helper()
	c, err := catalog.Load("")
	require.NoError(t, err)
	docs := storage.NewMemoryStore()
	p := progress.NewDocumentStore(logger.NewNop(), docs, progress.RemoteDocumentKey)
	opts = append([]Option{WithSuffixGenerator(func() string { return "0a1b2c3d" })}, opts...)
	var mem *storage.MemoryStore
	if m, ok := blobs.(*storage.MemoryStore); ok {
		mem = m
	}
	return fixture{blobs: mem, progress: p, svc: NewSubmissionService(logger.NewNop(), c, blobs, p, opts...)}
}

func TestSubmitWritesBothCopiesAndIncrements(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	f := newFixture(t, storage.NewMemoryStore(), WithNotifier(notifier))

	res, err := f.svc.Submit(ctx, Submission{
		Character: "అ", Category: "vowels", Name: "Ravi K.", Image: dataURI(pngBytes),
	}, testUserID)
	require.NoError(t, err)

	assert.Equal(t, "vowels/Ravi K._0a1b2c3d.png", res.CanonicalKey)
	assert.Equal(t, testUserID+"/vowels/Ravi K._0a1b2c3d.png", res.UserKey)
	assert.Equal(t, "vowels_అ", res.ProgressKey)
	assert.Equal(t, 1, res.Count)

	assert.Equal(t, []string{testUserID + "/vowels/Ravi K._0a1b2c3d.png", "vowels/Ravi K._0a1b2c3d.png"}, f.blobs.Keys())
	for _, k := range f.blobs.Keys() {
		data, err := f.blobs.Get(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, pngBytes, data)
		assert.Equal(t, storage.ContentTypePNG, f.blobs.ContentType(k))
	}
	assert.Equal(t, map[string]int{"vowels_అ": 1}, notifier.events)
}

func TestSubmitSharesSuffixBetweenCopies(t *testing.T) {
	c := catalog.New(map[catalog.Category][]string{catalog.Consonants: {"క"}})
	mem := storage.NewMemoryStore()
	p := progress.NewDocumentStore(logger.NewNop(), storage.NewMemoryStore(), progress.RemoteDocumentKey)
	svc := NewSubmissionService(logger.NewNop(), c, mem, p)

	res, err := svc.Submit(context.Background(), Submission{Character: "క", Category: "consonants", Name: "n", Image: dataURI(pngBytes)}, testUserID)
	require.NoError(t, err)
	assert.Regexp(t, `^consonants/n_[0-9a-f]{8}\.png$`, res.CanonicalKey)
	assert.True(t, strings.HasSuffix(res.UserKey, strings.TrimPrefix(res.CanonicalKey, "consonants/")))
}

func TestSerialSubmissionsCountExactly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, storage.NewMemoryStore(), WithSuffixGenerator(randomSuffix))

	for i := 0; i < 5; i++ {
		_, err := f.svc.Submit(ctx, Submission{Character: "ఆ", Category: "vowels", Name: "x", Image: dataURI(pngBytes)}, testUserID)
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := f.svc.Submit(ctx, Submission{Character: "క", Category: "consonants", Name: "x", Image: dataURI(pngBytes)}, testUserID)
		require.NoError(t, err)
	}

	counts, err := f.progress.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"vowels_ఆ": 5, "consonants_క": 2}, counts)
	assert.Len(t, f.blobs.Keys(), 14)
}

func TestSubmitRejectsIncompletePayloads(t *testing.T) {
	valid := Submission{Character: "అ", Category: "vowels", Name: "n", Image: dataURI(pngBytes)}
	cases := map[string]func(s *Submission){
		"character": func(s *Submission) { s.Character = "" },
		"category":  func(s *Submission) { s.Category = "" },
		"name":      func(s *Submission) { s.Name = "" },
		"image":     func(s *Submission) { s.Image = "" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			f := newFixture(t, storage.NewMemoryStore())
			sub := valid
			mutate(&sub)

			_, err := f.svc.Submit(context.Background(), sub, testUserID)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Equal(t, MsgMissingFields, apperr.PublicMessage(err))
			assert.Empty(t, f.blobs.Keys())

			counts, err := f.progress.Load(context.Background())
			require.NoError(t, err)
			assert.Empty(t, counts)
		})
	}
}

func TestSubmitRejectsBadImagesWithoutWrites(t *testing.T) {
	for name, image := range map[string]string{
		"no comma":   "data:image/png;base64" + base64.StdEncoding.EncodeToString(pngBytes),
		"bad base64": "data:image/png;base64,!!!not-base64!!!",
		"empty":      "data:image/png;base64,",
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, storage.NewMemoryStore())
			_, err := f.svc.Submit(context.Background(), Submission{Character: "అ", Category: "vowels", Name: "n", Image: image}, testUserID)
			require.Error(t, err)
			assert.Equal(t, apperr.KindDecode, apperr.KindOf(err))
			assert.True(t, apperr.IsValidation(err))
			assert.Empty(t, f.blobs.Keys())
		})
	}
}

func TestSubmitRejectsUnknownCategoryAndSession(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore())
	_, err := f.svc.Submit(context.Background(), Submission{Character: "అ", Category: "../etc", Name: "n", Image: dataURI(pngBytes)}, testUserID)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.Submit(context.Background(), Submission{Character: "అ", Category: "vowels", Name: "n", Image: dataURI(pngBytes)}, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.Submit(context.Background(), Submission{Character: "అ", Category: "vowels", Name: "n", Image: dataURI(pngBytes)}, "../other")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Empty(t, f.blobs.Keys())
}

func TestPerUserWriteFailureKeepsCanonicalCopy(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	f := newFixture(t, &failingPuts{MemoryStore: mem, prefixes: []string{testUserID + "/"}})

	_, err := f.svc.Submit(ctx, Submission{Character: "అ", Category: "vowels", Name: "n", Image: dataURI(pngBytes)}, testUserID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
	assert.Contains(t, apperr.PublicMessage(err), "simulated write failure")

	assert.Equal(t, []string{"vowels/n_0a1b2c3d.png"}, mem.Keys())
	data, err := mem.Get(ctx, "vowels/n_0a1b2c3d.png")
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	counts, err := f.progress.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestCanonicalWriteFailureSkipsUserCopy(t *testing.T) {
	mem := storage.NewMemoryStore()
	f := newFixture(t, &failingPuts{MemoryStore: mem, prefixes: []string{"vowels/"}})

	_, err := f.svc.Submit(context.Background(), Submission{Character: "అ", Category: "vowels", Name: "n", Image: dataURI(pngBytes)}, testUserID)
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
	assert.Empty(t, mem.Keys())
}

func TestUnavailableStorage(t *testing.T) {
	f := newFixture(t, &storage.Unavailable{Backend: "supabase", Reason: "no credentials"})
	_, err := f.svc.Submit(context.Background(), Submission{Character: "అ", Category: "vowels", Name: "n", Image: dataURI(pngBytes)}, testUserID)
	assert.Equal(t, apperr.KindStorageUnavailable, apperr.KindOf(err))
	assert.ErrorIs(t, err, storage.ErrStorageUnavailable)
}

func TestProgressFailureIsStorageError(t *testing.T) {
	c, err := catalog.Load("")
	require.NoError(t, err)
	mem := storage.NewMemoryStore()
	svc := NewSubmissionService(logger.NewNop(), c, mem, &progress.Unavailable{Backend: "redis", Reason: "down"})

	_, err = svc.Submit(context.Background(), Submission{Character: "అ", Category: "vowels", Name: "n", Image: dataURI(pngBytes)}, testUserID)
	assert.Equal(t, apperr.KindStorageUnavailable, apperr.KindOf(err))
	assert.Len(t, mem.Keys(), 2)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{in: `a/b\c:d`, want: "a_b_c_d"},
		{in: "Ravi K.", want: "Ravi K."},
		{in: "name-1_2.png", want: "name-1_2.png"},
		{in: "రవి", want: "___"},
		{in: "x<>|?*\"y", want: "x______y"},
		{in: "tab\there", want: "tab_here"},
	}
	for _, tt := range tests {
		got := SanitizeFilename(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, len([]rune(tt.in)), len([]rune(got)), tt.in)
	}
}

func TestDecodeDataURI(t *testing.T) {
	data, err := DecodeDataURI(dataURI(pngBytes))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	// only the first comma separates the prefix
	_, err = DecodeDataURI("data:image/png;base64,AAAA,BBBB")
	assert.Equal(t, apperr.KindDecode, apperr.KindOf(err))
}
