package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmikhr/freshkeep/internal/classifier"
	"github.com/dmikhr/freshkeep/internal/config"
	"github.com/dmikhr/freshkeep/internal/expiry"
	"github.com/dmikhr/freshkeep/internal/imagestore"
	"github.com/dmikhr/freshkeep/internal/model"
	"github.com/dmikhr/freshkeep/internal/notify"
	"github.com/dmikhr/freshkeep/internal/signing"
	"github.com/dmikhr/freshkeep/internal/storage"
)

var (
	testNow    = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	jpegHeader = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
)

type testEnv struct {
	server *Server
	store  *storage.MemoryStore
	http   *httptest.Server
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	cfg := &config.Config{
		Address:       ":0",
		MaxImageBytes: 10 << 20,
		MinConfidence: classifier.DefaultMinConfidence,
	}
	store := storage.NewMemoryStore(func() time.Time { return testNow })
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	srv := New(cfg, store, store, opts)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{server: srv, store: store, http: ts}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.http.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.http.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestItemCRUDOverHTTP(t *testing.T) {
	env := newTestEnv(t, Options{})

	resp := env.do(t, http.MethodPost, "/items", map[string]any{
		"name":       "Milk",
		"category":   "dairy",
		"expiryDate": testNow.Add(5 * 24 * time.Hour),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.FoodItem](t, resp)
	require.NotEmpty(t, created.ID)
	assert.True(t, created.CreatedAt.Equal(testNow))

	resp = env.do(t, http.MethodGet, "/items/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := decode[model.FoodItem](t, resp)
	assert.Equal(t, created, fetched)

	resp = env.do(t, http.MethodPut, "/items/"+created.ID, map[string]any{"notes": "half gallon"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[model.FoodItem](t, resp)
	assert.Equal(t, "half gallon", updated.Notes)
	assert.Equal(t, "Milk", updated.Name)

	resp = env.do(t, http.MethodDelete, "/items/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/items/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAddItemValidation(t *testing.T) {
	env := newTestEnv(t, Options{})

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"category": "dairy", "expiryDate": testNow}},
		{"unknown category", map[string]any{"name": "Soap", "category": "household", "expiryDate": testNow}},
		{"missing expiry", map[string]any{"name": "Milk", "category": "dairy"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/items", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			resp.Body.Close()
		})
	}
}

func TestFruitExpiryDerivedFromRating(t *testing.T) {
	env := newTestEnv(t, Options{})

	// A caller-supplied date must be ignored for fruits with a rating.
	resp := env.do(t, http.MethodPost, "/items", map[string]any{
		"name":       "Apples",
		"category":   "fruits",
		"freshness":  4,
		"expiryDate": testNow.Add(90 * 24 * time.Hour),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.FoodItem](t, resp)

	want := testNow.Add(4 * expiry.FreshnessStep)
	assert.True(t, created.ExpiryDate.Equal(want), "got %v want %v", created.ExpiryDate, want)
	assert.True(t, created.ExpiryDate.After(testNow))
}

func TestListByCategory(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	_, err := env.store.Add(ctx, model.FormData{Name: "Bananas", Category: model.CategoryFruits, ExpiryDate: testNow.Add(time.Hour)})
	require.NoError(t, err)
	_, err = env.store.Add(ctx, model.FormData{Name: "Milk", Category: model.CategoryDairy, ExpiryDate: testNow.Add(time.Hour)})
	require.NoError(t, err)

	resp := env.do(t, http.MethodGet, "/items?category=fruits", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := decode[[]model.FoodItem](t, resp)
	require.Len(t, items, 1)
	assert.Equal(t, "Bananas", items[0].Name)

	resp = env.do(t, http.MethodGet, "/items?category=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestExpiringWindow(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	soon, err := env.store.Add(ctx, model.FormData{Name: "Bananas", Category: model.CategoryFruits, ExpiryDate: testNow.Add(24 * time.Hour)})
	require.NoError(t, err)
	_, err = env.store.Add(ctx, model.FormData{Name: "Milk", Category: model.CategoryDairy, ExpiryDate: testNow.Add(5 * 24 * time.Hour)})
	require.NoError(t, err)
	expired, err := env.store.Add(ctx, model.FormData{Name: "Spinach", Category: model.CategoryVegetables, ExpiryDate: testNow.Add(-24 * time.Hour)})
	require.NoError(t, err)

	resp := env.do(t, http.MethodGet, "/items/expiring?days=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := decode[[]model.FoodItem](t, resp)
	require.Len(t, items, 2)
	ids := []string{items[0].ID, items[1].ID}
	assert.Contains(t, ids, soon.ID)
	assert.Contains(t, ids, expired.ID)
}

func TestSettingsRoundTripTriggersCheck(t *testing.T) {
	checked := 0
	env := newTestEnv(t, Options{OnSettingsChange: func(context.Context) { checked++ }})

	resp := env.do(t, http.MethodGet, "/settings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	settings := decode[model.NotificationSettings](t, resp)
	assert.Equal(t, model.DefaultNotificationSettings(), settings)

	resp = env.do(t, http.MethodPut, "/settings", model.NotificationSettings{Enabled: true, ThresholdDays: 7})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, 1, checked)

	resp = env.do(t, http.MethodGet, "/settings", nil)
	settings = decode[model.NotificationSettings](t, resp)
	assert.Equal(t, 7, settings.ThresholdDays)
}

func TestToastsFeed(t *testing.T) {
	d := notify.NewDispatcher(nil, notify.NewToastNotifier(10), nil)
	env := newTestEnv(t, Options{Dispatcher: d})
	d.Show(context.Background(), "Food Items Expiring Soon", "You have 1 food item(s) expiring soon")

	resp := env.do(t, http.MethodGet, "/toasts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	toasts := decode[[]notify.Toast](t, resp)
	require.Len(t, toasts, 1)
	assert.Equal(t, "Food Items Expiring Soon", toasts[0].Title)
}

func classifierBackend(t *testing.T, predictions []model.Prediction) *classifier.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"predictions": predictions})
	}))
	t.Cleanup(srv.Close)
	return classifier.NewClient(srv.URL, srv.URL, srv.Client())
}

func multipartImage(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "photo.jpg")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestClassifySuggestion(t *testing.T) {
	env := newTestEnv(t, Options{Classifier: classifierBackend(t, []model.Prediction{
		{Label: "bell_pepper", Confidence: 0.9},
		{Label: "tomato", Confidence: 0.1},
	})})

	body, contentType := multipartImage(t, jpegHeader)
	resp, err := env.http.Client().Post(env.http.URL+"/classify", contentType, body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	suggestion := decode[classifier.Suggestion](t, resp)
	assert.True(t, suggestion.Accepted)
	assert.Equal(t, "Bell Pepper", suggestion.Name)
	assert.Equal(t, model.CategoryVegetables, suggestion.Category)
}

func TestClassifyLowConfidenceInformational(t *testing.T) {
	env := newTestEnv(t, Options{Classifier: classifierBackend(t, []model.Prediction{
		{Label: "apple", Confidence: 0.4},
	})})

	body, contentType := multipartImage(t, jpegHeader)
	resp, err := env.http.Client().Post(env.http.URL+"/classify", contentType, body)
	require.NoError(t, err)
	// Low confidence is a 200 with accepted=false, never an error.
	require.Equal(t, http.StatusOK, resp.StatusCode)
	suggestion := decode[classifier.Suggestion](t, resp)
	assert.False(t, suggestion.Accepted)
}

func TestClassifyRejectsNonImage(t *testing.T) {
	env := newTestEnv(t, Options{Classifier: classifierBackend(t, nil)})

	body, contentType := multipartImage(t, []byte("plain text pretending to be a photo"))
	resp, err := env.http.Client().Post(env.http.URL+"/classify", contentType, body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestImageUploadAndSignedDownload(t *testing.T) {
	local, err := imagestore.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	backend := &LocalImages{
		Store:  local,
		Signer: signing.NewSigner([]byte("topsecret")),
		TTL:    5 * time.Minute,
		Now:    func() time.Time { return testNow },
	}
	env := newTestEnv(t, Options{Images: backend})

	created, err := env.store.Add(context.Background(), model.FormData{
		Name: "Apples", Category: model.CategoryFruits, ExpiryDate: testNow.Add(48 * time.Hour),
	})
	require.NoError(t, err)

	body, contentType := multipartImage(t, jpegHeader)
	resp, err := env.http.Client().Post(fmt.Sprintf("%s/items/%s/image", env.http.URL, created.ID), contentType, body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[model.FoodItem](t, resp)
	assert.Equal(t, "items/"+created.ID+".jpg", updated.Image)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/items/%s/image-url", created.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	link := decode[map[string]string](t, resp)
	require.Contains(t, link["url"], "/images/download?")

	resp, err = env.http.Client().Get(env.http.URL + link["url"])
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
}

func TestImageDownloadRejectsTamperedSignature(t *testing.T) {
	local, err := imagestore.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	backend := &LocalImages{
		Store:  local,
		Signer: signing.NewSigner([]byte("topsecret")),
		TTL:    5 * time.Minute,
		Now:    func() time.Time { return testNow },
	}
	env := newTestEnv(t, Options{Images: backend})

	resp := env.do(t, http.MethodGet, "/images/download?image=x.jpg&expires=9999999999&signature=bogus", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
