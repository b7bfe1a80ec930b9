package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmikhr/freshkeep/internal/model"
)

func TestPredictParsesOrderedPredictions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "capture.jpg", header.Filename)

		json.NewEncoder(w).Encode(map[string]any{
			"predictions": []model.Prediction{
				{Label: "bell_pepper", Confidence: 0.91},
				{Label: "tomato", Confidence: 0.06},
				{Label: "apple", Confidence: 0.03},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", srv.Client())
	preds, err := c.Predict(context.Background(), "capture.jpg", bytes.NewReader([]byte{0xff, 0xd8, 0xff}))
	require.NoError(t, err)
	require.Len(t, preds, 3)
	assert.Equal(t, "bell_pepper", preds[0].Label)
	assert.InDelta(t, 0.91, preds[0].Confidence, 1e-9)
}

func TestPredictSurfacesErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid image file"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", srv.Client())
	_, err := c.Predict(context.Background(), "x.jpg", bytes.NewReader([]byte("nope")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid image file")
}

func TestPredictBase64(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body["image"], "data:image/jpeg;base64,")
		json.NewEncoder(w).Encode(map[string]any{"class": "banana", "confidence": 0.83})
	}))
	defer srv.Close()

	c := NewClient("", srv.URL, srv.Client())
	pred, err := c.PredictBase64(context.Background(), "data:image/jpeg;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, model.Prediction{Label: "banana", Confidence: 0.83}, pred)
}

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"bell_pepper", "Bell Pepper"},
		{"apple", "Apple"},
		{"RED_onion", "Red Onion"},
		{"sweet_potato", "Sweet Potato"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeLabel(tt.in), tt.in)
	}
}

func TestCategoryForLabel(t *testing.T) {
	assert.Equal(t, model.CategoryFruits, CategoryForLabel("green_apple"))
	assert.Equal(t, model.CategoryVegetables, CategoryForLabel("bell_pepper"))
	assert.Equal(t, model.Category(""), CategoryForLabel("cheddar_cheese"))
}

func TestSuggestConfidenceCutoff(t *testing.T) {
	// Below the cutoff the suggestion is informational, not accepted.
	s, ok := Suggest([]model.Prediction{{Label: "apple", Confidence: 0.4}}, DefaultMinConfidence)
	require.True(t, ok)
	assert.False(t, s.Accepted)
	assert.Equal(t, "Apple", s.Name)

	s, ok = Suggest([]model.Prediction{{Label: "apple", Confidence: 0.95}, {Label: "pear", Confidence: 0.05}}, DefaultMinConfidence)
	require.True(t, ok)
	assert.True(t, s.Accepted)
	// Only the top prediction counts.
	assert.Equal(t, "Apple", s.Name)
	assert.Equal(t, model.CategoryFruits, s.Category)

	_, ok = Suggest(nil, DefaultMinConfidence)
	assert.False(t, ok)
}
