package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dmikhr/freshkeep/internal/classifier"
	"github.com/dmikhr/freshkeep/internal/model"
)

// handleClassify accepts a multipart image and returns a form suggestion
// built from the classifier's top prediction. Classifier failures are 502s;
// low confidence is a 200 with accepted=false — informational, not an
// error, so the form can still be filled by hand.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.classify == nil {
		respondError(w, http.StatusNotImplemented, "classifier not configured")
		return
	}
	data, _, err := s.readImagePart(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	predictions, err := s.classify.Predict(r.Context(), "upload.jpg", bytes.NewReader(data))
	if err != nil {
		s.logger.Warn("classification failed", "error", err)
		respondError(w, http.StatusBadGateway, "classification unavailable")
		return
	}
	suggestion, ok := classifier.Suggest(predictions, s.cfg.MinConfidence)
	if !ok {
		respondError(w, http.StatusBadGateway, "classifier returned no predictions")
		return
	}
	respondJSON(w, http.StatusOK, suggestion)
}

// handleClassifyBase64 is the data-URI variant backed by the alternate
// classifier endpoint.
func (s *Server) handleClassifyBase64(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.classify == nil {
		respondError(w, http.StatusNotImplemented, "classifier not configured")
		return
	}
	var body struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !strings.HasPrefix(body.Image, "data:image/") {
		respondError(w, http.StatusBadRequest, "image must be a data URI")
		return
	}
	pred, err := s.classify.PredictBase64(r.Context(), body.Image)
	if err != nil {
		s.logger.Warn("classification failed", "error", err)
		respondError(w, http.StatusBadGateway, "classification unavailable")
		return
	}
	suggestion, _ := classifier.Suggest([]model.Prediction{pred}, s.cfg.MinConfidence)
	respondJSON(w, http.StatusOK, suggestion)
}
