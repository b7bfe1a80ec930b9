package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmikhr/freshkeep/internal/expiry"
	"github.com/dmikhr/freshkeep/internal/model"
	"github.com/dmikhr/freshkeep/internal/storage"
)

// itemForm is the JSON wire shape for creating an item. The date arrives
// as RFC 3339; freshness as an optional 1-5 rating.
type itemForm struct {
	Name       string     `json:"name"`
	Category   string     `json:"category"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
	Image      string     `json:"image,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	Freshness  *int       `json:"freshness,omitempty"`
}

type itemPatch struct {
	Name       *string    `json:"name,omitempty"`
	Category   *string    `json:"category,omitempty"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
	Image      *string    `json:"image,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	Freshness  *int       `json:"freshness,omitempty"`
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListItems(w, r)
	case http.MethodPost:
		s.handleAddItem(w, r)
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := r.URL.Query().Get("category")
	var (
		items []model.FoodItem
		err   error
	)
	if raw == "" || raw == "all" {
		items, err = s.inventory.GetAll(ctx)
	} else {
		category, perr := model.ParseCategory(raw)
		if perr != nil {
			respondError(w, http.StatusBadRequest, perr.Error())
			return
		}
		items, err = s.inventory.GetByCategory(ctx, category)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch food items")
		return
	}
	if items == nil {
		items = []model.FoodItem{}
	}
	respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var form itemForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(form.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	category, err := model.ParseCategory(form.Category)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	data := model.FormData{
		Name:      strings.TrimSpace(form.Name),
		Category:  category,
		Image:     form.Image,
		Notes:     form.Notes,
		Freshness: form.Freshness,
	}
	// For fruits with a rating, expiry derives solely from the rating; any
	// caller-supplied date is ignored.
	switch {
	case category == model.CategoryFruits && form.Freshness != nil:
		data.ExpiryDate = expiry.FreshnessToExpiryDate(*form.Freshness, expiry.Clock(s.now))
	case form.ExpiryDate != nil:
		data.ExpiryDate = *form.ExpiryDate
	default:
		respondError(w, http.StatusBadRequest, "expiryDate is required")
		return
	}

	item, err := s.inventory.Add(r.Context(), data)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to add food item")
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (s *Server) handleItemRoute(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/items/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	if parts[0] == "expiring" {
		s.handleExpiring(w, r)
		return
	}
	id := parts[0]
	if len(parts) == 1 {
		s.handleItem(w, r, id)
		return
	}
	switch parts[1] {
	case "image":
		s.handleItemImageUpload(w, r, id)
	case "image-url":
		s.handleItemImageURL(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet:
		item, err := s.inventory.Get(ctx, id)
		if err != nil {
			s.respondStoreError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, item)
	case http.MethodPut:
		s.handleUpdateItem(w, r, id)
	case http.MethodDelete:
		removed, err := s.inventory.Delete(ctx, id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to delete food item")
			return
		}
		if !removed {
			respondError(w, http.StatusNotFound, "food item not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request, id string) {
	var wire itemPatch
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	patch := model.Patch{
		ExpiryDate: wire.ExpiryDate,
		Image:      wire.Image,
		Notes:      wire.Notes,
		Freshness:  wire.Freshness,
	}
	if wire.Name != nil {
		if strings.TrimSpace(*wire.Name) == "" {
			respondError(w, http.StatusBadRequest, "name must not be empty")
			return
		}
		patch.Name = wire.Name
	}
	if wire.Category != nil {
		category, err := model.ParseCategory(*wire.Category)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		patch.Category = &category
	}
	// A new rating without an explicit date re-derives the expiry.
	if wire.Freshness != nil && wire.ExpiryDate == nil {
		derived := expiry.FreshnessToExpiryDate(*wire.Freshness, expiry.Clock(s.now))
		patch.ExpiryDate = &derived
	}

	item, err := s.inventory.Update(r.Context(), id, patch)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleExpiring(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctx := r.Context()
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "invalid days parameter")
			return
		}
		days = parsed
	}
	if days == 0 {
		settings, err := s.settings.GetSettings(ctx)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to load settings")
			return
		}
		days = settings.ThresholdDays
	}
	items, err := s.inventory.GetExpiring(ctx, days)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch expiring items")
		return
	}
	if items == nil {
		items = []model.FoodItem{}
	}
	respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet:
		settings, err := s.settings.GetSettings(ctx)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to load settings")
			return
		}
		respondJSON(w, http.StatusOK, settings)
	case http.MethodPut:
		var settings model.NotificationSettings
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.settings.PutSettings(ctx, settings); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
		if s.onSettingsChange != nil {
			// Settings load triggers an immediate check.
			s.onSettingsChange(ctx)
		}
		respondJSON(w, http.StatusOK, settings)
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "food item not found")
		return
	}
	respondError(w, http.StatusInternalServerError, "storage failure")
}
