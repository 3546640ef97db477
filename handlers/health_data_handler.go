package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sovushik/SparkyFitness/internal/healthdata"
	"github.com/sovushik/SparkyFitness/middleware"
	"github.com/sovushik/SparkyFitness/services"
)

type HealthDataHandler struct {
	healthDataService *services.HealthDataService
}

func NewHealthDataHandler(healthDataService *services.HealthDataService) *HealthDataHandler {
	return &HealthDataHandler{healthDataService: healthDataService}
}

// Receive ingests a batch of measurements pushed by a phone sync app.
// Valid entries are stored even when others in the batch fail; a mixed
// batch answers 400 with both the stored and the failed entries listed.
func (h *HealthDataHandler) Receive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var entries []healthdata.Entry
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	results, err := h.healthDataService.ProcessHealthData(ctx, userID, entries)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"processed": results})
}
