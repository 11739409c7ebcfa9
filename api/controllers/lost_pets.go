package controllers

import (
	"net/http"
	"strings"

	"github.com/ruacmx/ruac-backend/api/responses"
	"github.com/ruacmx/ruac-backend/api/validators"
	"github.com/ruacmx/ruac-backend/internal/lostpets"
	"github.com/ruacmx/ruac-backend/internal/pets"
	pkgerrors "github.com/ruacmx/ruac-backend/pkg/errors"
	"github.com/ruacmx/ruac-backend/pkg/logger"
)

type reportLostRequest struct {
	Lat      *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng      *float64 `json:"lng" validate:"omitempty,longitude"`
	Message  *string  `json:"message" validate:"omitempty,max=1000"`
	RadiusKm *float64 `json:"radius_km" validate:"omitempty,gt=0"`
}

// ReportPetLost flips a pet to lost and fans out alerts to nearby users.
func ReportPetLost(svc lostpets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lost pet service unavailable"))
			return
		}

		uid, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		petID, err := pathUUID(r, "petId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reportLostRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.ReportLost(r.Context(), uid, petID, lostpets.ReportLostInput{
			Lat:      payload.Lat,
			Lng:      payload.Lng,
			Message:  payload.Message,
			RadiusKm: payload.RadiusKm,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// MarkPetFound returns a lost pet to active status.
func MarkPetFound(svc lostpets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lost pet service unavailable"))
			return
		}

		uid, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		petID, err := pathUUID(r, "petId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.MarkFound(r.Context(), uid, petID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// ListLostPets serves the public lost pet feed with optional filters.
func ListLostPets(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pet service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := pets.LostFilters{
			City:    strings.TrimSpace(r.URL.Query().Get("city")),
			Species: strings.TrimSpace(r.URL.Query().Get("species")),
			Query:   strings.TrimSpace(r.URL.Query().Get("q")),
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		resp, err := svc.ListLost(r.Context(), filters, cursor, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
