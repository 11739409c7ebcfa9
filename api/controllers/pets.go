package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/ruacmx/ruac-backend/api/responses"
	"github.com/ruacmx/ruac-backend/api/validators"
	"github.com/ruacmx/ruac-backend/internal/ownership"
	"github.com/ruacmx/ruac-backend/internal/pets"
	"github.com/ruacmx/ruac-backend/pkg/enums"
	pkgerrors "github.com/ruacmx/ruac-backend/pkg/errors"
	"github.com/ruacmx/ruac-backend/pkg/logger"
)

type createPetRequest struct {
	Name         string   `json:"name" validate:"required,min=1,max=80"`
	Species      string   `json:"species" validate:"required,min=1,max=60"`
	Breed        *string  `json:"breed" validate:"omitempty,max=80"`
	Sex          *string  `json:"sex" validate:"omitempty,oneof=macho hembra"`
	Color        *string  `json:"color" validate:"omitempty,max=60"`
	BirthDate    *string  `json:"birth_date" validate:"omitempty"`
	Traits       []string `json:"traits" validate:"omitempty,max=20,dive,max=40"`
	MedicalNotes *string  `json:"medical_notes" validate:"omitempty,max=2000"`
	Allergies    *string  `json:"allergies" validate:"omitempty,max=2000"`
	Address      *string  `json:"address" validate:"omitempty,max=200"`
	City         *string  `json:"city" validate:"omitempty,max=120"`
	PhotoURL     *string  `json:"photo_url" validate:"omitempty,url,max=500"`
}

func parseBirthDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "birth_date must be YYYY-MM-DD")
	}
	return &parsed, nil
}

// CreatePet registers a pet, issues its documents and joins its communities.
func CreatePet(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pet service unavailable"))
			return
		}

		uid, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createPetRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		birthDate, err := parseBirthDate(payload.BirthDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Create(r.Context(), uid, pets.CreatePetInput{
			Name:         payload.Name,
			Species:      payload.Species,
			Breed:        payload.Breed,
			Sex:          payload.Sex,
			Color:        payload.Color,
			BirthDate:    birthDate,
			Traits:       payload.Traits,
			MedicalNotes: payload.MedicalNotes,
			Allergies:    payload.Allergies,
			Address:      payload.Address,
			City:         payload.City,
			PhotoURL:     payload.PhotoURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}

// ListMyPets returns pets the user created or co-owns.
func ListMyPets(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pet service unavailable"))
			return
		}

		uid, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.ListMine(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// GetPet returns the owner view for owners and the public view otherwise.
func GetPet(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pet service unavailable"))
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

		owned, err := svc.GetOwnerView(r.Context(), uid, petID)
		if err == nil {
			responses.WriteSuccess(w, owned)
			return
		}
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		public, err := svc.GetPublicView(r.Context(), petID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, public)
	}
}

type updatePetRequest struct {
	Name         *string   `json:"name" validate:"omitempty,min=1,max=80"`
	Breed        *string   `json:"breed" validate:"omitempty,max=80"`
	Sex          *string   `json:"sex" validate:"omitempty,oneof=macho hembra"`
	Color        *string   `json:"color" validate:"omitempty,max=60"`
	BirthDate    *string   `json:"birth_date" validate:"omitempty"`
	Traits       *[]string `json:"traits" validate:"omitempty,max=20,dive,max=40"`
	MedicalNotes *string   `json:"medical_notes" validate:"omitempty,max=2000"`
	Allergies    *string   `json:"allergies" validate:"omitempty,max=2000"`
	Address      *string   `json:"address" validate:"omitempty,max=200"`
	City         *string   `json:"city" validate:"omitempty,max=120"`
}

// UpdatePet patches a pet's profile. Breed changes re-resolve community
// memberships.
func UpdatePet(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pet service unavailable"))
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

		var payload updatePetRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		birthDate, err := parseBirthDate(payload.BirthDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Update(r.Context(), uid, petID, pets.UpdatePetInput{
			Name:         payload.Name,
			Breed:        payload.Breed,
			Sex:          payload.Sex,
			Color:        payload.Color,
			BirthDate:    birthDate,
			Traits:       payload.Traits,
			MedicalNotes: payload.MedicalNotes,
			Allergies:    payload.Allergies,
			Address:      payload.Address,
			City:         payload.City,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// DeletePet removes a pet with its documents, ownerships and auto-joined
// memberships.
func DeletePet(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pet service unavailable"))
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

		if err := svc.Delete(r.Context(), uid, petID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ListPetOwners resolves the pet's owners, including the legacy creator.
func ListPetOwners(svc ownership.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ownership service unavailable"))
			return
		}

		petID, err := pathUUID(r, "petId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Resolve(r.Context(), petID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

type addOwnerRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role" validate:"required,oneof=owner caretaker"`
}

// AddPetOwner grants another user an ownership role on the pet.
func AddPetOwner(svc ownership.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ownership service unavailable"))
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

		var payload addOwnerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := parseBodyUUID(payload.UserID, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseOwnershipRole(payload.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		resp, err := svc.AddOwner(r.Context(), uid, petID, target, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}

// RemovePetOwner revokes a user's ownership row. The last owner cannot be
// removed.
func RemovePetOwner(svc ownership.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ownership service unavailable"))
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

		target, err := pathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveOwner(r.Context(), uid, petID, target); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}
