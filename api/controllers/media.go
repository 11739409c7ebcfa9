package controllers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/ruacmx/ruac-backend/api/responses"
	"github.com/ruacmx/ruac-backend/internal/pets"
	"github.com/ruacmx/ruac-backend/pkg/config"
	pkgerrors "github.com/ruacmx/ruac-backend/pkg/errors"
	"github.com/ruacmx/ruac-backend/pkg/logger"
)

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, objectName, contentType string, body io.Reader) (string, error)
}

var allowedPhotoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UploadPetPhoto receives a multipart photo, stores it and updates the pet.
func UploadPetPhoto(svc pets.Service, store Uploader, cfg config.MediaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media upload unavailable"))
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

		maxBytes := int64(cfg.MaxUploadMB) << 20
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("photo exceeds %dMB or is malformed", cfg.MaxUploadMB)))
			return
		}

		file, header, err := r.FormFile("photo")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "photo field required"))
			return
		}
		defer file.Close()

		contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
		ext, ok := allowedPhotoTypes[contentType]
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "photo must be jpeg, png or webp"))
			return
		}

		objectName := path.Join(cfg.PhotoPathPrefix, petID.String(), uuid.NewString()+ext)

		url, err := store.Upload(r.Context(), objectName, contentType, file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store photo"))
			return
		}

		resp, err := svc.UpdatePhoto(r.Context(), uid, petID, url)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
