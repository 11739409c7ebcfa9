package documents

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ruacmx/ruac-backend/pkg/config"
	"github.com/ruacmx/ruac-backend/pkg/db"
	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
	pkgerrors "github.com/ruacmx/ruac-backend/pkg/errors"
)

const (
	registrationPrefix = "RAM"
	serialDigits       = 6
	maxIssueAttempts   = 5
)

type documentRepository interface {
	CreateTx(tx *gorm.DB, doc *models.Document) error
	ListByPet(ctx context.Context, petID uuid.UUID) ([]models.Document, error)
	FindByNumber(ctx context.Context, registrationNumber string) ([]models.Document, error)
	DeleteByPetTx(tx *gorm.DB, petID uuid.UUID) error
}

type petFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Pet, error)
}

// Service issues and verifies registration documents. Issuance always writes
// the acta/credencial pair under one registration number; verification is
// anonymous and only exposes public pet fields.
type Service interface {
	IssueTx(tx *gorm.DB, petID uuid.UUID) ([]models.Document, error)
	ListByPet(ctx context.Context, petID uuid.UUID) ([]DocumentDTO, error)
	Verify(ctx context.Context, registrationNumber string) (*VerificationDTO, error)
	DeleteByPetTx(tx *gorm.DB, petID uuid.UUID) error
}

type service struct {
	repo        documentRepository
	pets        petFinder
	registryCfg config.RegistryConfig
	mediaCfg    config.MediaConfig
	now         func() time.Time
}

// NewService builds a document service with the provided repositories.
func NewService(repo documentRepository, pets petFinder, registryCfg config.RegistryConfig, mediaCfg config.MediaConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("document repository required")
	}
	if pets == nil {
		return nil, fmt.Errorf("pet repository required")
	}
	return &service{
		repo:        repo,
		pets:        pets,
		registryCfg: registryCfg,
		mediaCfg:    mediaCfg,
		now:         time.Now,
	}, nil
}

// generateRegistrationNumber builds RAM-<year digit>-<6 digit serial>. The
// serial is random, so collisions are possible and handled by retrying on the
// unique constraint.
func (s *service) generateRegistrationNumber() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < serialDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	serial, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	yearDigit := s.now().UTC().Year() % 10
	return fmt.Sprintf("%s-%d-%0*d", registrationPrefix, yearDigit, serialDigits, serial.Int64()), nil
}

// IssueTx creates the acta and credencial rows for a pet inside the caller's
// transaction. A collision on the registration number rolls neither document
// in; the pair is retried under a fresh number.
func (s *service) IssueTx(tx *gorm.DB, petID uuid.UUID) ([]models.Document, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}

	var lastErr error
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		number, err := s.generateRegistrationNumber()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate registration number")
		}

		issuedAt := s.now().UTC()
		pair := []models.Document{
			{PetID: petID, DocumentType: enums.DocumentTypeActa, RegistrationNumber: number, IssuedAt: issuedAt},
			{PetID: petID, DocumentType: enums.DocumentTypeCredencial, RegistrationNumber: number, IssuedAt: issuedAt},
		}

		savepoint := fmt.Sprintf("issue_attempt_%d", attempt)
		if err := tx.SavePoint(savepoint).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create issue savepoint")
		}

		collided := false
		for i := range pair {
			if err := s.repo.CreateTx(tx, &pair[i]); err != nil {
				if db.IsUniqueViolation(err, "") {
					if rollbackErr := tx.RollbackTo(savepoint).Error; rollbackErr != nil {
						return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, rollbackErr, "rollback issue savepoint")
					}
					collided = true
					lastErr = err
					break
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert document")
			}
		}
		if collided {
			continue
		}
		return pair, nil
	}

	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, lastErr, "registration number space exhausted")
}

func (s *service) ListByPet(ctx context.Context, petID uuid.UUID) ([]DocumentDTO, error) {
	rows, err := s.repo.ListByPet(ctx, petID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list documents")
	}
	dtos := make([]DocumentDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, s.fromModel(row))
	}
	return dtos, nil
}

// Verify resolves a registration number into the public verification payload.
func (s *service) Verify(ctx context.Context, registrationNumber string) (*VerificationDTO, error) {
	number := strings.TrimSpace(registrationNumber)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "registration number is required")
	}

	rows, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup documents")
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "registration number not found")
	}

	pet, err := s.pets.FindByID(ctx, rows[0].PetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "registration number not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pet")
	}

	photoURL := s.mediaCfg.PlaceholderURL
	if pet.PhotoURL != nil && *pet.PhotoURL != "" {
		photoURL = *pet.PhotoURL
	}

	return &VerificationDTO{
		RegistrationNumber: number,
		IssuedAt:           rows[0].IssuedAt,
		Valid:              true,
		Pet: VerifiedPetDTO{
			Name:     pet.Name,
			Species:  pet.Species,
			Breed:    pet.Breed,
			Status:   pet.Status,
			PhotoURL: photoURL,
		},
	}, nil
}

func (s *service) DeleteByPetTx(tx *gorm.DB, petID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if err := s.repo.DeleteByPetTx(tx, petID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete documents")
	}
	return nil
}
