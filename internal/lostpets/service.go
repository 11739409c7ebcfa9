package lostpets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ruacmx/ruac-backend/internal/users"
	"github.com/ruacmx/ruac-backend/pkg/config"
	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
	pkgerrors "github.com/ruacmx/ruac-backend/pkg/errors"
	"github.com/ruacmx/ruac-backend/pkg/logger"
	"github.com/ruacmx/ruac-backend/pkg/metrics"
	"github.com/ruacmx/ruac-backend/pkg/outbox"
	"github.com/ruacmx/ruac-backend/pkg/types"
)

type petStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Pet, error)
	UpdateStatusTx(tx *gorm.DB, pet *models.Pet, expected enums.PetStatus) (bool, error)
}

type ownershipChecker interface {
	IsOwner(ctx context.Context, pet *models.Pet, userID uuid.UUID) (bool, error)
}

type nearbyFinder interface {
	FindNearby(ctx context.Context, origin types.GeographyPoint, radiusKm float64, exclude uuid.UUID, limit int) ([]users.NearbyUserDTO, error)
}

type notificationWriter interface {
	CreateBatchTx(tx *gorm.DB, rows []models.Notification) error
}

type outboxWriter interface {
	Insert(tx *gorm.DB, event models.OutboxEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service runs the lost pet state machine. Active pets can be reported lost
// and lost pets marked found; any other transition is a state conflict. Both
// transitions fan out notifications to every user inside the alert radius and
// append an outbox event in the same transaction as the status change.
type Service interface {
	ReportLost(ctx context.Context, actorID, petID uuid.UUID, input ReportLostInput) (*AlertResultDTO, error)
	MarkFound(ctx context.Context, actorID, petID uuid.UUID) (*AlertResultDTO, error)
}

type service struct {
	pets          petStore
	owners        ownershipChecker
	nearby        nearbyFinder
	notifications notificationWriter
	outboxRepo    outboxWriter
	tx            txRunner
	alertsCfg     config.AlertsConfig
	metrics       *metrics.AlertMetrics
	logg          *logger.Logger
	now           func() time.Time
}

// NewService builds the lost pet service with the provided collaborators.
func NewService(
	pets petStore,
	owners ownershipChecker,
	nearby nearbyFinder,
	notifications notificationWriter,
	outboxRepo outboxWriter,
	tx txRunner,
	alertsCfg config.AlertsConfig,
	alertMetrics *metrics.AlertMetrics,
	logg *logger.Logger,
) (Service, error) {
	if pets == nil {
		return nil, fmt.Errorf("pet repository required")
	}
	if owners == nil {
		return nil, fmt.Errorf("ownership service required")
	}
	if nearby == nil {
		return nil, fmt.Errorf("user service required")
	}
	if notifications == nil {
		return nil, fmt.Errorf("notification service required")
	}
	if outboxRepo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		pets:          pets,
		owners:        owners,
		nearby:        nearby,
		notifications: notifications,
		outboxRepo:    outboxRepo,
		tx:            tx,
		alertsCfg:     alertsCfg,
		metrics:       alertMetrics,
		logg:          logg,
		now:           time.Now,
	}, nil
}

// ReportLostInput captures the alert payload.
type ReportLostInput struct {
	Lat      *float64
	Lng      *float64
	Message  *string
	RadiusKm *float64
}

func (s *service) loadOwnedPet(ctx context.Context, actorID, petID uuid.UUID) (*models.Pet, error) {
	pet, err := s.pets.FindByID(ctx, petID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pet")
	}
	allowed, err := s.owners.IsOwner(ctx, pet, actorID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only owners can change pet status")
	}
	return pet, nil
}

func (s *service) effectiveRadius(requested *float64) float64 {
	radius := s.alertsCfg.DefaultRadiusKm
	if requested != nil && *requested > 0 {
		radius = *requested
	}
	if s.alertsCfg.MaxRadiusKm > 0 && radius > s.alertsCfg.MaxRadiusKm {
		radius = s.alertsCfg.MaxRadiusKm
	}
	return radius
}

func (s *service) ReportLost(ctx context.Context, actorID, petID uuid.UUID, input ReportLostInput) (*AlertResultDTO, error) {
	pet, err := s.loadOwnedPet(ctx, actorID, petID)
	if err != nil {
		return nil, err
	}
	if pet.Status == enums.PetStatusLost {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "pet is already reported lost")
	}

	if (input.Lat == nil) != (input.Lng == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lat and lng must be provided together")
	}

	var origin *types.GeographyPoint
	if input.Lat != nil {
		if *input.Lat < -90 || *input.Lat > 90 || *input.Lng < -180 || *input.Lng > 180 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
		}
		origin = &types.GeographyPoint{Lat: *input.Lat, Lng: *input.Lng}
	}

	radius := s.effectiveRadius(input.RadiusKm)
	now := s.now().UTC()

	var message *string
	if input.Message != nil {
		if trimmed := strings.TrimSpace(*input.Message); trimmed != "" {
			message = &trimmed
		}
	}

	pet.Status = enums.PetStatusLost
	pet.LastSeenAt = &now
	pet.LostMessage = message
	if origin != nil {
		pet.LastSeenLocation = origin
	}

	recipients, err := s.recipientsFor(ctx, origin, radius, actorID)
	if err != nil {
		return nil, err
	}

	started := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		// the status guard reruns inside the transaction so two concurrent
		// reports cannot both fan out
		moved, err := s.pets.UpdateStatusTx(tx, pet, enums.PetStatusActive)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pet status")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pet is already reported lost")
		}

		rows := s.buildNotifications(pet, recipients, enums.NotificationTypeAmberAlert,
			fmt.Sprintf("Alerta: %s se perdió cerca de ti", pet.Name),
			lostMessageFor(pet, message),
		)
		if err := s.notifications.CreateBatchTx(tx, rows); err != nil {
			return err
		}

		return s.appendEvent(tx, pet, enums.OutboxEventAmberAlertRaised, actorID, origin, radius, message, len(recipients))
	})
	if err != nil {
		s.metrics.IncFailure(string(enums.NotificationTypeAmberAlert))
		return nil, err
	}
	s.metrics.ObserveFanout(string(enums.NotificationTypeAmberAlert), s.now().Sub(started), len(recipients))

	if s.logg != nil {
		s.logg.Info(ctx, fmt.Sprintf("amber alert raised for pet %s, %d users notified", pet.ID, len(recipients)))
	}

	return &AlertResultDTO{
		PetID:         pet.ID,
		Status:        pet.Status,
		LastSeenAt:    pet.LastSeenAt,
		LastSeen:      pet.LastSeenLocation,
		LostMessage:   pet.LostMessage,
		RadiusKm:      radius,
		NotifiedCount: len(recipients),
	}, nil
}

func (s *service) MarkFound(ctx context.Context, actorID, petID uuid.UUID) (*AlertResultDTO, error) {
	pet, err := s.loadOwnedPet(ctx, actorID, petID)
	if err != nil {
		return nil, err
	}
	if pet.Status != enums.PetStatusLost {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "pet is not reported lost")
	}

	origin := pet.LastSeenLocation
	radius := s.effectiveRadius(nil)

	pet.Status = enums.PetStatusActive
	pet.LostMessage = nil

	recipients, err := s.recipientsFor(ctx, origin, radius, actorID)
	if err != nil {
		return nil, err
	}

	started := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.pets.UpdateStatusTx(tx, pet, enums.PetStatusLost)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pet status")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pet is not reported lost")
		}

		rows := s.buildNotifications(pet, recipients, enums.NotificationTypePetFound,
			fmt.Sprintf("%s fue encontrado", pet.Name),
			fmt.Sprintf("%s (%s) volvió a casa. Gracias por estar al pendiente.", pet.Name, pet.Species),
		)
		if err := s.notifications.CreateBatchTx(tx, rows); err != nil {
			return err
		}

		return s.appendEvent(tx, pet, enums.OutboxEventPetFound, actorID, origin, radius, nil, len(recipients))
	})
	if err != nil {
		s.metrics.IncFailure(string(enums.NotificationTypePetFound))
		return nil, err
	}
	s.metrics.ObserveFanout(string(enums.NotificationTypePetFound), s.now().Sub(started), len(recipients))

	return &AlertResultDTO{
		PetID:         pet.ID,
		Status:        pet.Status,
		LastSeenAt:    pet.LastSeenAt,
		LastSeen:      pet.LastSeenLocation,
		RadiusKm:      radius,
		NotifiedCount: len(recipients),
	}, nil
}

// recipientsFor resolves who falls inside the alert radius. Without an origin
// there is nothing to range over and the fan-out is empty.
func (s *service) recipientsFor(ctx context.Context, origin *types.GeographyPoint, radius float64, exclude uuid.UUID) ([]users.NearbyUserDTO, error) {
	if origin == nil {
		return nil, nil
	}
	recipients, err := s.nearby.FindNearby(ctx, *origin, radius, exclude, s.alertsCfg.MaxRecipients)
	if err != nil {
		return nil, err
	}
	return recipients, nil
}

func (s *service) buildNotifications(pet *models.Pet, recipients []users.NearbyUserDTO, kind enums.NotificationType, title, message string) []models.Notification {
	rows := make([]models.Notification, 0, len(recipients))
	for _, recipient := range recipients {
		petID := pet.ID
		rows = append(rows, models.Notification{
			UserID:    recipient.UserID,
			Type:      kind,
			Title:     title,
			Message:   message,
			RelatedID: &petID,
		})
	}
	return rows
}

func (s *service) appendEvent(tx *gorm.DB, pet *models.Pet, eventType enums.OutboxEventType, actorID uuid.UUID, origin *types.GeographyPoint, radius float64, message *string, notified int) error {
	payload, err := outbox.NewEnvelope(&outbox.ActorRef{UserID: actorID}, alertEventData{
		PetID:    pet.ID,
		PetName:  pet.Name,
		Species:  pet.Species,
		Status:   pet.Status,
		Origin:   origin,
		RadiusKm: radius,
		Message:  message,
		Notified: notified,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode alert event")
	}

	event := models.OutboxEvent{
		EventType:     eventType,
		AggregateType: enums.OutboxAggregatePet,
		AggregateID:   pet.ID,
		Payload:       payload,
	}
	if err := s.outboxRepo.Insert(tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append outbox event")
	}
	return nil
}

func lostMessageFor(pet *models.Pet, message *string) string {
	base := fmt.Sprintf("%s (%s) se reportó como perdido cerca de tu ubicación.", pet.Name, pet.Species)
	if message != nil {
		return base + " " + *message
	}
	return base
}
