package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ruacmx/ruac-backend/api/controllers"
	"github.com/ruacmx/ruac-backend/api/middleware"
	"github.com/ruacmx/ruac-backend/internal/communities"
	"github.com/ruacmx/ruac-backend/internal/documents"
	"github.com/ruacmx/ruac-backend/internal/lostpets"
	"github.com/ruacmx/ruac-backend/internal/notifications"
	"github.com/ruacmx/ruac-backend/internal/ownership"
	"github.com/ruacmx/ruac-backend/internal/pets"
	"github.com/ruacmx/ruac-backend/internal/posts"
	"github.com/ruacmx/ruac-backend/internal/users"
	"github.com/ruacmx/ruac-backend/pkg/config"
	"github.com/ruacmx/ruac-backend/pkg/logger"
	"github.com/ruacmx/ruac-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	photoStore controllers.Uploader,
	userService users.Service,
	petService pets.Service,
	ownershipService ownership.Service,
	documentService documents.Service,
	communityService communities.Service,
	postService posts.Service,
	lostPetService lostpets.Service,
	notificationService notifications.Service,
	pingers ...controllers.Pinger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers...))
	})

	// Unauthenticated surface: document verification and the lost pet feed.
	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Get("/verify/{registrationNumber}", controllers.VerifyRegistration(documentService, logg))
		r.Get("/pets/{petId}", controllers.PublicPetProfile(petService, logg))
		r.Get("/lost-pets", controllers.ListLostPets(petService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, redisClient, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/users", func(r chi.Router) {
			r.Get("/me", controllers.Me(userService, logg))
			r.Patch("/me", controllers.UpdateMe(userService, logg))
			r.Put("/me/location", controllers.UpdateMyLocation(userService, logg))
		})

		r.Route("/v1/pets", func(r chi.Router) {
			r.Post("/", controllers.CreatePet(petService, logg))
			r.Get("/", controllers.ListMyPets(petService, logg))

			r.Route("/{petId}", func(r chi.Router) {
				r.Get("/", controllers.GetPet(petService, logg))
				r.Patch("/", controllers.UpdatePet(petService, logg))
				r.Delete("/", controllers.DeletePet(petService, logg))
				r.Post("/photo", controllers.UploadPetPhoto(petService, photoStore, cfg.Media, logg))

				r.Get("/owners", controllers.ListPetOwners(ownershipService, logg))
				r.Post("/owners", controllers.AddPetOwner(ownershipService, logg))
				r.Delete("/owners/{userId}", controllers.RemovePetOwner(ownershipService, logg))

				r.Post("/lost", controllers.ReportPetLost(lostPetService, logg))
				r.Post("/found", controllers.MarkPetFound(lostPetService, logg))
			})
		})

		r.Route("/v1/communities", func(r chi.Router) {
			r.Get("/", controllers.ListCommunities(communityService, logg))
			r.Get("/mine", controllers.MyCommunities(communityService, logg))
			r.Get("/slug/{slug}", controllers.GetCommunity(communityService, logg))

			r.Route("/{communityId}", func(r chi.Router) {
				r.Post("/join", controllers.JoinCommunity(communityService, logg))
				r.Delete("/leave", controllers.LeaveCommunity(communityService, logg))
				r.Post("/posts", controllers.CreateCommunityPost(postService, logg))
				r.Get("/posts", controllers.ListCommunityPosts(postService, logg))
			})
		})

		r.Route("/v1/posts/{postId}", func(r chi.Router) {
			r.Get("/", controllers.GetPost(postService, logg))
			r.Delete("/", controllers.DeletePost(postService, logg))
			r.Put("/like", controllers.LikePost(postService, logg))
			r.Delete("/like", controllers.UnlikePost(postService, logg))
			r.Post("/comments", controllers.CreatePostComment(postService, logg))
			r.Get("/comments", controllers.ListPostComments(postService, logg))
			r.Post("/report", controllers.ReportPost(postService, logg))
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationService, logg))
		})

		r.Route("/v1/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole("admin", logg))
			r.Get("/ping", controllers.AdminPing())
			r.Get("/reports", controllers.ListOpenReports(postService, logg))
			r.Post("/reports/{reportId}/dismiss", controllers.DismissReport(postService, logg))
		})
	})

	return r
}
