package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carelink/carelink/internal/config"
	"github.com/carelink/carelink/internal/domain/consultation"
	"github.com/carelink/carelink/internal/domain/emergency"
	"github.com/carelink/carelink/internal/domain/medication"
	"github.com/carelink/carelink/internal/domain/notification"
	"github.com/carelink/carelink/internal/domain/payment"
	"github.com/carelink/carelink/internal/domain/profile"
	"github.com/carelink/carelink/internal/domain/rating"
	"github.com/carelink/carelink/internal/domain/support"
	"github.com/carelink/carelink/internal/platform/aggregate"
	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/internal/platform/db"
	"github.com/carelink/carelink/internal/platform/middleware"
	"github.com/carelink/carelink/internal/platform/relay"
	"github.com/carelink/carelink/internal/platform/serviceref"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "carelink-server",
		Short: "CareLink coordination API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the CareLink API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// doctorStatsSource feeds profile aggregate recomputation from the rating
// and consultation collections.
type doctorStatsSource struct {
	ratings       rating.Repository
	consultations consultation.Repository
}

func (s *doctorStatsSource) RatingSummary(ctx context.Context, doctorID uuid.UUID) (profile.RatingStats, error) {
	sum, err := s.ratings.SummaryByReviewee(ctx, doctorID)
	if err != nil {
		return profile.RatingStats{}, err
	}
	return profile.RatingStats{
		AverageRating: sum.AverageRating,
		TotalRatings:  sum.TotalRatings,
	}, nil
}

func (s *doctorStatsSource) ConsultationSummary(ctx context.Context, doctorID uuid.UUID) (profile.DoctorStats, error) {
	total, completed, earnings, err := s.consultations.SummaryByDoctor(ctx, doctorID)
	if err != nil {
		return profile.DoctorStats{}, err
	}
	stats := profile.DoctorStats{
		TotalConsultations: total,
		TotalEarnings:      earnings,
	}
	if total > 0 {
		stats.CompletionRate = float64(completed) / float64(total)
	}
	return stats, nil
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}))
	}

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// API group with rate limiting
	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Repositories
	doctorRepo := profile.NewDoctorRepoPG(pool)
	elderlyRepo := profile.NewElderlyRepoPG(pool)
	familyRepo := profile.NewFamilyRepoPG(pool)
	consultationRepo := consultation.NewRepoPG(pool)
	supportRepo := support.NewRepoPG(pool)
	paymentRepo := payment.NewRepoPG(pool)
	alertRepo := emergency.NewRepoPG(pool)
	reminderRepo := medication.NewReminderRepoPG(pool)
	logRepo := medication.NewLogRepoPG(pool)
	ratingRepo := rating.NewRepoPG(pool)
	notificationRepo := notification.NewRepoPG(pool)

	// Polymorphic service reference resolution: each kind is bound to its
	// collection's existence lookup at wiring time.
	resolver := serviceref.NewResolver()
	resolver.Register(serviceref.KindConsultation, consultationRepo.Exists)
	resolver.Register(serviceref.KindSupportRequest, supportRepo.Exists)

	// Services
	profileSvc := profile.NewService(doctorRepo, elderlyRepo, familyRepo)
	profileSvc.SetStatsSource(&doctorStatsSource{ratings: ratingRepo, consultations: consultationRepo})
	consultationSvc := consultation.NewService(consultationRepo)
	supportSvc := support.NewService(supportRepo)
	paymentSvc := payment.NewService(paymentRepo, resolver)
	emergencySvc := emergency.NewService(alertRepo, logger)
	medicationSvc := medication.NewService(reminderRepo, logRepo)
	ratingSvc := rating.NewService(ratingRepo, resolver)
	notificationSvc := notification.NewService(notificationRepo, resolver, logger)

	// Outbound SMS relay
	var smsClient *relay.SMSClient
	if cfg.SMSAPIURL != "" {
		smsClient = relay.NewSMSClient(cfg.SMSAPIURL, cfg.SMSAPIKey, cfg.SMSSenderID, logger)
		emergencySvc.SetDispatch(smsClient, func(ctx context.Context, elderlyID uuid.UUID) ([]emergency.Contact, error) {
			contacts, err := profileSvc.EmergencyContacts(ctx, elderlyID)
			if err != nil {
				return nil, err
			}
			out := make([]emergency.Contact, len(contacts))
			for i, c := range contacts {
				out[i] = emergency.Contact{Name: c.Name, Phone: c.Phone}
			}
			return out, nil
		})
		notificationSvc.SetDispatch(smsClient)
	} else {
		logger.Warn().Msg("SMS_API_URL not set; outbound SMS dispatch is disabled")
	}

	// Upload relay
	if cfg.CloudinaryCloudName != "" {
		uploader := relay.NewUploader(cfg.CloudinaryCloudName, cfg.CloudinaryUploadPreset, logger)
		relay.NewHandler(uploader).RegisterRoutes(apiV1)
	} else {
		logger.Warn().Msg("CLOUDINARY_CLOUD_NAME not set; upload relay endpoints are disabled")
	}

	// Aggregate trigger queue: consultation and rating writes enqueue the
	// doctor, a worker drains the queue and rebuilds the profile aggregates.
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb := redis.NewClient(opts)
		queue := aggregate.NewQueue(rdb, "carelink:recompute:doctor", logger)
		consultationSvc.SetRecomputeTrigger(queue)
		ratingSvc.SetRecomputeTrigger(queue)

		workerCtx, workerCancel := context.WithCancel(ctx)
		defer workerCancel()
		go func() {
			if err := queue.Run(workerCtx, profileSvc); err != nil && workerCtx.Err() == nil {
				logger.Error().Err(err).Msg("aggregate worker stopped")
			}
		}()
		logger.Info().Msg("aggregate recompute worker started")
	} else {
		logger.Warn().Msg("REDIS_URL not set; doctor aggregate recomputation is disabled")
	}

	// Handlers
	profile.NewHandler(profileSvc).RegisterRoutes(apiV1)
	consultation.NewHandler(consultationSvc).RegisterRoutes(apiV1)
	support.NewHandler(supportSvc).RegisterRoutes(apiV1)
	payment.NewHandler(paymentSvc).RegisterRoutes(apiV1)
	emergency.NewHandler(emergencySvc).RegisterRoutes(apiV1)
	medication.NewHandler(medicationSvc).RegisterRoutes(apiV1)
	rating.NewHandler(ratingSvc).RegisterRoutes(apiV1)
	notification.NewHandler(notificationSvc).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
