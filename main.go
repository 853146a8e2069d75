package main

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	gemini "github.com/lingxiaoxu/Stanse-sub005/repos/gemini"
	newsfeed "github.com/lingxiaoxu/Stanse-sub005/repos/newsfeed"

	auth "github.com/lingxiaoxu/Stanse-sub005/pkg/auth"
	config "github.com/lingxiaoxu/Stanse-sub005/pkg/config"
	logging "github.com/lingxiaoxu/Stanse-sub005/pkg/logging"
	sched "github.com/lingxiaoxu/Stanse-sub005/pkg/sched"

	admin "github.com/lingxiaoxu/Stanse-sub005/services/admin"
	credits "github.com/lingxiaoxu/Stanse-sub005/services/credits"
	duel "github.com/lingxiaoxu/Stanse-sub005/services/duel"
	globe "github.com/lingxiaoxu/Stanse-sub005/services/globe"
	locate "github.com/lingxiaoxu/Stanse-sub005/services/locate"
	rankings "github.com/lingxiaoxu/Stanse-sub005/services/rankings"
	subscriptions "github.com/lingxiaoxu/Stanse-sub005/services/subscriptions"
)

func main() {
	ctx := context.Background()

	// .env is a developer convenience; deployed containers get real env vars.
	if gin.Mode() != gin.ReleaseMode {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	credentialsOption := option.WithCredentialsJSON([]byte(cfg.CredentialsJSON))

	firestoreClient, err := firestore.NewClient(ctx, cfg.ProjectID, credentialsOption)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	firebaseApp, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: cfg.DatabaseURL}, credentialsOption)
	if err != nil {
		log.Fatalf("error initializing app: %v\n", err)
	}

	var databaseClient *db.Client
	if cfg.DatabaseURL != "" {
		databaseClient, err = firebaseApp.Database(ctx)
		if err != nil {
			logger.Warn("Realtime Database unavailable, presence tracking disabled", zap.Error(err))
			databaseClient = nil
		}
	}

	storageClient, err := storage.NewClient(ctx, credentialsOption)
	if err != nil {
		logger.Warn("Cloud Storage unavailable, question images will be served unsigned", zap.Error(err))
		storageClient = nil
	}

	geminiService, err := gemini.NewService(ctx, firestoreClient, logger, cfg.GeminiAPIKeys, cfg.GeminiRPM)
	if err != nil {
		log.Fatalf("Failed to create Gemini gateway: %v", err)
	}

	newsfeedService := newsfeed.NewService(firestoreClient, logger, cfg.PolygonAPIKey, cfg.PolygonRPM)

	creditsService := credits.NewCreditsService(firestoreClient, logger)
	duelService := duel.NewDuelService(firestoreClient, databaseClient, storageClient, creditsService, cfg.QuestionImageBucket, logger)
	locateService := locate.NewLocateService(firestoreClient, geminiService, logger)
	globeService := globe.NewGlobeService(firestoreClient, logger)
	subscriptionsService := subscriptions.NewSubscriptionsService(firestoreClient, logger)
	rankingsService := rankings.NewRankingsService(firestoreClient, geminiService, logger)
	adminService := admin.NewAdminService(firestoreClient, creditsService, geminiService, rankingsService, newsfeedService, logger)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSHosts
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Access-Control-Allow-Origin"}

	router := gin.Default()
	if len(cfg.CORSHosts) > 0 {
		router.Use(cors.New(corsConfig))
	}

	duelRouter := router.Group("/duel/v1")
	duelRouter.Use(auth.AuthMiddleware(firebaseApp)) // Apply the middleware here

	creditsRouter := router.Group("/credits/v1")
	creditsRouter.Use(auth.AuthMiddleware(firebaseApp))

	locateRouter := router.Group("/locate/v1")
	locateRouter.Use(auth.AuthMiddleware(firebaseApp))

	subscriptionsRouter := router.Group("/subscriptions/v1")
	subscriptionsRouter.Use(auth.AuthMiddleware(firebaseApp))

	// Globe markers and ranking reads are public; the on-demand scoring
	// endpoint is metered per user and stays behind auth.
	globeRouter := router.Group("/globe/v1")

	rankingsRouter := router.Group("/rankings/v1")
	rankingsAuthedRouter := router.Group("/rankings/v1")
	rankingsAuthedRouter.Use(auth.AuthMiddleware(firebaseApp))

	adminRouter := router.Group("/admin/v1")
	adminRouter.Use(auth.AuthMiddleware(firebaseApp))

	duel.NewHTTPHandler(duel.HTTPOptions{
		Service: duelService,
		Router:  duelRouter,
	})

	credits.NewHTTPHandler(credits.HTTPOptions{
		Service: creditsService,
		Router:  creditsRouter,
	})

	locate.NewHTTPHandler(locate.HTTPOptions{
		Service: locateService,
		Router:  locateRouter,
	})

	subscriptions.NewHTTPHandler(subscriptions.HTTPOptions{
		Service: subscriptionsService,
		Router:  subscriptionsRouter,
	})

	globe.NewHTTPHandler(globe.HTTPOptions{
		Service: globeService,
		Router:  globeRouter,
	})

	rankings.NewHTTPHandler(rankings.HTTPOptions{
		Service:      rankingsService,
		Router:       rankingsRouter,
		AuthedRouter: rankingsAuthedRouter,
	})

	admin.NewHTTPHandler(admin.HTTPOptions{
		Service: adminService,
		Router:  adminRouter,
	})

	scheduler := sched.New(logger)
	scheduler.Register(sched.Job{Name: "newsfeed-sync", Interval: 5 * time.Minute, Run: newsfeedService.SyncNews})
	scheduler.Register(sched.Job{Name: "ticker-news-sync", Interval: 15 * time.Minute, Run: newsfeedService.SyncAllTickers})
	scheduler.Register(sched.Job{Name: "locate-sweep", Interval: 2 * time.Minute, Run: locateService.SweepUnlocated})
	scheduler.Register(sched.Job{Name: "duel-janitor", Interval: time.Minute, Run: duelService.ExpireStaleMatches})
	scheduler.Register(sched.Job{Name: "subscription-renewals", Interval: time.Hour, Run: subscriptionsService.RenewSweep})
	// Rankings carry a 12 hour expiry, so regenerate on the same period.
	scheduler.Register(sched.Job{Name: "rankings-refresh", Interval: 12 * time.Hour, Run: rankingsService.GenerateAll})
	scheduler.Register(sched.Job{Name: "gateway-cache-cleanup", Interval: time.Hour, Run: func(ctx context.Context) error {
		_, err := geminiService.CleanupCache(ctx)
		return err
	}})
	scheduler.Register(sched.Job{Name: "gateway-alerts", Interval: 5 * time.Minute, Run: geminiService.EvaluateAlerts})

	if !cfg.SchedulerDisabled {
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	go locateService.Watch(ctx)

	log.Fatal(router.Run(":" + cfg.Port))
}
