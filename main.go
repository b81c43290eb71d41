// File: taskdeck/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskdeck/config"
	"taskdeck/cron"
	"taskdeck/database"
	boardRepoPkg "taskdeck/database/repository/board"
	notificationRepoPkg "taskdeck/database/repository/notification"
	preferenceRepoPkg "taskdeck/database/repository/preference"
	subscriptionRepoPkg "taskdeck/database/repository/subscription"
	taskRepoPkg "taskdeck/database/repository/task"
	"taskdeck/handlers"
	"taskdeck/middleware"
	"taskdeck/routes"
	"taskdeck/services/notification"
	"taskdeck/services/tasks"
	"taskdeck/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.FirebaseInit()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	taskRepo := taskRepoPkg.NewMongoTaskRepo()
	notificationRepo := notificationRepoPkg.NewMongoNotificationRepo()
	preferenceRepo := preferenceRepoPkg.NewMongoPreferenceRepo()
	subscriptionRepo := subscriptionRepoPkg.NewMongoSubscriptionRepo()
	boardRepo := boardRepoPkg.NewMongoBoardRepo()

	// services.
	dispatcher := &notification.DefaultDispatcher{
		Subs: subscriptionRepo,
		Web: notification.NewVAPIDWebPushSender(
			config.AppConfig.VAPIDPublicKey,
			config.AppConfig.VAPIDPrivateKey,
			config.AppConfig.VAPIDSubscriber,
		),
		Native:      notification.NewFCMPushSender(utils.FCMClient),
		SendTimeout: time.Duration(config.AppConfig.PushSendTimeoutSeconds) * time.Second,
	}

	evaluator := &notification.DefaultEvaluator{
		Tasks:         taskRepo,
		Notifications: notificationRepo,
		Preferences:   preferenceRepo,
		Dispatcher:    dispatcher,
		Locks:         utils.EvalLock{},
		EvalTimeout:   time.Duration(config.AppConfig.EvalTimeoutSeconds) * time.Second,
	}

	taskService := &tasks.DefaultTaskService{
		Tasks:         taskRepo,
		Notifications: notificationRepo,
		Boards:        boardRepo,
	}

	notificationHandler := handlers.NewNotificationHandler(evaluator, notificationRepo)
	preferenceHandler := handlers.NewPreferenceHandler(preferenceRepo)
	pushHandler := handlers.NewPushHandler(subscriptionRepo)
	taskHandler := handlers.NewTaskHandler(taskService)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		RunEvaluationHandler:       notificationHandler.RunEvaluationHandler,
		RunSweepHandler:            notificationHandler.RunSweepHandler,
		ListNotificationsHandler:   notificationHandler.ListNotificationsHandler,
		MarkNotificationRead:       notificationHandler.MarkReadHandler,
		DismissNotificationHandler: notificationHandler.DismissHandler,
		GetPreferencesHandler:      preferenceHandler.GetPreferencesHandler,
		UpdatePreferencesHandler:   preferenceHandler.UpdatePreferencesHandler,
		SubscribeHandler:           pushHandler.SubscribeHandler,
		UnsubscribeHandler:         pushHandler.UnsubscribeHandler,
		SnoozeTaskHandler:          taskHandler.SnoozeTaskHandler,
		CompleteTaskHandler:        taskHandler.CompleteTaskHandler,
	}

	routes.RegisterRoutes(router, handlerBundle)

	// Background workers: the asynq consumer and the periodic sweep.
	cron.InitNotificationWorker(evaluator)
	sweeper := cron.StartSweepScheduler(taskRepo)

	utils.StartHealthMonitor(utils.GetCacheClient(), database.MongoClient)

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.AppPort,
		Handler: router,
	}

	go func() {
		logger.Sugar().Infof("main: listening on :%s", config.AppConfig.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: shutting down")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: forced shutdown: %v", err)
	}
	if err := database.MongoClient.Disconnect(ctx); err != nil {
		logger.Sugar().Errorf("main: mongo disconnect: %v", err)
	}
}
