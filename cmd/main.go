package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/profiler"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/timeliness-app/activity-tracker/pkg/activities"
	"github.com/timeliness-app/activity-tracker/pkg/communication"
	"github.com/timeliness-app/activity-tracker/pkg/environment"
	"github.com/timeliness-app/activity-tracker/pkg/locking"
	"github.com/timeliness-app/activity-tracker/pkg/logger"
	"github.com/timeliness-app/activity-tracker/pkg/notifications"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

const serviceName = "activity-tracker"

func main() {
	var logging logger.Interface = logger.Logger{}
	fmt.Println("Server is starting up...")

	err := environment.Initialize()
	if err != nil {
		logging.Fatal(err)
	}
	env := environment.Global

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if env.Environment == environment.Production && env.GCPProjectID != "" {
		googleLogger, err := logger.NewGoogleCloudLogger(ctx, env.GCPProjectID, serviceName)
		if err != nil {
			logging.Fatal(err)
		}
		defer func() {
			_ = googleLogger.Close()
		}()
		logging = googleLogger

		err = profiler.Start(profiler.Config{Service: serviceName, ProjectID: env.GCPProjectID})
		if err != nil {
			logging.Error("Could not start profiler", err)
		}
	} else {
		logging = logger.Logger{Verbose: env.Environment != environment.Production}
	}

	repository, closeRepository, err := newRepository(ctx, env, logging)
	if err != nil {
		logging.Fatal(err)
	}
	defer closeRepository()

	var locker locking.LockerInterface
	var cache activities.ActivityCacheInterface

	if env.Redis != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     env.Redis,
			Password: env.RedisPassword,
		})
		defer func() {
			_ = redisClient.Close()
		}()

		err = redisClient.Ping(ctx).Err()
		if err != nil {
			logging.Fatal(errors.Wrap(err, "could not reach redis"))
		}

		locker = locking.NewLockerRedis(redisClient)
		cache = activities.NewActivityCacheRedis(redisClient)
		logging.Info("Using redis for locks and cache")
	} else {
		locker = locking.NewLockerMemory()
		cache, err = activities.NewActivityCacheMemory(env.CacheSize)
		if err != nil {
			logging.Fatal(err)
		}
	}

	service := activities.NewSchedulingService(repository, locker, cache, logging, activities.SchedulingConfig{
		LockTTL:     env.LockTTL,
		LockTimeout: env.LockTimeout,
		MaxRetries:  env.MaxRetries,
	})

	if env.FirebaseCredentials != "" {
		notificationController, err := notifications.NewNotificationController(ctx, logging, env.GCPProjectID,
			env.FirebaseCredentials, env.FirebaseTopic)
		if err != nil {
			logging.Fatal(err)
		}
		service.Subscribe(notificationController)
	}

	responseManager := communication.ResponseManager{Logger: logging}
	activityHandler := activities.Handler{Service: service, Logger: logging, ResponseManager: &responseManager}

	r := mux.NewRouter()
	r.HandleFunc("/", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)

		_, err := fmt.Fprint(writer, "Welcome to the API! ✔")
		if err != nil {
			logging.Error("Could not write welcome message", err)
		}
	})
	activityHandler.RegisterRoutes(r)

	r.Use(communication.RequestIDMiddleware)
	r.Use(communication.JSONMiddleware)

	server := &http.Server{
		Addr:              ":" + env.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logging.Info(fmt.Sprintf("Listening on port %s", env.Port))
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	err = group.Wait()
	if err != nil {
		logging.Error("Server stopped with an error", err)
	}

	logging.Info("Server stopped")
}

func newRepository(ctx context.Context, env environment.Environment, logging logger.Interface) (activities.ActivityRepositoryInterface, func(), error) {
	switch env.Database {
	case environment.DatabaseMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(env.DatabaseURL))
		if err != nil {
			return nil, nil, err
		}

		err = client.Ping(connectCtx, nil)
		if err != nil {
			return nil, nil, err
		}

		logging.Info("Database connected")

		repository := &activities.MongoDBActivityRepository{
			DB:     client.Database(env.DatabaseName).Collection("Activities"),
			Logger: logging,
		}

		err = repository.EnsureIndexes(connectCtx)
		if err != nil {
			return nil, nil, err
		}

		return repository, func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			err := client.Disconnect(disconnectCtx)
			if err != nil {
				logging.Error("Could not disconnect from database", err)
			}
		}, nil
	case environment.DatabaseSQLite:
		repository, err := activities.NewSQLiteActivityRepository(env.SQLitePath)
		if err != nil {
			return nil, nil, err
		}

		logging.Info(fmt.Sprintf("Using sqlite database %s", env.SQLitePath))

		return repository, func() {}, nil
	}

	logging.Info("Using in memory database, nothing will be persisted")

	return activities.NewMemoryActivityRepository(), func() {}, nil
}
