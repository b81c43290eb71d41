package cron

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"taskdeck/config"
	taskRepo "taskdeck/database/repository/task"
	"taskdeck/models"
	"taskdeck/services/notification"
	"taskdeck/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	cronv3 "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const TypeEvaluate = "notify:evaluate"

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// NewEvaluateTask builds the asynq task scheduling one user's evaluation.
func NewEvaluateTask(userID string) (*asynq.Task, error) {
	b, err := json.Marshal(models.EvaluatePayload{UserID: userID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEvaluate, b), nil
}

// InitNotificationWorker runs the async worker in background.
func InitNotificationWorker(evaluator notification.Evaluator) {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEvaluate, handleEvaluateTask(evaluator))

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[NotifyWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[NotifyWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[NotifyWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleEvaluateTask(evaluator notification.Evaluator) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()

		var p models.EvaluatePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid evaluate payload", zap.Error(err))
			return err
		}
		if p.UserID == "" {
			return nil
		}

		counts, err := evaluator.Evaluate(ctx, p.UserID)
		if err != nil {
			// Another run (e.g. user-triggered) holds the lock; dedup
			// makes the next cycle pick up anything missed.
			if errors.Is(err, notification.ErrEvaluationInFlight) {
				logger.Debug("evaluation already in flight", zap.String("userId", p.UserID))
				return nil
			}
			logger.Warn("evaluation failed", zap.String("userId", p.UserID), zap.Error(err))
			return err
		}
		if counts.Total() > 0 {
			logger.Info("worker evaluation done",
				zap.String("userId", p.UserID), zap.Int("created", counts.Total()))
		}
		return nil
	}
}

// StartSweepScheduler runs the periodic sweep: on each tick it enqueues one
// evaluate task per user owning open tasks, so a slow user never stalls the
// sweep and worker concurrency bounds the fan-out.
func StartSweepScheduler(tasks taskRepo.TaskRepository) *cronv3.Cron {
	client := asynq.NewClient(redisOpts())

	c := cronv3.New()
	_, err := c.AddFunc(config.AppConfig.SweepSchedule, func() {
		logger := utils.GetLogger()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		userIDs, err := tasks.ListOwnerIDs(ctx)
		if err != nil {
			logger.Error("sweep: listing task owners failed", zap.Error(err))
			return
		}
		enqueued := 0
		for _, userID := range userIDs {
			t, err := NewEvaluateTask(userID)
			if err != nil {
				logger.Warn("sweep: building task failed", zap.String("userId", userID), zap.Error(err))
				continue
			}
			if _, err := client.Enqueue(t); err != nil {
				logger.Warn("sweep: enqueue failed", zap.String("userId", userID), zap.Error(err))
				continue
			}
			enqueued++
		}
		logger.Info("sweep enqueued evaluations", zap.Int("users", enqueued))
	})
	if err != nil {
		log.Fatalf("[SweepScheduler] invalid schedule %q: %v", config.AppConfig.SweepSchedule, err)
	}
	c.Start()
	return c
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[NotifyWorker] redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
