package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"technest-backend/internal/shared"
	"technest-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
}

func NewScheduler(redisAddr, redisPassword string, redisDB int) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: redisPassword,
			DB:       redisDB,
		},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{scheduler: scheduler}
}

func (s *Scheduler) RegisterJobs() error {
	return s.registerExpireStaleOrdersJob()
}

// ================================================
// JOB: Expire Stale Orders (Hourly)
// ================================================
// The threshold is 24h by default, so an hourly sweep bounds how long a
// dead pending order lingers past it without hammering the database.
func (s *Scheduler) registerExpireStaleOrdersJob() error {
	payload, err := json.Marshal(struct{}{})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeExpireStaleOrders, payload)

	_, err = s.scheduler.Register(
		"@every 1h",
		task,
		asynq.Queue(shared.QueueOrders),
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register ExpireStaleOrders job", err)
		return err
	}

	logger.Info("Registered ExpireStaleOrders: every hour", map[string]interface{}{})
	return nil
}

func (s *Scheduler) Run() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
