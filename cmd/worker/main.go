package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"resume-match/internal/bootstrap"
	"resume-match/internal/evaluation"
	"resume-match/internal/queue"
	"resume-match/internal/shared/config"
	"resume-match/internal/shared/telemetry"
	"resume-match/internal/workerproc"
)

const (
	defaultWorkerConcurrency = 4
	defaultMaxAttempts       = 5
	shutdownTimeout          = 30 * time.Second
	consumerName             = "resume-match-worker"
)

func main() {
	cfg := config.Load()

	logger, err := telemetry.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		log.Fatalf("creating a logger: %v", err)
	}
	telemetry.Set(logger)
	defer func() { _ = logger.Sync() }()

	if cfg.RabbitMQURL == "" {
		logger.Fatal("RABBITMQ_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, bootstrap.Options{})
	if err != nil {
		logger.Fatal("bootstrap build", zap.Error(err))
	}
	defer func() { _ = app.Close() }()

	rabbit, err := queue.DialRabbit(cfg.RabbitMQURL, cfg.RabbitMQQueue)
	if err != nil {
		logger.Fatal("connect rabbitmq", zap.Error(err))
	}
	defer func() { _ = rabbit.Close() }()

	concurrency := cfg.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = defaultWorkerConcurrency
	}
	deliveries, err := rabbit.Consume(consumerName, concurrency)
	if err != nil {
		logger.Fatal("start consumer", zap.Error(err))
	}

	maxAttempts := cfg.WorkerMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	w := &worker{svc: app.EvaluationService, pub: rabbit, maxAttempts: maxAttempts, retryDelay: cfg.WorkerRetryDelay}

	logger.Info("worker started",
		zap.String("queue", rabbit.Queue()),
		zap.Int("concurrency", concurrency),
		zap.Int("max_attempts", maxAttempts),
	)
	w.consume(ctx, deliveries, concurrency)
}

// worker settles evaluation deliveries. Retryable failures are republished
// through pub with a bumped attempt count until maxAttempts is reached.
type worker struct {
	svc         evaluation.Evaluating
	pub         queue.Client
	maxAttempts int
	retryDelay  time.Duration
}

// consume dispatches deliveries to at most concurrency goroutines until ctx
// is done or the delivery channel closes, then waits for in-flight work.
func (w *worker) consume(ctx context.Context, deliveries <-chan amqp.Delivery, concurrency int) {
	sem := make(chan struct{}, max(1, concurrency))
	var wg sync.WaitGroup

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case d, ok := <-deliveries:
			if !ok {
				telemetry.Warn("worker.deliveries_closed", nil)
				break loop
			}
			select {
			case <-ctx.Done():
				_ = d.Nack(false, true)
				break loop
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				w.handleDelivery(ctx, d)
			}(d)
		}
	}

	telemetry.Info("worker.shutdown", map[string]any{"timeout": shutdownTimeout.String()})
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout", nil)
	}
}

func (w *worker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	msg, meta, err := workerproc.ParseMessage(d.Body)
	if err != nil {
		fields := baseFields(d, queue.Message{})
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err.Error()
		telemetry.Error("worker.evaluation.decode_failed", fields)
		settle(d, workerproc.Drop, fields)
		return
	}

	telemetry.Info("worker.evaluation.received", baseFields(d, msg))
	action, err := workerproc.HandleMessage(ctx, w.svc, msg, w.maxAttempts)
	fields := baseFields(d, msg)
	fields["action"] = action.String()
	fields["attempt"] = msg.Attempt
	if err != nil {
		fields["error"] = err.Error()
		fields["kind"] = evaluation.Kind(err)
		telemetry.Error("worker.evaluation.failed", fields)
	} else {
		telemetry.Info("worker.evaluation.completed", fields)
	}
	if action == workerproc.Retry {
		action = w.retry(ctx, msg, fields)
	}
	settle(d, action, fields)
}

// retry republishes msg with its attempt count bumped after a linear
// backoff. The original delivery is acked once the copy is published and
// requeued when publishing fails or the worker is shutting down.
func (w *worker) retry(ctx context.Context, msg queue.Message, fields map[string]any) workerproc.Action {
	if w.pub == nil {
		return workerproc.Requeue
	}
	next := workerproc.NextAttempt(msg)
	if delay := w.retryDelay * time.Duration(next.Attempt); delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return workerproc.Requeue
		case <-timer.C:
		}
	}
	if err := w.pub.Send(ctx, next); err != nil {
		fields["retry_error"] = err.Error()
		telemetry.Error("worker.evaluation.retry_publish_failed", fields)
		return workerproc.Requeue
	}
	return workerproc.Ack
}

func settle(d amqp.Delivery, action workerproc.Action, fields map[string]any) {
	var err error
	switch action {
	case workerproc.Ack:
		err = d.Ack(false)
	case workerproc.Requeue:
		err = d.Nack(false, true)
	default:
		err = d.Nack(false, false)
	}
	if err != nil {
		fields["settle_error"] = err.Error()
		telemetry.Error("worker.evaluation.settle_failed", fields)
	}
}

func baseFields(d amqp.Delivery, msg queue.Message) map[string]any {
	fields := map[string]any{
		"delivery_tag": d.DeliveryTag,
		"redelivered":  d.Redelivered,
	}
	if msg.ResumeID != "" {
		fields["resume_id"] = msg.ResumeID
	}
	if msg.JobOfferID != "" {
		fields["job_offer_id"] = msg.JobOfferID
	}
	if msg.RequestID != "" {
		fields["request_id"] = msg.RequestID
	}
	return fields
}
