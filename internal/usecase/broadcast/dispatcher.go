package broadcast

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tg-content-bot/internal/domain"
	"tg-content-bot/internal/infra/metrics"
)

const defaultWorkers = 8

// Dispatcher рассылает одно сообщение всем получателям. Ошибка доставки
// одному получателю не влияет на остальных, повторов нет.
type Dispatcher struct {
	sender      domain.Sender
	workers     int
	sendTimeout time.Duration
	log         zerolog.Logger
}

// NewDispatcher создаёт рассыльщик с ограничением одновременных отправок.
func NewDispatcher(sender domain.Sender, workers int, sendTimeout time.Duration, log zerolog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Dispatcher{sender: sender, workers: workers, sendTimeout: sendTimeout, log: log}
}

// Dispatch доставляет payload каждому получателю из targets и возвращает
// итог после завершения всех попыток. Результаты идут в порядке targets.
func (d *Dispatcher) Dispatch(ctx context.Context, payload domain.Payload, targets []int64) domain.BroadcastResult {
	snapshot := append([]int64(nil), targets...)
	jobID := uuid.NewString()
	jobLog := d.log.With().Str("job_id", jobID).Str("kind", string(payload.Kind)).Int("targets", len(snapshot)).Logger()
	jobLog.Info().Msg("рассылка запущена")
	metrics.BroadcastJobs.Inc()

	outcomes := make([]domain.DeliveryOutcome, len(snapshot))
	var g errgroup.Group
	g.SetLimit(d.workers)
	for i, userID := range snapshot {
		g.Go(func() error {
			err := d.deliver(ctx, userID, payload)
			outcomes[i] = domain.DeliveryOutcome{UserID: userID, Err: err}
			metrics.ObserveDelivery(err)
			if err != nil {
				jobLog.Warn().Err(err).Int64("user", userID).Msg("не удалось доставить рассылку")
			}
			return nil
		})
	}
	_ = g.Wait()

	result := domain.BroadcastResult{JobID: jobID, Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Delivered() {
			result.Delivered++
			continue
		}
		result.Failed = append(result.Failed, o.UserID)
	}
	jobLog.Info().Int("delivered", result.Delivered).Int("failed", len(result.Failed)).Msg("рассылка завершена")
	return result
}

func (d *Dispatcher) deliver(ctx context.Context, userID int64, payload domain.Payload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Int64("user", userID).Msg("паника при доставке")
			err = domain.ErrExternalService
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	callCtx := ctx
	if d.sendTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.sendTimeout)
		defer cancel()
	}
	return d.sender.Deliver(callCtx, userID, payload)
}
