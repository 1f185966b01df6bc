package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/DRSN-tech/catalog-sync/internal/queue"
	"github.com/DRSN-tech/catalog-sync/internal/usecase"
	"github.com/DRSN-tech/catalog-sync/pkg/logger"
)

// ReconcileWorker — единственный потребитель своей очереди. Один воркер на
// очередь даёт строгий FIFO внутри направления; направления независимы.
type ReconcileWorker struct {
	name       string
	queue      *queue.EventQueue
	uc         usecase.SyncUC
	deadLetter usecase.DeadLetterProducer
	logger     logger.Logger
	wg         sync.WaitGroup
}

// NewReconcileWorker создаёт воркер. deadLetter может быть nil — тогда
// окончательно отброшенные события только логируются.
func NewReconcileWorker(
	name string,
	q *queue.EventQueue,
	uc usecase.SyncUC,
	deadLetter usecase.DeadLetterProducer,
	logger logger.Logger,
) *ReconcileWorker {
	return &ReconcileWorker{
		name:       name,
		queue:      q,
		uc:         uc,
		deadLetter: deadLetter,
		logger:     logger,
	}
}

// Start запускает цикл обработки в отдельной горутине.
// Цикл живёт до отмены ctx.
func (w *ReconcileWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

// Wait блокируется до полной остановки цикла.
func (w *ReconcileWorker) Wait() {
	w.wg.Wait()
}

func (w *ReconcileWorker) run(ctx context.Context) {
	w.logger.Infof("worker %s started", w.name)

	for {
		ev, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				w.logger.Infof("worker %s stopped", w.name)
				return
			}
			w.logger.Errorf(err, "worker %s: dequeue failed", w.name)
			continue
		}

		if err := w.uc.Reconcile(ctx, ev); err != nil {
			// Ошибка терминальна для события: очередь не блокируется повторами.
			w.logger.Errorf(err, "worker %s: event dropped: id=%s source=%s external_id=%s op=%s",
				w.name, ev.ID, ev.Source, ev.ExternalID, ev.Op)

			if w.deadLetter != nil {
				if dlErr := w.deadLetter.Publish(ctx, ev, err); dlErr != nil {
					w.logger.Warnf("worker %s: dead-letter publish failed for event %s: %v", w.name, ev.ID, dlErr)
				}
			}
		}
	}
}
