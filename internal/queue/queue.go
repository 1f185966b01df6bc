// Package queue — неограниченная FIFO-очередь событий синхронизации.
// Приём событий никогда не блокирует вызывающего (webhook должен ответить 200
// сразу после постановки в очередь); потребитель блокируется до появления элемента.
package queue

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
)

// EventQueue хранит события одной системы-источника. Порядок строго FIFO,
// поэтому быстрые последовательные правки одной записи обрабатываются
// в порядке поступления.
type EventQueue struct {
	mu       sync.Mutex
	backlog  []domain.SyncEvent
	notify   chan struct{}
	enqueued atomic.Uint64
}

func New() *EventQueue {
	return &EventQueue{
		notify: make(chan struct{}, 1),
	}
}

// Enqueue добавляет событие и будит потребителя. Не блокирует.
func (q *EventQueue) Enqueue(ev domain.SyncEvent) {
	q.mu.Lock()
	q.backlog = append(q.backlog, ev)
	q.mu.Unlock()

	q.enqueued.Add(1)

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Dequeue отдает следующее событие, блокируясь до его появления
// или отмены контекста.
func (q *EventQueue) Dequeue(ctx context.Context) (domain.SyncEvent, error) {
	for {
		q.mu.Lock()
		if len(q.backlog) > 0 {
			ev := q.backlog[0]
			q.backlog = q.backlog[1:]
			q.mu.Unlock()
			return ev, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return domain.SyncEvent{}, ctx.Err()
		case <-q.notify:
		}
	}
}

// Depth возвращает число ожидающих событий (для /status).
func (q *EventQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.backlog)
}

// Enqueued — счётчик принятых событий за время жизни процесса.
func (q *EventQueue) Enqueued() uint64 {
	return q.enqueued.Load()
}
