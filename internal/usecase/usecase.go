package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
)

// SyncUC — операции движка синхронизации, доступные воркерам и HTTP-слою.
type SyncUC interface {
	// Reconcile обрабатывает одно событие: читает авторитетное состояние,
	// разрешает связь и применяет эквивалентное состояние к системе-контрагенту.
	Reconcile(ctx context.Context, ev domain.SyncEvent) error
	// EnqueueManual ставит в очередь события для перечисленных записей.
	EnqueueManual(source domain.Source, ids []string) int
	// RunFullSync постранично обходит коллекции и порождает синтетические
	// события для наверстывания; использует те же очереди и воркеры.
	RunFullSync(ctx context.Context, direction domain.Direction) error
	// Status — глубины очередей и размер трекера для операторского API.
	Status() *StatusRes
}
