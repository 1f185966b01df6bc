package domain

import (
	"time"

	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/google/uuid"
)

// Source обозначает систему-источник изменения.
type Source string

const (
	// SourceRecords — хранилище структурированных записей (операционный источник истины).
	SourceRecords Source = "records"
	// SourceCatalog — headless-каталог, обслуживающий витрину.
	SourceCatalog Source = "catalog"
)

// ParseSource валидирует строковое обозначение системы-источника.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceRecords, SourceCatalog:
		return Source(s), nil
	default:
		return "", e.ErrInvalidSource
	}
}

// Counterpart возвращает противоположную систему.
func (s Source) Counterpart() Source {
	if s == SourceRecords {
		return SourceCatalog
	}
	return SourceRecords
}

// Operation — тип изменения, о котором сообщил webhook.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// SyncEvent — минимальный дескриптор изменения. Живет только в очереди,
// потребляется ровно один раз и не персистится.
type SyncEvent struct {
	ID         string
	Source     Source
	ExternalID string
	Op         Operation
	ReceivedAt time.Time
}

func NewSyncEvent(source Source, externalID string, op Operation) SyncEvent {
	return SyncEvent{
		ID:         uuid.NewString(),
		Source:     source,
		ExternalID: externalID,
		Op:         op,
		ReceivedAt: time.Now(),
	}
}

// Direction задает направление полной синхронизации.
type Direction string

const (
	DirectionRecordsToCatalog Direction = "records_to_catalog"
	DirectionCatalogToRecords Direction = "catalog_to_records"
	DirectionBoth             Direction = "both"
)

// ParseDirection валидирует направление полной синхронизации.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionRecordsToCatalog, DirectionCatalogToRecords, DirectionBoth:
		return Direction(s), nil
	default:
		return "", e.ErrInvalidDirection
	}
}
