// Package tracker реализует окно подавления обратных синхронизаций.
// Когда движок записывает изменение в одну из систем, её собственный webhook
// сообщит об этой же записи; tracker позволяет распознать такое эхо по
// каноническому ключу и не зациклить обмен.
package tracker

import (
	"sync"
	"time"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
)

type entry struct {
	source    domain.Source
	writtenAt time.Time
}

// Tracker — потокобезопасная карта «кто писал последним» с скользящим TTL.
// Единственное разделяемое изменяемое состояние движка помимо кэшей.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

func New(ttl time.Duration) *Tracker {
	return &Tracker{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// ShouldProcess сообщает, стоит ли обрабатывать событие из incoming.
// false — только если по ключу недавно (в пределах TTL) писала противоположная
// система: такое событие считается эхом собственной записи движка.
func (t *Tracker) ShouldProcess(key string, incoming domain.Source) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.purge()

	if ent, ok := t.entries[key]; ok {
		if ent.source != incoming && t.now().Sub(ent.writtenAt) < t.ttl {
			return false
		}
	}
	return true
}

// RecordWrite фиксирует успешную запись; вызывается воркером сразу после upsert.
func (t *Tracker) RecordWrite(key string, source domain.Source) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.purge()
	t.entries[key] = entry{source: source, writtenAt: t.now()}
}

// Size возвращает число живых записей (для /status).
func (t *Tracker) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.purge()
	return len(t.entries)
}

// purge лениво выбрасывает просроченные записи; вызывается под мьютексом.
func (t *Tracker) purge() {
	now := t.now()
	for key, ent := range t.entries {
		if now.Sub(ent.writtenAt) >= t.ttl {
			delete(t.entries, key)
		}
	}
}
