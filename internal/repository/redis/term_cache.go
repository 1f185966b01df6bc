package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/DRSN-tech/catalog-sync/internal/cfg"
	"github.com/DRSN-tech/catalog-sync/pkg/clients"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/DRSN-tech/catalog-sync/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// TermCacheRepo кэширует соответствие «имя термина -> id каталога».
// Термины меняются редко, а каждый upsert товара иначе стоил бы по
// HTTP-запросу на категорию и тег.
type TermCacheRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewTermCacheRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *TermCacheRepo {
	return &TermCacheRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Get возвращает id термина и признак попадания. Ошибки Redis считаются
// промахом: кэш не должен ронять синхронизацию.
func (t *TermCacheRepo) Get(ctx context.Context, taxonomy, name string) (int64, bool) {
	val, err := t.client.Client.Get(ctx, t.termKey(taxonomy, name)).Result()
	if err == r.Nil {
		return 0, false
	}
	if err != nil {
		t.logger.Warnf("Redis GET failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return 0, false
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		t.logger.Warnf("Corrupt term cache value for %s/%s: %q", taxonomy, name, val)
		if delErr := t.client.Client.Del(context.Background(), t.termKey(taxonomy, name)).Err(); delErr != nil {
			t.logger.Warnf("Redis DEL failed: %v", e.Wrap(whereami.WhereAmI(), delErr))
		}
		return 0, false
	}

	return id, true
}

// Set кэширует id термина с TTL из конфигурации, логируя ошибки записи.
func (t *TermCacheRepo) Set(ctx context.Context, taxonomy, name string, id int64) {
	key := t.termKey(taxonomy, name)
	if err := t.client.Client.Set(ctx, key, strconv.FormatInt(id, 10), t.cfg.TermTTL).Err(); err != nil {
		t.logger.Warnf("Redis SET failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}
}

// termKey нормализует имя к нижнему регистру: каталог сопоставляет термины
// без учёта регистра.
func (t *TermCacheRepo) termKey(taxonomy, name string) string {
	return fmt.Sprintf("term:%s:%s", taxonomy, strings.ToLower(name))
}
