package channelsync

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/storefront_sync/config"
	"bitbucket.org/mmdatafocus/storefront_sync/models"
)

const moduleName = "channelsync"

// Syncer pushes canonical entities to the configured platforms and pulls
// platform writes back through the webhook and import paths. One Syncer is
// shared by the whole process.
type Syncer struct {
	repo   models.Repository
	client *Client
	logger *logrus.Logger
	locks  *keyedMutex
	sem    chan struct{}
}

func NewSyncer(repo models.Repository, client *Client) *Syncer {
	maxConcurrent := 4
	if v := strings.TrimSpace(os.Getenv("SYNC_MAX_CONCURRENT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxConcurrent = n
		}
	}
	return &Syncer{
		repo:   repo,
		client: client,
		logger: config.GetLogger(),
		locks:  newKeyedMutex(),
		sem:    make(chan struct{}, maxConcurrent),
	}
}

func (s *Syncer) Repository() models.Repository {
	return s.repo
}

func entityLockKey(kind models.EntityKind, id int, platform string) string {
	return fmt.Sprintf("sync:%s:%d:%s", kind, id, platform)
}

// lockEntity serializes sync work per (entity, platform). The in-process mutex
// is the real guard; the Redis lock is a best-effort extension across replicas
// and never blocks the sync when Redis is down.
func (s *Syncer) lockEntity(ctx context.Context, kind models.EntityKind, id int, platform string) func() {
	key := entityLockKey(kind, id, platform)
	unlock := s.locks.Lock(key)

	var distLock *redislock.Lock
	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, key, 2*time.Minute, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(250*time.Millisecond), 8),
		})
		if err == nil {
			distLock = lock
		}
	}

	return func() {
		if distLock != nil {
			_ = distLock.Release(ctx)
		}
		unlock()
	}
}

// SyncEntity pushes one entity to one platform. A disabled platform yields a
// ConfigurationError; a platform outside the entity's channel list is a
// silent no-op.
func (s *Syncer) SyncEntity(ctx context.Context, entity models.Syncable, platform string) error {
	if !entity.Channeled(platform) {
		return nil
	}
	cfg := config.GetPlatformConfig(platform)
	if cfg == nil {
		return &ConfigurationError{Platform: platform}
	}

	unlock := s.lockEntity(ctx, entity.Kind(), entity.EntityID(), platform)
	defer unlock()

	switch e := entity.(type) {
	case *models.Product:
		return s.syncProduct(ctx, cfg, e, 0)
	case *models.Order:
		return s.syncOrder(ctx, cfg, e)
	case *models.Customer:
		return s.syncCustomer(ctx, cfg, e)
	case *models.Coupon:
		return s.syncCoupon(ctx, cfg, e)
	default:
		return fmt.Errorf("unsyncable entity kind %q", entity.Kind())
	}
}

// SyncEntityAll pushes one entity to every enabled platform it is channeled
// to. One platform failing does not stop the others; the first error is
// returned after all platforms have been attempted.
func (s *Syncer) SyncEntityAll(ctx context.Context, entity models.Syncable) error {
	var firstErr error
	for _, platform := range config.Platforms() {
		if err := s.SyncEntity(ctx, entity, platform); err != nil {
			config.LogError(s.logger, moduleName, "SyncEntityAll", platform, map[string]interface{}{
				"kind": entity.Kind(), "id": entity.EntityID(),
			}, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// OnEntityWrite is the fire-and-forget hook called after a canonical write.
// The caller's request does not wait on platform round trips; failures are
// logged and picked up by the next queued run.
func (s *Syncer) OnEntityWrite(entity models.Syncable) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				config.LogError(s.logger, moduleName, "OnEntityWrite", "panic", map[string]interface{}{
					"kind": entity.Kind(), "id": entity.EntityID(),
				}, fmt.Errorf("%v", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		s.sem <- struct{}{}
		defer func() { <-s.sem }()

		_ = s.SyncEntityAll(ctx, entity)
	}()
}

// DeleteRemote removes the entity's remote copy on one platform. Entities
// without an external id were never pushed, so there is nothing to delete.
// Shared external ids are left alone: another canonical record still points
// at the remote object.
func (s *Syncer) DeleteRemote(ctx context.Context, entity models.Syncable, platform string) error {
	cfg := config.GetPlatformConfig(platform)
	if cfg == nil {
		return &ConfigurationError{Platform: platform}
	}

	externalId := entity.ExternalIdFor(platform)
	if externalId == "" {
		config.LogWarn(s.logger, moduleName, "DeleteRemote", platform, map[string]interface{}{
			"kind": entity.Kind(), "id": entity.EntityID(),
		}, "no external id, remote delete skipped")
		return nil
	}

	count, err := s.repo.CountByExternalId(ctx, entity.Kind(), platform, externalId)
	if err != nil {
		return err
	}
	if count > 0 {
		config.LogWarn(s.logger, moduleName, "DeleteRemote", platform, map[string]interface{}{
			"kind": entity.Kind(), "externalId": externalId, "holders": count,
		}, "external id still referenced, remote delete skipped")
		return nil
	}

	unlock := s.lockEntity(ctx, entity.Kind(), entity.EntityID(), platform)
	defer unlock()

	switch entity.Kind() {
	case models.KindProduct:
		return s.client.DeleteProduct(ctx, cfg, externalId)
	case models.KindOrder:
		return s.client.DeleteOrder(ctx, cfg, externalId)
	case models.KindCustomer:
		return s.client.DeleteCustomer(ctx, cfg, externalId)
	case models.KindCoupon:
		return s.client.DeleteCoupon(ctx, cfg, externalId)
	default:
		return fmt.Errorf("unsyncable entity kind %q", entity.Kind())
	}
}

// OnEntityDelete is the fire-and-forget counterpart of OnEntityWrite for
// canonical deletions. Call it after the canonical row is gone.
func (s *Syncer) OnEntityDelete(entity models.Syncable) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				config.LogError(s.logger, moduleName, "OnEntityDelete", "panic", map[string]interface{}{
					"kind": entity.Kind(), "id": entity.EntityID(),
				}, fmt.Errorf("%v", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		s.sem <- struct{}{}
		defer func() { <-s.sem }()

		_ = s.DeleteRemoteAll(ctx, entity)
	}()
}

// DeleteRemoteAll fans the delete out to every platform carrying an id.
func (s *Syncer) DeleteRemoteAll(ctx context.Context, entity models.Syncable) error {
	var firstErr error
	for _, platform := range config.Platforms() {
		if err := s.DeleteRemote(ctx, entity, platform); err != nil {
			config.LogError(s.logger, moduleName, "DeleteRemoteAll", platform, map[string]interface{}{
				"kind": entity.Kind(), "id": entity.EntityID(),
			}, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
