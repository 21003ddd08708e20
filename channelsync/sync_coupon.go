package channelsync

import (
	"context"

	"bitbucket.org/mmdatafocus/storefront_sync/config"
	"bitbucket.org/mmdatafocus/storefront_sync/models"
)

func (s *Syncer) syncCoupon(ctx context.Context, cfg *config.PlatformConfig, c *models.Coupon) error {
	if c.Code == "" {
		return &ValidationError{Kind: models.KindCoupon, Field: "code", Message: "missing"}
	}

	payload := couponToExternal(c)
	externalId := c.ExternalIdFor(cfg.Name)

	var (
		remote *wcCoupon
		err    error
	)
	if externalId != "" {
		remote, err = s.client.UpdateCoupon(ctx, cfg, externalId, payload)
		if isRemoteNotFound(err) {
			remote, err = s.client.CreateCoupon(ctx, cfg, payload)
		}
	} else {
		remote, err = s.client.CreateCoupon(ctx, cfg, payload)
	}
	if err != nil {
		return err
	}

	if newId := externalCouponId(remote); newId != "" && newId != externalId {
		c.SetExternalId(cfg.Name, newId)
		if err := s.repo.SaveExternalIds(ctx, c, nil); err != nil {
			return err
		}
	}
	return nil
}
