package channelsync

import (
	"context"

	"bitbucket.org/mmdatafocus/storefront_sync/config"
	"bitbucket.org/mmdatafocus/storefront_sync/models"
)

func (s *Syncer) syncCustomer(ctx context.Context, cfg *config.PlatformConfig, c *models.Customer) error {
	if c.Email == "" {
		return &ValidationError{Kind: models.KindCustomer, Field: "email", Message: "missing"}
	}

	payload := customerToExternal(c)
	externalId := c.ExternalIdFor(cfg.Name)

	var (
		remote *wcCustomer
		err    error
	)
	if externalId != "" {
		remote, err = s.client.UpdateCustomer(ctx, cfg, externalId, payload)
		if isRemoteNotFound(err) {
			remote, err = s.client.CreateCustomer(ctx, cfg, payload)
		}
	} else {
		remote, err = s.client.CreateCustomer(ctx, cfg, payload)
	}
	if err != nil {
		return err
	}

	if newId := externalCustomerId(remote); newId != "" && newId != externalId {
		c.SetExternalId(cfg.Name, newId)
		if err := s.repo.SaveExternalIds(ctx, c, nil); err != nil {
			return err
		}
	}
	return nil
}
