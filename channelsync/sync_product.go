package channelsync

import (
	"context"

	"bitbucket.org/mmdatafocus/storefront_sync/config"
	"bitbucket.org/mmdatafocus/storefront_sync/models"
)

// syncProduct pushes one product to one platform. depth tracks how far down a
// line-item cascade we are: a direct sync is 0, a product synced to satisfy an
// order line is 1, and anything deeper is refused.
func (s *Syncer) syncProduct(ctx context.Context, cfg *config.PlatformConfig, p *models.Product, depth int) error {
	if depth > 1 {
		return &CascadeDepthExceeded{Sku: p.ISBN}
	}
	if p.ISBN == "" {
		return &ValidationError{Kind: models.KindProduct, Field: "isbn", Message: "missing"}
	}

	payload := productToExternal(p)
	externalId := p.ExternalIdFor(cfg.Name)

	var (
		remote *wcProduct
		err    error
	)
	if externalId != "" {
		remote, err = s.client.UpdateProduct(ctx, cfg, externalId, payload)
		if isRemoteNotFound(err) {
			// The remote copy was deleted out from under us; recreate it and
			// let the new id replace the stale one.
			remote, err = s.client.CreateProduct(ctx, cfg, payload)
		}
	} else {
		remote, err = s.client.CreateProduct(ctx, cfg, payload)
	}
	if err != nil {
		return err
	}

	if newId := externalProductId(remote); newId != "" && newId != externalId {
		p.SetExternalId(cfg.Name, newId)
		if err := s.repo.SaveExternalIds(ctx, p, nil); err != nil {
			return err
		}
	}
	return nil
}
