package channelsync

import (
	"context"
	"strconv"

	"bitbucket.org/mmdatafocus/storefront_sync/config"
	"bitbucket.org/mmdatafocus/storefront_sync/models"
)

func (s *Syncer) syncOrder(ctx context.Context, cfg *config.PlatformConfig, o *models.Order) error {
	if o.OrderNumber == "" {
		return &ValidationError{Kind: models.KindOrder, Field: "order_number", Message: "missing"}
	}

	lineItems, err := s.resolveLineItems(ctx, cfg, o)
	if err != nil {
		return err
	}
	if len(lineItems) == 0 {
		// An order with no resolvable line items would be created empty on
		// the platform. Abort before any outbound call.
		return &ValidationError{Kind: models.KindOrder, Field: "line_items", Message: "no line item could be resolved"}
	}

	payload := orderToExternal(o, lineItems)
	externalId := o.ExternalIdFor(cfg.Name)

	var remote *wcOrder
	if externalId != "" {
		remote, err = s.client.UpdateOrder(ctx, cfg, externalId, payload)
		if isRemoteNotFound(err) {
			remote, err = s.client.CreateOrder(ctx, cfg, payload)
		}
	} else {
		remote, err = s.client.CreateOrder(ctx, cfg, payload)
	}
	if err != nil {
		return err
	}

	if newId := externalOrderId(remote); newId != "" && newId != externalId {
		o.SetExternalId(cfg.Name, newId)
		if err := s.repo.SaveExternalIds(ctx, o, nil); err != nil {
			return err
		}
	}
	return nil
}

// resolveLineItems translates each canonical order item into the platform's
// product id. Resolution order: the id stored on the item, then the linked
// canonical product's id map, then an ISBN lookup. A product known canonically
// but absent from the platform triggers exactly one nested product sync.
// Items that still cannot be resolved are dropped with a warning.
func (s *Syncer) resolveLineItems(ctx context.Context, cfg *config.PlatformConfig, o *models.Order) ([]wcLineItem, error) {
	var resolved []wcLineItem
	for _, item := range o.Items {
		externalId := item.ExternalProductId

		var product *models.Product
		if externalId == "" && item.ProductId != 0 {
			p, err := s.repo.GetProduct(ctx, item.ProductId)
			if err != nil {
				return nil, err
			}
			product = p
		}
		if externalId == "" && product == nil && item.Sku != "" {
			entity, err := s.repo.FindByNaturalKey(ctx, models.KindProduct, item.Sku)
			if err != nil {
				return nil, err
			}
			if p, ok := entity.(*models.Product); ok {
				product = p
			}
		}
		if externalId == "" && product != nil {
			externalId = product.ExternalIdFor(cfg.Name)
			if externalId == "" {
				if err := s.cascadeProduct(ctx, cfg, product); err != nil {
					return nil, err
				}
				externalId = product.ExternalIdFor(cfg.Name)
			}
		}

		if externalId == "" {
			config.LogWarn(s.logger, moduleName, "resolveLineItems", cfg.Name, map[string]interface{}{
				"orderNumber": o.OrderNumber, "sku": item.Sku,
			}, "line item could not be resolved, dropped")
			continue
		}

		productId, err := strconv.ParseInt(externalId, 10, 64)
		if err != nil {
			config.LogWarn(s.logger, moduleName, "resolveLineItems", cfg.Name, map[string]interface{}{
				"orderNumber": o.OrderNumber, "sku": item.Sku, "externalId": externalId,
			}, "non-numeric external product id, dropped")
			continue
		}

		quantity := item.Quantity
		if quantity == 0 {
			quantity = 1
		}
		line := wcLineItem{
			ProductID: productId,
			Sku:       item.Sku,
			Quantity:  quantity,
		}
		if !item.Total.IsZero() {
			line.Total = item.Total.String()
		}
		resolved = append(resolved, line)
	}
	return resolved, nil
}

// cascadeProduct pushes a missing product so the order can reference it.
// Runs under the product's own lock at depth 1, so a nested order inside a
// product sync can never start a second cascade.
func (s *Syncer) cascadeProduct(ctx context.Context, cfg *config.PlatformConfig, p *models.Product) error {
	unlock := s.lockEntity(ctx, models.KindProduct, p.ID, cfg.Name)
	defer unlock()
	return s.syncProduct(ctx, cfg, p, 1)
}
