package channelsync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/storefront_sync/config"
	"bitbucket.org/mmdatafocus/storefront_sync/models"
)

// Platforms deliver the same entity wrapped in several envelope shapes, and
// ping deliveries carry only a webhook id. extractWebhookObjects tries each
// shape in order and flattens everything to raw objects.

type webhookPayload struct {
	// PingId is set when the delivery is a subscription ping. Pings are
	// acknowledged and never written.
	PingId  string
	Objects []map[string]interface{}
}

func extractWebhookObjects(root interface{}, entityName string) *webhookPayload {
	switch v := root.(type) {
	case map[string]interface{}:
		if pingId := asString(v["webhook_id"]); pingId != "" && len(v) == 1 {
			return &webhookPayload{PingId: pingId}
		}
		if obj := getMap(v, "data"); obj != nil {
			return &webhookPayload{Objects: []map[string]interface{}{obj}}
		}
		if list := getSlice(v, "data"); list != nil {
			return &webhookPayload{Objects: objectsFrom(list)}
		}
		if obj := getMap(v, entityName); obj != nil {
			return &webhookPayload{Objects: []map[string]interface{}{obj}}
		}
		if _, ok := v["id"]; ok {
			return &webhookPayload{Objects: []map[string]interface{}{v}}
		}
		return &webhookPayload{}
	case []interface{}:
		return &webhookPayload{Objects: objectsFrom(v)}
	default:
		return &webhookPayload{}
	}
}

func objectsFrom(list []interface{}) []map[string]interface{} {
	var objs []map[string]interface{}
	for _, raw := range list {
		if obj, ok := raw.(map[string]interface{}); ok {
			objs = append(objs, obj)
		}
	}
	return objs
}

func kindFromResource(resource string) (models.EntityKind, bool) {
	switch strings.ToLower(strings.TrimSpace(resource)) {
	case "product", "products":
		return models.KindProduct, true
	case "order", "orders":
		return models.KindOrder, true
	case "customer", "customers":
		return models.KindCustomer, true
	case "coupon", "coupons":
		return models.KindCoupon, true
	default:
		return "", false
	}
}

// inboundNaturalKey pulls the natural key out of a raw inbound object so an
// entity with no stored external id can still be matched.
func inboundNaturalKey(kind models.EntityKind, obj map[string]interface{}) string {
	switch kind {
	case models.KindProduct:
		return getString(obj, "sku", "isbn")
	case models.KindOrder:
		if key := getString(obj, "number", "order_number"); key != "" {
			return key
		}
		return metaValue(obj, "order_number")
	case models.KindCustomer:
		return getString(obj, "email", "correo")
	case models.KindCoupon:
		return getString(obj, "code", "codigo")
	default:
		return ""
	}
}

// ApplyInbound upserts one raw platform object into the canonical store.
// Matching is by external id first, then natural key. Returns whether a new
// canonical record was created.
func (s *Syncer) ApplyInbound(ctx context.Context, platform string, kind models.EntityKind, obj map[string]interface{}) (bool, error) {
	externalId := asString(obj["id"])

	if externalId != "" {
		unlock := s.locks.Lock(fmt.Sprintf("inbound:%s:%s:%s", kind, platform, externalId))
		defer unlock()
	}

	existing, err := s.repo.FindByExternalId(ctx, kind, platform, externalId)
	if err != nil {
		return false, err
	}
	if existing == nil {
		existing, err = s.repo.FindByNaturalKey(ctx, kind, inboundNaturalKey(kind, obj))
		if err != nil {
			return false, err
		}
	}

	entity, err := mapInbound(kind, obj, platform, existing)
	if err != nil {
		return false, err
	}
	if entity.NaturalKey() == "" {
		return false, &ValidationError{Kind: kind, Field: "natural_key", Message: "missing on inbound payload"}
	}

	rawSnapshot, _ := json.Marshal(obj)

	if existing == nil {
		if err := s.repo.Create(ctx, entity); err != nil {
			if !models.IsDuplicateKeyError(err) {
				return false, err
			}
			// Lost an insert race on the natural key; redo as an update
			// against the winner's row.
			existing, ferr := s.repo.FindByNaturalKey(ctx, kind, entity.NaturalKey())
			if ferr != nil {
				return false, ferr
			}
			if existing == nil {
				return false, err
			}
			entity, err = mapInbound(kind, obj, platform, existing)
			if err != nil {
				return false, err
			}
		} else {
			return true, s.repo.SaveExternalIds(ctx, entity, rawSnapshot)
		}
	}
	if err := s.repo.Update(ctx, entity); err != nil {
		return false, err
	}
	return false, s.repo.SaveExternalIds(ctx, entity, rawSnapshot)
}

func mapInbound(kind models.EntityKind, obj map[string]interface{}, platform string, existing models.Syncable) (models.Syncable, error) {
	switch kind {
	case models.KindProduct:
		prev, _ := existing.(*models.Product)
		return productFromExternal(obj, platform, prev), nil
	case models.KindOrder:
		prev, _ := existing.(*models.Order)
		return orderFromExternal(obj, platform, prev), nil
	case models.KindCustomer:
		prev, _ := existing.(*models.Customer)
		return customerFromExternal(obj, platform, prev), nil
	case models.KindCoupon:
		prev, _ := existing.(*models.Coupon)
		return couponFromExternal(obj, platform, prev), nil
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

// WebhookHandler receives platform deliveries on
// POST /webhook/:platform/:entity. Contract: 200 with a summary on success
// (pings included), 400 on undecodable payloads, 500 when a write fails.
func WebhookHandler(s *Syncer) gin.HandlerFunc {
	return func(c *gin.Context) {
		platform := strings.ToLower(strings.TrimSpace(c.Param("platform")))
		kind, ok := kindFromResource(c.Param("entity"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "unknown entity type"})
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil || len(body) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "empty body"})
			return
		}
		var root interface{}
		if err := json.Unmarshal(body, &root); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid json"})
			return
		}

		payload := extractWebhookObjects(root, string(kind))
		if payload.PingId != "" {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"message": "webhook ping acknowledged",
				"data":    gin.H{"webhook_id": payload.PingId},
			})
			return
		}
		if len(payload.Objects) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "no entity payload found"})
			return
		}

		var created, updated int
		seen := map[string]bool{}
		for _, obj := range payload.Objects {
			// A burst delivery can repeat the same object; apply it once.
			if externalId := asString(obj["id"]); externalId != "" {
				if seen[externalId] {
					continue
				}
				seen[externalId] = true
			}

			wasCreated, err := s.ApplyInbound(c.Request.Context(), platform, kind, obj)
			if err != nil {
				// The raw body goes into the log so a failed delivery can
				// be replayed by hand.
				config.LogError(s.logger, moduleName, "WebhookHandler", platform, map[string]interface{}{
					"kind": kind, "externalId": asString(obj["id"]), "payload": string(body),
				}, err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
				return
			}
			if wasCreated {
				created++
			} else {
				updated++
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": fmt.Sprintf("%s webhook processed", kind),
			"data":    gin.H{"created": created, "updated": updated},
		})
	}
}
