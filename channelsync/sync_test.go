package channelsync

import (
	"context"
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/storefront_sync/models"
	"bitbucket.org/mmdatafocus/storefront_sync/utils"
)

func newTestSyncer(repo *fakeRepository) *Syncer {
	return NewSyncer(repo, NewClient())
}

func TestSyncProductCreatesThenUpdates(t *testing.T) {
	fp := newFakePlatform(t)
	platform := testPlatform(t, fp.srv.URL)
	repo := newFakeRepository()
	s := newTestSyncer(repo)

	p := &models.Product{ID: 1, ISBN: "978111", Name: "Book", Published: utils.NewTrue()}
	repo.products[p.ID] = p

	if err := s.SyncEntity(context.Background(), p, platform); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if p.ExternalIdFor(platform) == "" {
		t.Fatal("external id not recorded after create")
	}
	if repo.savedExternalIds != 1 {
		t.Fatalf("SaveExternalIds calls = %d, want 1", repo.savedExternalIds)
	}

	if err := s.SyncEntity(context.Background(), p, platform); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	log := fp.requestLog()
	if len(log) != 2 {
		t.Fatalf("requests = %v", log)
	}
	if log[0] != "POST /wp-json/wc/v3/products" {
		t.Fatalf("first request = %q, want POST create", log[0])
	}
	want := "PUT /wp-json/wc/v3/products/" + p.ExternalIdFor(platform)
	if log[1] != want {
		t.Fatalf("second request = %q, want %q", log[1], want)
	}
}

func TestSyncProductMissingISBN(t *testing.T) {
	fp := newFakePlatform(t)
	platform := testPlatform(t, fp.srv.URL)
	s := newTestSyncer(newFakeRepository())

	err := s.SyncEntity(context.Background(), &models.Product{ID: 1, Name: "No ISBN"}, platform)
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "isbn" {
		t.Fatalf("expected isbn validation error, got %v", err)
	}
	if len(fp.requestLog()) != 0 {
		t.Fatalf("outbound call made for invalid product: %v", fp.requestLog())
	}
}

func TestSyncEntityNotChanneled(t *testing.T) {
	fp := newFakePlatform(t)
	platform := testPlatform(t, fp.srv.URL)
	s := newTestSyncer(newFakeRepository())

	p := &models.Product{ID: 1, ISBN: "978111", Channels: models.StringList{"otherstore"}}
	if err := s.SyncEntity(context.Background(), p, platform); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fp.requestLog()) != 0 {
		t.Fatalf("channel filter ignored: %v", fp.requestLog())
	}
}

func TestSyncEntityUnconfiguredPlatform(t *testing.T) {
	s := newTestSyncer(newFakeRepository())
	err := s.SyncEntity(context.Background(), &models.Product{ID: 1, ISBN: "978111"}, "ghost")
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSyncOrderUnresolvableItemsAborts(t *testing.T) {
	fp := newFakePlatform(t)
	platform := testPlatform(t, fp.srv.URL)
	s := newTestSyncer(newFakeRepository())

	o := &models.Order{
		ID:          1,
		OrderNumber: "ORD-1",
		Items:       []models.OrderItem{{Sku: "unknown-sku", Quantity: 1}},
	}
	err := s.SyncEntity(context.Background(), o, platform)
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "line_items" {
		t.Fatalf("expected line_items validation error, got %v", err)
	}
	if len(fp.requestLog()) != 0 {
		t.Fatalf("outbound call made despite unresolved items: %v", fp.requestLog())
	}
}

func TestSyncOrderWithoutItemsAborts(t *testing.T) {
	fp := newFakePlatform(t)
	platform := testPlatform(t, fp.srv.URL)
	s := newTestSyncer(newFakeRepository())

	o := &models.Order{ID: 1, OrderNumber: "ORD-EMPTY"}
	err := s.SyncEntity(context.Background(), o, platform)
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "line_items" {
		t.Fatalf("expected line_items validation error, got %v", err)
	}
	if len(fp.requestLog()) != 0 {
		t.Fatalf("empty order pushed to the platform: %v", fp.requestLog())
	}
}

func TestSyncOrderCascadesMissingProduct(t *testing.T) {
	fp := newFakePlatform(t)
	platform := testPlatform(t, fp.srv.URL)
	repo := newFakeRepository()
	s := newTestSyncer(repo)

	p := &models.Product{ID: 5, ISBN: "978555", Name: "Cascade Book", Published: utils.NewTrue()}
	repo.products[p.ID] = p

	o := &models.Order{
		ID:          1,
		OrderNumber: "ORD-2",
		Items:       []models.OrderItem{{ProductId: 5, Sku: "978555", Quantity: 1}},
	}
	if err := s.SyncEntity(context.Background(), o, platform); err != nil {
		t.Fatalf("sync order: %v", err)
	}

	log := fp.requestLog()
	if len(log) != 2 {
		t.Fatalf("requests = %v, want product create then order create", log)
	}
	if log[0] != "POST /wp-json/wc/v3/products" || log[1] != "POST /wp-json/wc/v3/orders" {
		t.Fatalf("unexpected request order: %v", log)
	}
	if p.ExternalIdFor(platform) == "" {
		t.Fatal("cascaded product did not record its external id")
	}
}

func TestSyncOrderUsesStoredExternalProductId(t *testing.T) {
	fp := newFakePlatform(t)
	platform := testPlatform(t, fp.srv.URL)
	s := newTestSyncer(newFakeRepository())

	o := &models.Order{
		ID:          2,
		OrderNumber: "ORD-3",
		Items:       []models.OrderItem{{ExternalProductId: "77", Sku: "978777", Quantity: 2}},
	}
	if err := s.SyncEntity(context.Background(), o, platform); err != nil {
		t.Fatalf("sync order: %v", err)
	}
	log := fp.requestLog()
	if len(log) != 1 || log[0] != "POST /wp-json/wc/v3/orders" {
		t.Fatalf("requests = %v, want single order create", log)
	}
}

func TestDeleteRemoteSkipsWithoutExternalId(t *testing.T) {
	fp := newFakePlatform(t)
	platform := testPlatform(t, fp.srv.URL)
	s := newTestSyncer(newFakeRepository())

	p := &models.Product{ID: 1, ISBN: "978111"}
	if err := s.DeleteRemote(context.Background(), p, platform); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(fp.requestLog()) != 0 {
		t.Fatalf("delete issued without external id: %v", fp.requestLog())
	}
}

func TestDeleteRemoteSkipsSharedExternalId(t *testing.T) {
	fp := newFakePlatform(t)
	platform := testPlatform(t, fp.srv.URL)
	repo := newFakeRepository()
	s := newTestSyncer(repo)

	survivor := &models.Product{ID: 2, ISBN: "978222"}
	survivor.SetExternalId(platform, "300")
	repo.products[survivor.ID] = survivor

	deleted := &models.Product{ID: 9, ISBN: "978999"}
	deleted.SetExternalId(platform, "300")

	if err := s.DeleteRemote(context.Background(), deleted, platform); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(fp.requestLog()) != 0 {
		t.Fatalf("shared external id deleted remotely: %v", fp.requestLog())
	}
}

func TestDeleteRemoteIssuesForcedDelete(t *testing.T) {
	fp := newFakePlatform(t)
	platform := testPlatform(t, fp.srv.URL)
	s := newTestSyncer(newFakeRepository())

	p := &models.Product{ID: 3, ISBN: "978333"}
	p.SetExternalId(platform, "88")

	if err := s.DeleteRemote(context.Background(), p, platform); err != nil {
		t.Fatalf("delete: %v", err)
	}
	log := fp.requestLog()
	if len(log) != 1 || log[0] != "DELETE /wp-json/wc/v3/products/88" {
		t.Fatalf("requests = %v", log)
	}
}

func TestSyncCouponNormalizesOutbound(t *testing.T) {
	fp := newFakePlatform(t)
	platform := testPlatform(t, fp.srv.URL)
	s := newTestSyncer(newFakeRepository())

	c := &models.Coupon{ID: 1, Code: "VERANO10", DiscountType: "porcentaje"}
	if err := s.SyncEntity(context.Background(), c, platform); err != nil {
		t.Fatalf("sync coupon: %v", err)
	}
	if len(fp.requestLog()) != 1 {
		t.Fatalf("requests = %v", fp.requestLog())
	}
}
