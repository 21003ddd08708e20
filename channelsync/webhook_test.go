package channelsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/storefront_sync/models"
)

func webhookRouter(s *Syncer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhook/:platform/:entity", WebhookHandler(s))
	return r
}

func postWebhook(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookPingShortCircuits(t *testing.T) {
	repo := newFakeRepository()
	r := webhookRouter(newTestSyncer(repo))

	w := postWebhook(t, r, "/webhook/shop/products", `{"webhook_id": "42"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			WebhookId string `json:"webhook_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Data.WebhookId != "42" {
		t.Fatalf("response = %s", w.Body.String())
	}
	if len(repo.products) != 0 || repo.savedExternalIds != 0 {
		t.Fatal("ping caused a write")
	}
}

func TestWebhookInvalidJSON(t *testing.T) {
	r := webhookRouter(newTestSyncer(newFakeRepository()))
	w := postWebhook(t, r, "/webhook/shop/products", `{"oops`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestWebhookUnknownEntity(t *testing.T) {
	r := webhookRouter(newTestSyncer(newFakeRepository()))
	w := postWebhook(t, r, "/webhook/shop/widgets", `{"id": 1}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestWebhookCreatesProduct(t *testing.T) {
	repo := newFakeRepository()
	r := webhookRouter(newTestSyncer(repo))

	w := postWebhook(t, r, "/webhook/shop/products", `{"id": 10, "sku": "978111", "name": "Inbound Book"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if len(repo.products) != 1 {
		t.Fatalf("products = %d", len(repo.products))
	}
	for _, p := range repo.products {
		if p.ISBN != "978111" || p.ExternalIdFor("shop") != "10" {
			t.Fatalf("stored product = %+v", p)
		}
	}
}

func TestWebhookUpdatesByExternalId(t *testing.T) {
	repo := newFakeRepository()
	existing := &models.Product{ID: 1, ISBN: "978111", Name: "Old"}
	existing.SetExternalId("shop", "10")
	repo.products[existing.ID] = existing
	r := webhookRouter(newTestSyncer(repo))

	w := postWebhook(t, r, "/webhook/shop/products", `{"id": 10, "sku": "978999", "name": "Renamed"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if len(repo.products) != 1 {
		t.Fatalf("update created a duplicate: %d products", len(repo.products))
	}
	if existing.Name != "Renamed" {
		t.Fatalf("name = %q", existing.Name)
	}
	if existing.ISBN != "978111" {
		t.Fatalf("protected isbn overwritten: %q", existing.ISBN)
	}
}

func TestWebhookEnvelopeShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"data object", `{"data": {"id": 20, "sku": "978222"}}`},
		{"data array", `{"data": [{"id": 21, "sku": "978223"}]}`},
		{"entity key", `{"product": {"id": 22, "sku": "978224"}}`},
		{"bare array", `[{"id": 23, "sku": "978225"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepository()
			r := webhookRouter(newTestSyncer(repo))
			w := postWebhook(t, r, "/webhook/shop/products", tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
			}
			if len(repo.products) != 1 {
				t.Fatalf("products = %d", len(repo.products))
			}
		})
	}
}

func TestWebhookDeduplicatesBurst(t *testing.T) {
	repo := newFakeRepository()
	r := webhookRouter(newTestSyncer(repo))

	w := postWebhook(t, r, "/webhook/shop/products",
		`{"data": [{"id": 30, "sku": "978333"}, {"id": 30, "sku": "978333"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(repo.products) != 1 {
		t.Fatalf("burst duplicate applied twice: %d products", len(repo.products))
	}
}

func TestWebhookMissingNaturalKey(t *testing.T) {
	repo := newFakeRepository()
	r := webhookRouter(newTestSyncer(repo))

	w := postWebhook(t, r, "/webhook/shop/products", `{"id": 40, "name": "No SKU"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if len(repo.products) != 0 {
		t.Fatal("invalid payload was persisted")
	}
}

type captureHook struct {
	mu      sync.Mutex
	entries []*logrus.Entry
}

func (h *captureHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *captureHook) Fire(e *logrus.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
	return nil
}

func TestWebhookFailureLogsRawPayload(t *testing.T) {
	s := newTestSyncer(newFakeRepository())
	hook := &captureHook{}
	s.logger.AddHook(hook)
	r := webhookRouter(s)

	body := `{"id": 40, "name": "No SKU"}`
	w := postWebhook(t, r, "/webhook/shop/products", body)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}

	var logged string
	hook.mu.Lock()
	for _, e := range hook.entries {
		if data, ok := e.Data["data"].(map[string]interface{}); ok {
			if p, ok := data["payload"].(string); ok {
				logged = p
			}
		}
	}
	hook.mu.Unlock()
	if logged != body {
		t.Fatalf("raw payload not logged, got %q", logged)
	}
}

func TestApplyInboundMatchesByNaturalKey(t *testing.T) {
	repo := newFakeRepository()
	existing := &models.Customer{ID: 1, Email: "ana@example.com", FirstName: "Ana"}
	repo.customers[existing.ID] = existing
	s := newTestSyncer(repo)

	obj := decode(t, `{"id": 500, "email": "ana@example.com", "last_name": "Garcia"}`)
	created, err := s.ApplyInbound(context.Background(), "shop", models.KindCustomer, obj)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if created {
		t.Fatal("matched customer reported as created")
	}
	if existing.ExternalIdFor("shop") != "500" {
		t.Fatalf("external id not linked: %q", existing.ExternalIdFor("shop"))
	}
	if existing.LastName != "Garcia" {
		t.Fatalf("last name = %q", existing.LastName)
	}
}
