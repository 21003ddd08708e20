package channelsync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/storefront_sync/models"
)

// fakeRepository is an in-memory models.Repository for orchestrator tests.
type fakeRepository struct {
	mu        sync.Mutex
	nextId    int
	products  map[int]*models.Product
	orders    map[int]*models.Order
	customers map[int]*models.Customer
	coupons   map[int]*models.Coupon
	terms     map[int]*models.Term

	savedExternalIds int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		products:  map[int]*models.Product{},
		orders:    map[int]*models.Order{},
		customers: map[int]*models.Customer{},
		coupons:   map[int]*models.Coupon{},
		terms:     map[int]*models.Term{},
	}
}

func (r *fakeRepository) all(kind models.EntityKind) []models.Syncable {
	var out []models.Syncable
	switch kind {
	case models.KindProduct:
		for _, e := range r.products {
			out = append(out, e)
		}
	case models.KindOrder:
		for _, e := range r.orders {
			out = append(out, e)
		}
	case models.KindCustomer:
		for _, e := range r.customers {
			out = append(out, e)
		}
	case models.KindCoupon:
		for _, e := range r.coupons {
			out = append(out, e)
		}
	}
	return out
}

func (r *fakeRepository) FindByExternalId(ctx context.Context, kind models.EntityKind, platform, externalId string) (models.Syncable, error) {
	if externalId == "" {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.all(kind) {
		if e.ExternalIdFor(platform) == externalId {
			return e, nil
		}
	}
	return nil, nil
}

func (r *fakeRepository) FindByNaturalKey(ctx context.Context, kind models.EntityKind, key string) (models.Syncable, error) {
	if key == "" {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.all(kind) {
		if e.NaturalKey() == key {
			return e, nil
		}
	}
	return nil, nil
}

func (r *fakeRepository) Create(ctx context.Context, entity models.Syncable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextId++
	switch e := entity.(type) {
	case *models.Product:
		e.ID = r.nextId
		r.products[e.ID] = e
	case *models.Order:
		e.ID = r.nextId
		r.orders[e.ID] = e
	case *models.Customer:
		e.ID = r.nextId
		r.customers[e.ID] = e
	case *models.Coupon:
		e.ID = r.nextId
		r.coupons[e.ID] = e
	default:
		return fmt.Errorf("unexpected entity %T", entity)
	}
	return nil
}

func (r *fakeRepository) Update(ctx context.Context, entity models.Syncable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch e := entity.(type) {
	case *models.Product:
		r.products[e.ID] = e
	case *models.Order:
		r.orders[e.ID] = e
	case *models.Customer:
		r.customers[e.ID] = e
	case *models.Coupon:
		r.coupons[e.ID] = e
	default:
		return fmt.Errorf("unexpected entity %T", entity)
	}
	return nil
}

func (r *fakeRepository) Delete(ctx context.Context, kind models.EntityKind, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch kind {
	case models.KindProduct:
		delete(r.products, id)
	case models.KindOrder:
		delete(r.orders, id)
	case models.KindCustomer:
		delete(r.customers, id)
	case models.KindCoupon:
		delete(r.coupons, id)
	}
	return nil
}

func (r *fakeRepository) SaveExternalIds(ctx context.Context, entity models.Syncable, rawSnapshot []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.savedExternalIds++
	return nil
}

func (r *fakeRepository) CountByExternalId(ctx context.Context, kind models.EntityKind, platform, externalId string) (int64, error) {
	if externalId == "" {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, e := range r.all(kind) {
		if e.ExternalIdFor(platform) == externalId {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepository) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id], nil
}

func (r *fakeRepository) UpdatedSince(ctx context.Context, kind models.EntityKind, since time.Time, limit int) ([]models.Syncable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.all(kind), nil
}

func (r *fakeRepository) RecentTerms(ctx context.Context, since time.Time, kinds []string) ([]models.Term, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Term
	for _, t := range r.terms {
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeRepository) SaveTermExternalIds(ctx context.Context, term *models.Term) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.terms[term.ID]; ok {
		stored.ExternalIds = term.ExternalIds
	}
	return nil
}

// fakePlatform is an httptest stand-in for a commerce platform. It records
// every request and answers with minimal wc/v3 shapes.
type fakePlatform struct {
	mu       sync.Mutex
	requests []string
	srv      *httptest.Server
	nextId   int64
}

func newFakePlatform(t *testing.T) *fakePlatform {
	t.Helper()
	fp := &fakePlatform{nextId: 100}
	fp.srv = httptest.NewServer(http.HandlerFunc(fp.handle))
	t.Cleanup(fp.srv.Close)
	return fp
}

func (fp *fakePlatform) handle(w http.ResponseWriter, r *http.Request) {
	fp.mu.Lock()
	fp.requests = append(fp.requests, r.Method+" "+r.URL.Path)
	fp.nextId++
	id := fp.nextId
	fp.mu.Unlock()

	if r.Header.Get("Authorization") == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, apiRoot)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && strings.Contains(path, "/terms"):
		json.NewEncoder(w).Encode([]map[string]interface{}{})
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/attributes"):
		json.NewEncoder(w).Encode([]map[string]interface{}{})
	case r.Method == http.MethodGet:
		json.NewEncoder(w).Encode([]map[string]interface{}{})
	case r.Method == http.MethodDelete:
		json.NewEncoder(w).Encode(map[string]interface{}{"id": id})
	case r.Method == http.MethodPut:
		// Echo the path id so updates keep their external id.
		parts := strings.Split(strings.Trim(path, "/"), "/")
		json.NewEncoder(w).Encode(map[string]interface{}{"id": jsonNumberFrom(parts[len(parts)-1])})
	default:
		json.NewEncoder(w).Encode(map[string]interface{}{"id": id})
	}
}

func jsonNumberFrom(s string) json.Number {
	return json.Number(s)
}

func (fp *fakePlatform) requestLog() []string {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	out := make([]string, len(fp.requests))
	copy(out, fp.requests)
	return out
}

// testPlatform wires env so GetPlatformConfig resolves the fake server.
func testPlatform(t *testing.T, baseURL string) string {
	t.Helper()
	t.Setenv("SYNC_PLATFORMS", "teststore")
	t.Setenv("TESTSTORE_API_URL", baseURL)
	t.Setenv("TESTSTORE_CONSUMER_KEY", "ck_test")
	t.Setenv("TESTSTORE_CONSUMER_SECRET", "cs_test")
	return "teststore"
}
