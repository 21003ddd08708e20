package channelsync

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/storefront_sync/config"
)

const apiRoot = "/wp-json/wc/v3"

// Client is the generic authenticated REST client shared by all platforms.
// The platform is selected per call through its PlatformConfig. It owns the
// attribute/term taxonomy cache.
type Client struct {
	http  *http.Client
	cache *TaxonomyCache
}

func NewClient() *Client {
	return &Client{
		http:  &http.Client{Timeout: 30 * time.Second},
		cache: NewTaxonomyCache(),
	}
}

func (c *Client) Cache() *TaxonomyCache {
	return c.cache
}

func basicAuth(cfg *config.PlatformConfig) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.ConsumerKey+":"+cfg.ConsumerSecret))
}

func (c *Client) do(ctx context.Context, cfg *config.PlatformConfig, method, path string, body interface{}, query url.Values) ([]byte, error) {
	endpoint := cfg.URL + apiRoot + path
	if len(query) > 0 {
		endpoint = endpoint + "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", basicAuth(cfg))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteApiError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	return respBody, nil
}

func (c *Client) Get(ctx context.Context, cfg *config.PlatformConfig, path string, query url.Values) ([]byte, error) {
	return c.do(ctx, cfg, http.MethodGet, path, nil, query)
}

func (c *Client) Post(ctx context.Context, cfg *config.PlatformConfig, path string, body interface{}) ([]byte, error) {
	return c.do(ctx, cfg, http.MethodPost, path, body, nil)
}

func (c *Client) Put(ctx context.Context, cfg *config.PlatformConfig, path string, body interface{}) ([]byte, error) {
	return c.do(ctx, cfg, http.MethodPut, path, body, nil)
}

// Delete issues a forced delete. A 404 means the remote copy is already gone,
// which is the outcome a delete wants: swallowed, not propagated.
func (c *Client) Delete(ctx context.Context, cfg *config.PlatformConfig, path string) error {
	query := url.Values{}
	query.Set("force", "true")
	_, err := c.do(ctx, cfg, http.MethodDelete, path, nil, query)
	if err != nil && isRemoteNotFound(err) {
		return nil
	}
	return err
}

func i64str(id int64) string {
	return strconv.FormatInt(id, 10)
}

// --- typed helpers ---

func (c *Client) CreateProduct(ctx context.Context, cfg *config.PlatformConfig, payload wcProduct) (*wcProduct, error) {
	body, err := c.Post(ctx, cfg, "/products", payload)
	if err != nil {
		return nil, err
	}
	var created wcProduct
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateProduct(ctx context.Context, cfg *config.PlatformConfig, externalId string, payload wcProduct) (*wcProduct, error) {
	body, err := c.Put(ctx, cfg, "/products/"+externalId, payload)
	if err != nil {
		return nil, err
	}
	var updated wcProduct
	if err := json.Unmarshal(body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteProduct(ctx context.Context, cfg *config.PlatformConfig, externalId string) error {
	return c.Delete(ctx, cfg, "/products/"+externalId)
}

func (c *Client) CreateOrder(ctx context.Context, cfg *config.PlatformConfig, payload wcOrder) (*wcOrder, error) {
	body, err := c.Post(ctx, cfg, "/orders", payload)
	if err != nil {
		return nil, err
	}
	var created wcOrder
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateOrder(ctx context.Context, cfg *config.PlatformConfig, externalId string, payload wcOrder) (*wcOrder, error) {
	body, err := c.Put(ctx, cfg, "/orders/"+externalId, payload)
	if err != nil {
		return nil, err
	}
	var updated wcOrder
	if err := json.Unmarshal(body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteOrder(ctx context.Context, cfg *config.PlatformConfig, externalId string) error {
	return c.Delete(ctx, cfg, "/orders/"+externalId)
}

func (c *Client) CreateCustomer(ctx context.Context, cfg *config.PlatformConfig, payload wcCustomer) (*wcCustomer, error) {
	body, err := c.Post(ctx, cfg, "/customers", payload)
	if err != nil {
		return nil, err
	}
	var created wcCustomer
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateCustomer(ctx context.Context, cfg *config.PlatformConfig, externalId string, payload wcCustomer) (*wcCustomer, error) {
	body, err := c.Put(ctx, cfg, "/customers/"+externalId, payload)
	if err != nil {
		return nil, err
	}
	var updated wcCustomer
	if err := json.Unmarshal(body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteCustomer(ctx context.Context, cfg *config.PlatformConfig, externalId string) error {
	return c.Delete(ctx, cfg, "/customers/"+externalId)
}

func (c *Client) CreateCoupon(ctx context.Context, cfg *config.PlatformConfig, payload wcCoupon) (*wcCoupon, error) {
	body, err := c.Post(ctx, cfg, "/coupons", payload)
	if err != nil {
		return nil, err
	}
	var created wcCoupon
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateCoupon(ctx context.Context, cfg *config.PlatformConfig, externalId string, payload wcCoupon) (*wcCoupon, error) {
	body, err := c.Put(ctx, cfg, "/coupons/"+externalId, payload)
	if err != nil {
		return nil, err
	}
	var updated wcCoupon
	if err := json.Unmarshal(body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteCoupon(ctx context.Context, cfg *config.PlatformConfig, externalId string) error {
	return c.Delete(ctx, cfg, "/coupons/"+externalId)
}

// List pages through a resource collection. Objects come back as raw maps so
// the shared payload extractors and reverse mappers can be reused.
func (c *Client) List(ctx context.Context, cfg *config.PlatformConfig, resource string, page, perPage int) ([]map[string]interface{}, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))
	body, err := c.Get(ctx, cfg, "/"+resource, query)
	if err != nil {
		return nil, err
	}
	var objs []map[string]interface{}
	if err := json.Unmarshal(body, &objs); err != nil {
		return nil, err
	}
	return objs, nil
}

// --- attribute/term lookup-or-create ---

// GetOrCreateAttribute resolves a global product attribute id, checking the
// cache, then the remote list, then creating it. A create that races another
// caller falls back to one re-list; duplicates converge on the next sync.
func (c *Client) GetOrCreateAttribute(ctx context.Context, cfg *config.PlatformConfig, name, slug string) (int64, error) {
	if id, ok := c.cache.GetAttribute(cfg.Name, name); ok {
		return id, nil
	}

	if id, err := c.findAttribute(ctx, cfg, name, slug); err != nil {
		return 0, err
	} else if id != 0 {
		c.cache.SetAttribute(cfg.Name, name, id)
		return id, nil
	}

	body, err := c.Post(ctx, cfg, "/products/attributes", wcAttribute{Name: name, Slug: slug})
	if err != nil {
		// Another caller may have created it between the list and the post.
		if id, ferr := c.findAttribute(ctx, cfg, name, slug); ferr == nil && id != 0 {
			c.cache.SetAttribute(cfg.Name, name, id)
			return id, nil
		}
		return 0, err
	}
	var created wcAttribute
	if err := json.Unmarshal(body, &created); err != nil {
		return 0, err
	}
	c.cache.SetAttribute(cfg.Name, name, created.ID)
	return created.ID, nil
}

func (c *Client) findAttribute(ctx context.Context, cfg *config.PlatformConfig, name, slug string) (int64, error) {
	body, err := c.Get(ctx, cfg, "/products/attributes", nil)
	if err != nil {
		return 0, err
	}
	var attributes []wcAttribute
	if err := json.Unmarshal(body, &attributes); err != nil {
		return 0, err
	}
	for _, attr := range attributes {
		if strings.EqualFold(attr.Name, name) || (slug != "" && strings.EqualFold(attr.Slug, slug)) {
			return attr.ID, nil
		}
	}
	return 0, nil
}

// GetOrCreateAttributeTerm resolves a term id within an attribute, same
// cache / list / create cascade as GetOrCreateAttribute.
func (c *Client) GetOrCreateAttributeTerm(ctx context.Context, cfg *config.PlatformConfig, attributeId int64, name string) (int64, error) {
	if id, ok := c.cache.GetTerm(cfg.Name, attributeId, name); ok {
		return id, nil
	}

	if id, err := c.findAttributeTerm(ctx, cfg, attributeId, name); err != nil {
		return 0, err
	} else if id != 0 {
		c.cache.SetTerm(cfg.Name, attributeId, name, id)
		return id, nil
	}

	path := fmt.Sprintf("/products/attributes/%d/terms", attributeId)
	body, err := c.Post(ctx, cfg, path, wcAttributeTerm{Name: name})
	if err != nil {
		if id, ferr := c.findAttributeTerm(ctx, cfg, attributeId, name); ferr == nil && id != 0 {
			c.cache.SetTerm(cfg.Name, attributeId, name, id)
			return id, nil
		}
		return 0, err
	}
	var created wcAttributeTerm
	if err := json.Unmarshal(body, &created); err != nil {
		return 0, err
	}
	c.cache.SetTerm(cfg.Name, attributeId, name, created.ID)
	return created.ID, nil
}

func (c *Client) findAttributeTerm(ctx context.Context, cfg *config.PlatformConfig, attributeId int64, name string) (int64, error) {
	path := fmt.Sprintf("/products/attributes/%d/terms", attributeId)
	query := url.Values{}
	query.Set("search", name)
	body, err := c.Get(ctx, cfg, path, query)
	if err != nil {
		return 0, err
	}
	var terms []wcAttributeTerm
	if err := json.Unmarshal(body, &terms); err != nil {
		return 0, err
	}
	for _, term := range terms {
		if strings.EqualFold(term.Name, name) {
			return term.ID, nil
		}
	}
	return 0, nil
}
