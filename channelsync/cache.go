package channelsync

import "sync"

// TaxonomyCache is the two-level attribute/term id cache owned by the API
// client: attribute name -> id, then term name within an attribute -> id.
// Entries live for the process lifetime (taxonomy changes rarely); Clear
// exists for tests and for operators who rebuilt a platform's taxonomy.
type TaxonomyCache struct {
	mu         sync.Mutex
	attributes map[string]int64
	terms      map[string]int64
}

func NewTaxonomyCache() *TaxonomyCache {
	return &TaxonomyCache{
		attributes: map[string]int64{},
		terms:      map[string]int64{},
	}
}

func attributeKey(platform, name string) string {
	return platform + "|" + name
}

func termKey(platform string, attributeId int64, name string) string {
	return platform + "|" + i64str(attributeId) + "|" + name
}

func (c *TaxonomyCache) GetAttribute(platform, name string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.attributes[attributeKey(platform, name)]
	return id, ok
}

func (c *TaxonomyCache) SetAttribute(platform, name string, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attributes[attributeKey(platform, name)] = id
}

func (c *TaxonomyCache) GetTerm(platform string, attributeId int64, name string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.terms[termKey(platform, attributeId, name)]
	return id, ok
}

func (c *TaxonomyCache) SetTerm(platform string, attributeId int64, name string, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.terms[termKey(platform, attributeId, name)] = id
}

func (c *TaxonomyCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attributes = map[string]int64{}
	c.terms = map[string]int64{}
}
