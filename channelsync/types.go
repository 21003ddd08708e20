package channelsync

// Outbound wire shapes for the platform REST API (wc/v3 conventions).
// Inbound payloads are handled as raw maps by the webhook extractors, since
// platforms wrap the same object in several envelope shapes.

type wcMetaData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

type wcAttributeValue struct {
	ID      int64    `json:"id,omitempty"`
	Name    string   `json:"name"`
	Options []string `json:"options"`
	Visible bool     `json:"visible"`
}

type wcProduct struct {
	ID           int64              `json:"id,omitempty"`
	Name         string             `json:"name,omitempty"`
	Slug         string             `json:"slug,omitempty"`
	Type         string             `json:"type,omitempty"`
	Status       string             `json:"status,omitempty"`
	Description  string             `json:"description,omitempty"`
	Sku          string             `json:"sku,omitempty"`
	RegularPrice string             `json:"regular_price,omitempty"`
	Attributes   []wcAttributeValue `json:"attributes,omitempty"`
	MetaData     []wcMetaData       `json:"meta_data,omitempty"`
}

type wcAddress struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address_1,omitempty"`
	Address2  string `json:"address_2,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Postcode  string `json:"postcode,omitempty"`
	Country   string `json:"country,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type wcLineItem struct {
	ID        int64  `json:"id,omitempty"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Sku       string `json:"sku,omitempty"`
	Quantity  int    `json:"quantity"`
	Total     string `json:"total,omitempty"`
}

type wcOrder struct {
	ID            int64        `json:"id,omitempty"`
	Status        string       `json:"status,omitempty"`
	Currency      string       `json:"currency,omitempty"`
	CustomerID    int64        `json:"customer_id,omitempty"`
	Billing       *wcAddress   `json:"billing,omitempty"`
	Shipping      *wcAddress   `json:"shipping,omitempty"`
	LineItems     []wcLineItem `json:"line_items,omitempty"`
	ShippingTotal string       `json:"shipping_total,omitempty"`
	DiscountTotal string       `json:"discount_total,omitempty"`
	MetaData      []wcMetaData `json:"meta_data,omitempty"`
}

type wcCustomer struct {
	ID        int64        `json:"id,omitempty"`
	Email     string       `json:"email,omitempty"`
	FirstName string       `json:"first_name,omitempty"`
	LastName  string       `json:"last_name,omitempty"`
	Billing   *wcAddress   `json:"billing,omitempty"`
	Shipping  *wcAddress   `json:"shipping,omitempty"`
	MetaData  []wcMetaData `json:"meta_data,omitempty"`
}

type wcCoupon struct {
	ID           int64        `json:"id,omitempty"`
	Code         string       `json:"code,omitempty"`
	Amount       string       `json:"amount,omitempty"`
	DiscountType string       `json:"discount_type,omitempty"`
	Description  string       `json:"description,omitempty"`
	DateExpires  string       `json:"date_expires,omitempty"`
	UsageLimit   *int         `json:"usage_limit,omitempty"`
	MetaData     []wcMetaData `json:"meta_data,omitempty"`
}

type wcAttribute struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

type wcAttributeTerm struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}
