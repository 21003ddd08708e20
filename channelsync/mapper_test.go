package channelsync

import (
	"encoding/json"
	"testing"

	"bitbucket.org/mmdatafocus/storefront_sync/models"
	"bitbucket.org/mmdatafocus/storefront_sync/utils"
)

func decode(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return obj
}

func TestProductFromExternalProtectsISBN(t *testing.T) {
	existing := &models.Product{ID: 7, ISBN: "9781234567890", Name: "Old Name"}
	obj := decode(t, `{"id": 55, "sku": "9789999999999", "name": "New Name"}`)

	got := productFromExternal(obj, "shop", existing)

	if got.ISBN != "9781234567890" {
		t.Fatalf("ISBN overwritten: %q", got.ISBN)
	}
	if got.Name != "New Name" {
		t.Fatalf("name not updated: %q", got.Name)
	}
	if got.ExternalIdFor("shop") != "55" {
		t.Fatalf("external id not recorded: %q", got.ExternalIdFor("shop"))
	}
}

func TestProductFromExternalNewTakesPrice(t *testing.T) {
	obj := decode(t, `{"id": 9, "sku": "978111", "name": "Book", "status": "publish", "regular_price": "19.90"}`)

	got := productFromExternal(obj, "shop", nil)
	if len(got.Prices) != 1 || got.Prices[0].Amount.String() != "19.9" {
		t.Fatalf("expected imported price, got %+v", got.Prices)
	}
	if !got.Publishable() {
		t.Fatal("expected published product")
	}

	// An update never touches the canonical price list.
	existing := &models.Product{ID: 1, ISBN: "978111"}
	got = productFromExternal(obj, "shop", existing)
	if len(got.Prices) != 0 {
		t.Fatalf("update imported a price: %+v", got.Prices)
	}
}

func TestProductFromExternalLocalizedAttributes(t *testing.T) {
	obj := decode(t, `{"id": 3, "sku": "978222", "attributes": [
		{"name": "autor", "options": ["Carmen Laforet"]},
		{"name": "editorial", "options": ["Destino"]}
	]}`)

	got := productFromExternal(obj, "shop", nil)
	if got.Author != "Carmen Laforet" {
		t.Fatalf("author = %q", got.Author)
	}
	if got.Publisher != "Destino" {
		t.Fatalf("publisher = %q", got.Publisher)
	}
}

func TestProductToExternalStatus(t *testing.T) {
	p := &models.Product{ISBN: "978333", Name: "Draft Book"}
	if got := productToExternal(p); got.Status != "draft" {
		t.Fatalf("status = %q, want draft", got.Status)
	}
	p.Published = utils.NewTrue()
	if got := productToExternal(p); got.Status != "publish" {
		t.Fatalf("status = %q, want publish", got.Status)
	}
}

func TestOrderFromExternalProtectsOrderNumber(t *testing.T) {
	existing := &models.Order{ID: 4, OrderNumber: "ORD-100", Items: []models.OrderItem{{Sku: "978111", Quantity: 2}}}
	obj := decode(t, `{"id": 200, "number": "999", "status": "Completed", "line_items": []}`)

	got := orderFromExternal(obj, "shop", existing)
	if got.OrderNumber != "ORD-100" {
		t.Fatalf("order number overwritten: %q", got.OrderNumber)
	}
	if got.Status != "completed" {
		t.Fatalf("status = %q", got.Status)
	}
	if len(got.Items) != 1 {
		t.Fatalf("empty inbound items wiped canonical items: %+v", got.Items)
	}
}

func TestOrderFromExternalNumberFromMetadata(t *testing.T) {
	obj := decode(t, `{"id": 7, "meta_data": [{"key": "order_number", "value": "ORD-55"}],
		"line_items": [{"product_id": 42, "sku": "978111", "quantity": 3, "total": "30.00"}]}`)

	got := orderFromExternal(obj, "shop", nil)
	if got.OrderNumber != "ORD-55" {
		t.Fatalf("order number = %q", got.OrderNumber)
	}
	if len(got.Items) != 1 || got.Items[0].ExternalProductId != "42" || got.Items[0].Quantity != 3 {
		t.Fatalf("items = %+v", got.Items)
	}
}

func TestCustomerFromExternalProtectsEmail(t *testing.T) {
	existing := &models.Customer{ID: 2, Email: "ana@example.com"}
	obj := decode(t, `{"id": 12, "correo": "other@example.com", "nombre": "Ana", "apellidos": "Garcia"}`)

	got := customerFromExternal(obj, "shop", existing)
	if got.Email != "ana@example.com" {
		t.Fatalf("email overwritten: %q", got.Email)
	}
	if got.FirstName != "Ana" || got.LastName != "Garcia" {
		t.Fatalf("localized names not applied: %q %q", got.FirstName, got.LastName)
	}
}

func TestCouponFromExternal(t *testing.T) {
	obj := decode(t, `{"id": 31, "codigo": "VERANO10", "tipo_descuento": "porcentaje",
		"importe": "10.00", "date_expires": "2026-12-31"}`)

	got := couponFromExternal(obj, "shop", nil)
	if got.Code != "VERANO10" {
		t.Fatalf("code = %q", got.Code)
	}
	if got.DiscountType != "percent" {
		t.Fatalf("discount type = %q", got.DiscountType)
	}
	if got.Amount.String() != "10" {
		t.Fatalf("amount = %v", got.Amount)
	}
	if got.ExpiresAt == nil || got.ExpiresAt.Year() != 2026 {
		t.Fatalf("expires = %v", got.ExpiresAt)
	}
}

func TestNormalizeAddressAliases(t *testing.T) {
	obj := decode(t, `{"nombre": "Luis", "apellidos": "Perez", "direccion": "Calle Mayor 1",
		"ciudad": "Madrid", "provincia": "Madrid", "codigo_postal": "28001", "correo": "luis@example.com"}`)

	addr := NormalizeAddress(obj)
	if addr.FirstName != "Luis" || addr.LastName != "Perez" {
		t.Fatalf("names = %q %q", addr.FirstName, addr.LastName)
	}
	if addr.Address1 != "Calle Mayor 1" || addr.City != "Madrid" || addr.Postcode != "28001" {
		t.Fatalf("address = %+v", addr)
	}
	if addr.Country != utils.DefaultCountryCode {
		t.Fatalf("country default not applied: %q", addr.Country)
	}
}

func TestMergeProtected(t *testing.T) {
	if got := mergeProtected(models.KindProduct, "isbn", "", "978111"); got != "978111" {
		t.Fatalf("empty existing should take incoming, got %q", got)
	}
	if got := mergeProtected(models.KindProduct, "isbn", "978111", "978999"); got != "978111" {
		t.Fatalf("conflict must keep canonical, got %q", got)
	}
	if got := mergeProtected(models.KindProduct, "isbn", "978111", ""); got != "978111" {
		t.Fatalf("empty incoming must keep canonical, got %q", got)
	}
}
