package models

import "testing"

func TestExternalIdMapScanValue(t *testing.T) {
	m := ExternalIdMap{"shop": "10", "otherstore": "20"}
	v, err := m.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var back ExternalIdMap
	if err := back.Scan(v); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if back["shop"] != "10" || back["otherstore"] != "20" {
		t.Fatalf("roundtrip = %v", back)
	}

	var empty ExternalIdMap
	if err := empty.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if empty == nil {
		t.Fatal("nil scan should yield empty map")
	}
}

func TestSetExternalIdIsAdditive(t *testing.T) {
	p := &Product{}
	p.SetExternalId("shop", "10")
	p.SetExternalId("otherstore", "20")
	p.SetExternalId("shop", "11")

	if p.ExternalIdFor("shop") != "11" {
		t.Fatalf("shop id = %q", p.ExternalIdFor("shop"))
	}
	if p.ExternalIdFor("otherstore") != "20" {
		t.Fatalf("otherstore id lost: %q", p.ExternalIdFor("otherstore"))
	}
	if p.ExternalIdFor("missing") != "" {
		t.Fatalf("missing platform = %q", p.ExternalIdFor("missing"))
	}
}

func TestChanneled(t *testing.T) {
	p := &Product{}
	if !p.Channeled("anything") {
		t.Fatal("empty channel list must mean every platform")
	}

	p.Channels = StringList{"shop"}
	if !p.Channeled("shop") {
		t.Fatal("listed platform rejected")
	}
	if p.Channeled("otherstore") {
		t.Fatal("unlisted platform accepted")
	}
}

func TestNaturalKeys(t *testing.T) {
	tests := []struct {
		entity Syncable
		want   string
	}{
		{&Product{ISBN: "978111"}, "978111"},
		{&Order{OrderNumber: "ORD-1"}, "ORD-1"},
		{&Customer{Email: "ana@example.com"}, "ana@example.com"},
		{&Coupon{Code: "VERANO10"}, "VERANO10"},
	}
	for _, tt := range tests {
		if got := tt.entity.NaturalKey(); got != tt.want {
			t.Fatalf("%T natural key = %q, want %q", tt.entity, got, tt.want)
		}
	}
}
