package enums

import "testing"

func TestParseDeliveryMethod(t *testing.T) {
	for _, method := range DeliveryMethods() {
		got, err := ParseDeliveryMethod(string(method))
		if err != nil || got != method {
			t.Fatalf("round trip failed for %q: %v", method, err)
		}
	}
	if _, err := ParseDeliveryMethod("teleport"); err == nil {
		t.Fatal("expected error for unknown method")
	}
}

func TestDeliveryMethodRequiresAddress(t *testing.T) {
	if DeliveryMethodPickup.RequiresAddress() {
		t.Fatal("pickup must not require an address")
	}
	if !DeliveryMethodDelivery.RequiresAddress() || !DeliveryMethodShipping.RequiresAddress() {
		t.Fatal("delivery and shipping require an address")
	}
}

func TestParseUserRole(t *testing.T) {
	if _, err := ParseUserRole("driver"); err != nil {
		t.Fatalf("driver should parse: %v", err)
	}
	if UserRole("admin").IsValid() {
		t.Fatal("admin is not a storefront role")
	}
}

func TestParseNavigationKind(t *testing.T) {
	if kind, err := ParseNavigationKind("back"); err != nil || kind != NavigationBack {
		t.Fatalf("unexpected parse result %q %v", kind, err)
	}
	if _, err := ParseNavigationKind("forward"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestParseCMSContentType(t *testing.T) {
	if _, err := ParseCMSContentType("faq"); err != nil {
		t.Fatalf("faq should parse: %v", err)
	}
	if CMSContentType("blog").IsValid() {
		t.Fatal("blog is not managed")
	}
}
