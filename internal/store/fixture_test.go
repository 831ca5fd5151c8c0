package store

import "testing"

func TestStaticSeeder_Deterministic(t *testing.T) {
	a := StaticSeeder{}.Assets()
	b := StaticSeeder{}.Assets()

	if len(a) != len(b) {
		t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || !a[i].CurrentPrice.Equal(b[i].CurrentPrice) {
			t.Fatalf("asset %d differs between runs", i)
		}
	}
}

func TestStaticSeeder_ValidSupply(t *testing.T) {
	for _, asset := range (StaticSeeder{}).Assets() {
		if asset.AvailableSupply.GreaterThan(asset.TotalSupply) {
			t.Fatalf("%s: available exceeds total supply", asset.ID)
		}
		if !asset.CurrentPrice.IsPositive() {
			t.Fatalf("%s: non-positive price", asset.ID)
		}
	}
}
