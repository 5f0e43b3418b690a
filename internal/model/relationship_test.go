package model

import "testing"

// PairKeyが引数の順序に依存しないことを検証
func TestPairKey_OrderIndependent(t *testing.T) {
	tests := []struct {
		name string
		u1   string
		u2   string
	}{
		{"昇順", "user-a", "user-b"},
		{"降順", "user-b", "user-a"},
		{"UUID形式", "f47ac10b-58cc-4372-a567-0e02b2c3d479", "a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, want := PairKey(tt.u1, tt.u2), PairKey(tt.u2, tt.u1); got != want {
				t.Errorf("PairKey(%q, %q) = %q, PairKey(%q, %q) = %q; want equal",
					tt.u1, tt.u2, got, tt.u2, tt.u1, want)
			}
		})
	}
}

// 異なるペアは異なるキーになることを検証
func TestPairKey_DistinctPairs(t *testing.T) {
	k1 := PairKey("user-a", "user-b")
	k2 := PairKey("user-a", "user-c")
	if k1 == k2 {
		t.Errorf("distinct pairs produced same key: %q", k1)
	}
}

// SortPairが常に辞書順のペアを返すことを検証
func TestSortPair(t *testing.T) {
	a, b := SortPair("zzz", "aaa")
	if a != "aaa" || b != "zzz" {
		t.Errorf("SortPair(zzz, aaa) = (%q, %q), want (aaa, zzz)", a, b)
	}
}

// AddresseeとOtherの導出を検証
func TestRelationship_AddresseeAndOther(t *testing.T) {
	rel := &Relationship{
		UserA:     "user-a",
		UserB:     "user-b",
		Requester: "user-b",
		Status:    RelationshipStatusPending,
	}

	if got := rel.Addressee(); got != "user-a" {
		t.Errorf("Addressee() = %q, want %q", got, "user-a")
	}
	if got := rel.Other("user-a"); got != "user-b" {
		t.Errorf("Other(user-a) = %q, want %q", got, "user-b")
	}
	if got := rel.Other("user-b"); got != "user-a" {
		t.Errorf("Other(user-b) = %q, want %q", got, "user-a")
	}
	if !rel.Involves("user-a") || !rel.Involves("user-b") {
		t.Error("Involves() should be true for both parties")
	}
	if rel.Involves("user-c") {
		t.Error("Involves(user-c) should be false")
	}
}

// 緯度経度の範囲検証
func TestLocationFix_ValidCoordinates(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		lng  float64
		want bool
	}{
		{"有効な座標", 35.6812, 139.7671, true},
		{"境界値: 緯度90", 90, 0, true},
		{"境界値: 経度-180", 0, -180, true},
		{"緯度が範囲外", 95, 0, false},
		{"経度が範囲外", 0, 181, false},
		{"両方範囲外", -91, 200, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &LocationFix{Latitude: tt.lat, Longitude: tt.lng}
			if got := f.ValidCoordinates(); got != tt.want {
				t.Errorf("ValidCoordinates() = %v, want %v", got, tt.want)
			}
		})
	}
}
