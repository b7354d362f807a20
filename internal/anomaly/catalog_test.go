package anomaly

import "testing"

func TestCatalogShape(t *testing.T) {
	defs := Catalog()
	if len(defs) != 18 {
		t.Fatalf("expected 18 features, got %d", len(defs))
	}

	seen := make(map[FeatureKey]bool)
	groups := make(map[FeatureGroup]int)
	for _, def := range defs {
		if seen[def.Key] {
			t.Errorf("duplicate feature key %q", def.Key)
		}
		seen[def.Key] = true
		groups[def.Group]++

		if def.Weight <= 0 {
			t.Errorf("feature %q has non-positive weight %v", def.Key, def.Weight)
		}
		if def.Label == "" || def.Unit == "" {
			t.Errorf("feature %q missing label or unit", def.Key)
		}
	}

	if len(groups) != 6 {
		t.Errorf("expected 6 groups, got %d", len(groups))
	}
}

func TestCatalogIsACopy(t *testing.T) {
	defs := Catalog()
	defs[0].Weight = 999
	if Catalog()[0].Weight == 999 {
		t.Error("mutating the returned slice must not affect the catalog")
	}
}

func TestActiveFeatures(t *testing.T) {
	tests := []struct {
		name           string
		roomsAvailable *float64
		wantRoom       bool
	}{
		{"multi-room household", f64(4), true},
		{"single room", f64(1), false},
		{"zero rooms", f64(0), false},
		{"rooms never observed", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			active := ActiveFeatures(tt.roomsAvailable)
			hasRoom := false
			for _, def := range active {
				if def.IsRoomFeature {
					hasRoom = true
				}
			}
			if hasRoom != tt.wantRoom {
				t.Errorf("room features included = %v, want %v", hasRoom, tt.wantRoom)
			}
			if tt.wantRoom && len(active) != 18 {
				t.Errorf("expected full catalog, got %d features", len(active))
			}
			if !tt.wantRoom && len(active) != 14 {
				t.Errorf("expected 14 non-room features, got %d", len(active))
			}
		})
	}
}

func TestFeatureByKey(t *testing.T) {
	def, ok := FeatureByKey(FeatureTotalEvents)
	if !ok || def.Group != GroupVolume {
		t.Errorf("expected total_events in volume group, got %+v (ok=%v)", def, ok)
	}
	if _, ok := FeatureByKey("not_a_feature"); ok {
		t.Error("expected lookup miss for unknown key")
	}
}
