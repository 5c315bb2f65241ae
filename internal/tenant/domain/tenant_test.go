package domain

import "testing"

func ptr(f float64) *float64 { return &f }

func TestGeofenceFrom(t *testing.T) {
	if g := GeofenceFrom(ptr(1), ptr(2), ptr(200)); g == nil || g.RadiusM != 200 || g.Latitude != 1 || g.Longitude != 2 {
		t.Errorf("GeofenceFrom full = %+v", g)
	}
	tests := []struct {
		name          string
		lat, lng, rad *float64
	}{
		{"no lat", nil, ptr(2), ptr(200)},
		{"no lng", ptr(1), nil, ptr(200)},
		{"no radius", ptr(1), ptr(2), nil},
		{"zero radius", ptr(1), ptr(2), ptr(0)},
	}
	for _, tt := range tests {
		if g := GeofenceFrom(tt.lat, tt.lng, tt.rad); g != nil {
			t.Errorf("%s: GeofenceFrom = %+v, want nil", tt.name, g)
		}
	}
}

func TestTenant_Validate(t *testing.T) {
	tn := &Tenant{Code: " GreenField ", Name: "Greenfield High"}
	if err := tn.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if tn.Code != "greenfield" {
		t.Errorf("Code = %q, want greenfield", tn.Code)
	}
	if err := (&Tenant{Code: "x"}).Validate(); err == nil {
		t.Error("Validate without name should fail")
	}
}
