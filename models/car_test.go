package models

import "testing"

func TestFill_DoesNotOverwrite(t *testing.T) {
	f := CarFields{Title: "kept", Price: Float(100)}
	f.Fill(CarFields{Title: "ignored", Price: Float(200), Brand: "Audi"})

	if f.Title != "kept" {
		t.Errorf("Title = %q, want kept", f.Title)
	}
	if *f.Price != 100 {
		t.Errorf("Price = %v, want 100", *f.Price)
	}
	if f.Brand != "Audi" {
		t.Errorf("Brand = %q, want gap filled", f.Brand)
	}
}

func TestFill_PointerZeroIsAValue(t *testing.T) {
	// A present zero (e.g. an electric vehicle's CO2) must survive
	// later contributions.
	f := CarFields{CO2: Int(0)}
	f.Fill(CarFields{CO2: Int(150)})

	if f.CO2 == nil || *f.CO2 != 0 {
		t.Fatalf("CO2 = %v, want explicit 0 preserved", f.CO2)
	}
}

func TestIsEmpty(t *testing.T) {
	if !(CarFields{}).IsEmpty() {
		t.Error("zero CarFields should be empty")
	}
	if (CarFields{Mileage: Float(1)}).IsEmpty() {
		t.Error("CarFields with mileage should not be empty")
	}
}

func TestHasCoreFields(t *testing.T) {
	cases := []struct {
		car  CarData
		want bool
	}{
		{CarData{CarFields: CarFields{Title: "Audi A3"}}, true},
		{CarData{CarFields: CarFields{Price: Float(9990)}}, true},
		{CarData{CarFields: CarFields{CO2: Int(120), Brand: "Audi"}}, false},
		{CarData{}, false},
	}

	for i, tc := range cases {
		if got := tc.car.HasCoreFields(); got != tc.want {
			t.Errorf("case %d: HasCoreFields() = %v, want %v", i, got, tc.want)
		}
	}
}
