package extract

import "testing"

func TestJSONCapture_TopLevelPayload(t *testing.T) {
	payload := []byte(`{
		"price": {"grossAmount": 23500.0},
		"make": "Audi",
		"model": "A3",
		"modelDescription": "Sportback 2.0 TDI",
		"fuel": "Diesel",
		"firstRegistration": "2019-06-01",
		"mileage": 84000,
		"images": [{"uri": "//img.mobile.de/a3.jpg"}],
		"envkv": {"emission": 112.0}
	}`)

	fields := JSONCapture(payload)
	if fields.Price == nil || *fields.Price != 23500 {
		t.Errorf("Price = %v, want 23500", fields.Price)
	}
	if fields.Brand != "Audi" || fields.Model != "A3" {
		t.Errorf("Brand/Model = %q/%q", fields.Brand, fields.Model)
	}
	if fields.Title != "Audi A3 Sportback 2.0 TDI" {
		t.Errorf("Title = %q", fields.Title)
	}
	if fields.FuelType != "Diesel" {
		t.Errorf("FuelType = %q", fields.FuelType)
	}
	if fields.FirstRegistration != "2019-06" {
		t.Errorf("FirstRegistration = %q, want 2019-06", fields.FirstRegistration)
	}
	if fields.Mileage == nil || *fields.Mileage != 84000 {
		t.Errorf("Mileage = %v", fields.Mileage)
	}
	if fields.ImgURL != "https://img.mobile.de/a3.jpg" {
		t.Errorf("ImgURL = %q, want protocol fixed up", fields.ImgURL)
	}
	if fields.CO2 == nil || *fields.CO2 != 112 {
		t.Errorf("CO2 = %v, want 112", fields.CO2)
	}
}

func TestJSONCapture_DataWrapper(t *testing.T) {
	payload := []byte(`{
		"data": {
			"title": "BMW 320d Touring",
			"price": {"grossAmount": 18900},
			"images": [{"url": "https://img.mobile.de/bmw.jpg"}]
		}
	}`)

	fields := JSONCapture(payload)
	if fields.Title != "BMW 320d Touring" {
		t.Errorf("Title = %q", fields.Title)
	}
	if fields.Price == nil || *fields.Price != 18900 {
		t.Errorf("Price = %v, want 18900", fields.Price)
	}
	if fields.ImgURL != "https://img.mobile.de/bmw.jpg" {
		t.Errorf("ImgURL = %q", fields.ImgURL)
	}
}

func TestJSONCapture_FinancingPriceNesting(t *testing.T) {
	payload := []byte(`{"financing": {"price": {"grossAmount": 9990}}}`)

	fields := JSONCapture(payload)
	if fields.Price == nil || *fields.Price != 9990 {
		t.Fatalf("Price = %v, want 9990", fields.Price)
	}
}

func TestJSONCapture_GarbageInput(t *testing.T) {
	for _, payload := range [][]byte{nil, {}, []byte("not json"), []byte(`[1,2,3]`)} {
		if fields := JSONCapture(payload); !fields.IsEmpty() {
			t.Errorf("JSONCapture(%q) = %+v, want empty", payload, fields)
		}
	}
}
