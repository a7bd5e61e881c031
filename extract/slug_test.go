package extract

import "testing"

func TestSlug_FullListing(t *testing.T) {
	url := "https://suchen.mobile.de/auto-inserat/audi-a3-spb-2-0-tdi-ambiente-san-miniato/443982745.html"

	fields := Slug(url)
	if fields.Brand != "Audi" {
		t.Errorf("Brand = %q, want Audi", fields.Brand)
	}
	if fields.Model != "A3" {
		t.Errorf("Model = %q, want A3", fields.Model)
	}
	if fields.Title != "Audi A3 spb 2 0 tdi" {
		t.Errorf("Title = %q", fields.Title)
	}
}

func TestSlug_YearToken(t *testing.T) {
	url := "https://suchen.mobile.de/auto-inserat/bmw-320d-touring-2018-automatik/123456789.html"

	fields := Slug(url)
	if fields.FirstRegistration != "2018-01" {
		t.Errorf("FirstRegistration = %q, want 2018-01", fields.FirstRegistration)
	}
}

func TestSlug_NoYearToken(t *testing.T) {
	url := "https://suchen.mobile.de/auto-inserat/vw-golf-gti-performance/987654321.html"

	fields := Slug(url)
	if fields.FirstRegistration != "" {
		t.Errorf("FirstRegistration = %q, want empty", fields.FirstRegistration)
	}
	if fields.Brand != "Vw" || fields.Model != "Golf" {
		t.Errorf("Brand/Model = %q/%q", fields.Brand, fields.Model)
	}
}

func TestSlug_UnrecognizedPath(t *testing.T) {
	fields := Slug("https://www.autoscout24.de/angebote/some-listing-id-0000")
	if !fields.IsEmpty() {
		t.Fatalf("expected empty fields for unrecognized path, got %+v", fields)
	}
}

func TestSlug_ShortSlug(t *testing.T) {
	fields := Slug("https://suchen.mobile.de/auto-inserat/porsche/1.html")
	if fields.Brand != "Porsche" {
		t.Errorf("Brand = %q, want Porsche", fields.Brand)
	}
	if fields.Model != "" {
		t.Errorf("Model = %q, want empty", fields.Model)
	}
	if fields.Title != "Porsche" {
		t.Errorf("Title = %q, want Porsche", fields.Title)
	}
}
