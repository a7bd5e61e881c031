package extract

import "testing"

func TestStructured_OpenGraph(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="BMW 320d Touring kaufen">
		<meta property="og:image" content="https://img.example.com/bmw.jpg">
	</head><body></body></html>`

	fields := Structured(html)
	if fields.Title != "BMW 320d Touring" {
		t.Errorf("Title = %q, want marketing suffix stripped", fields.Title)
	}
	if fields.ImgURL != "https://img.example.com/bmw.jpg" {
		t.Errorf("ImgURL = %q", fields.ImgURL)
	}
}

func TestStructured_TitleTagFallback(t *testing.T) {
	html := `<html><head><title>  Audi A4 Avant buy </title></head><body></body></html>`

	fields := Structured(html)
	if fields.Title != "Audi A4 Avant" {
		t.Errorf("Title = %q, want Audi A4 Avant", fields.Title)
	}
}

func TestStructured_TwitterImageFallback(t *testing.T) {
	html := `<html><head>
		<meta name="twitter:image" content="https://img.example.com/tw.jpg">
	</head><body></body></html>`

	fields := Structured(html)
	if fields.ImgURL != "https://img.example.com/tw.jpg" {
		t.Errorf("ImgURL = %q", fields.ImgURL)
	}
}

func TestStructured_JSONLDVehicle(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
		{
			"@type": "Car",
			"name": "VW Golf VII 1.6 TDI",
			"image": ["https://img.example.com/golf.jpg"],
			"productionDate": "2017-04-01",
			"offers": {"price": 13450}
		}
		</script>
	</head><body></body></html>`

	fields := Structured(html)
	if fields.Title != "VW Golf VII 1.6 TDI" {
		t.Errorf("Title = %q", fields.Title)
	}
	if fields.ImgURL != "https://img.example.com/golf.jpg" {
		t.Errorf("ImgURL = %q", fields.ImgURL)
	}
	if fields.Price == nil || *fields.Price != 13450 {
		t.Errorf("Price = %v, want 13450", fields.Price)
	}
	if fields.FirstRegistration != "2017-04" {
		t.Errorf("FirstRegistration = %q, want 2017-04", fields.FirstRegistration)
	}
}

func TestStructured_MalformedJSONLDSkipped(t *testing.T) {
	// The broken first block must not stop the scan.
	html := `<html><head>
		<script type="application/ld+json">{not json at all</script>
		<script type="application/ld+json">
		{"@type": "Vehicle", "name": "Seat Leon FR", "offers": {"price": "9990"}}
		</script>
	</head><body></body></html>`

	fields := Structured(html)
	if fields.Title != "Seat Leon FR" {
		t.Errorf("Title = %q, want Seat Leon FR", fields.Title)
	}
	if fields.Price == nil || *fields.Price != 9990 {
		t.Errorf("Price = %v, want 9990", fields.Price)
	}
}

func TestStructured_JSONLDArrayForm(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
		[{"@type": "WebSite", "name": "marketplace"},
		 {"@type": "Product", "name": "Ford Fiesta ST", "offers": {"price": 17900}}]
		</script>
	</head><body></body></html>`

	fields := Structured(html)
	if fields.Title != "Ford Fiesta ST" {
		t.Errorf("Title = %q", fields.Title)
	}
	if fields.Price == nil || *fields.Price != 17900 {
		t.Errorf("Price = %v, want 17900", fields.Price)
	}
}

func TestStructured_TitleFromLaterJSONLDBlock(t *testing.T) {
	// No og:title or title tag; the first block carries everything but
	// the name, which only the second block has.
	html := `<html><head>
		<script type="application/ld+json">
		{"@type": "Car", "image": "https://img.example.com/c3.jpg", "productionDate": "2018-09-01", "offers": {"price": 8900}}
		</script>
		<script type="application/ld+json">
		{"@type": "Car", "name": "Citroën C3 PureTech"}
		</script>
	</head><body></body></html>`

	fields := Structured(html)
	if fields.Title != "Citroën C3 PureTech" {
		t.Errorf("Title = %q, want the second block scanned", fields.Title)
	}
	if fields.Price == nil || *fields.Price != 8900 {
		t.Errorf("Price = %v, want 8900", fields.Price)
	}
}

func TestFirstImageURL_Forms(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`"https://a.jpg"`, "https://a.jpg"},
		{`{"url": "https://b.jpg"}`, "https://b.jpg"},
		{`["https://c.jpg", "https://d.jpg"]`, "https://c.jpg"},
		{`[{"url": "https://e.jpg"}]`, "https://e.jpg"},
		{`null`, ""},
		{``, ""},
	}

	for _, tc := range cases {
		if got := firstImageURL([]byte(tc.raw)); got != tc.want {
			t.Errorf("firstImageURL(%s) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
