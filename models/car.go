package models

// SellerType distinguishes dealer and private listings.
type SellerType string

const (
	SellerDealer  SellerType = "Dealer"
	SellerPrivate SellerType = "Private"
)

// Provenance values for CarData.Source. They name the strategy that
// ultimately produced the returned record and are used by the frontend
// for trust signaling.
const (
	SourceJSON    = "json"    // intercepted marketplace JSON endpoint
	SourceDOM     = "dom"     // browser-rendered DOM
	SourceCheerio = "cheerio" // statically parsed HTML
	SourceError   = "error"   // nothing usable was obtained
)

// CarFields is a sparse set of vehicle attributes. Every field is
// independently optional; numeric fields use pointers so that "absent"
// and "zero" stay distinguishable across the merge.
type CarFields struct {
	Title             string     `json:"title,omitempty"`
	ImgURL            string     `json:"imgUrl,omitempty"`
	Price             *float64   `json:"price,omitempty"`
	FirstRegistration string     `json:"firstRegistration,omitempty"` // YYYY-MM
	CO2               *int       `json:"co2,omitempty"`               // g/km
	Mileage           *float64   `json:"mileage,omitempty"`
	PowerHP           *float64   `json:"powerHp,omitempty"`
	SellerType        SellerType `json:"sellerType,omitempty"`
	Brand             string     `json:"brand,omitempty"`
	Model             string     `json:"model,omitempty"`
	FuelType          string     `json:"fuelType,omitempty"`
}

// IsEmpty reports whether no field at all is populated.
func (f CarFields) IsEmpty() bool {
	return f.Title == "" && f.ImgURL == "" && f.Price == nil &&
		f.FirstRegistration == "" && f.CO2 == nil && f.Mileage == nil &&
		f.PowerHP == nil && f.SellerType == "" && f.Brand == "" &&
		f.Model == "" && f.FuelType == ""
}

// Fill copies fields from other into f, but only where f has no value
// yet. A field populated by a higher-priority source is final; calling
// Fill with lower-priority contributions afterwards never overwrites it.
func (f *CarFields) Fill(other CarFields) {
	if f.Title == "" {
		f.Title = other.Title
	}
	if f.ImgURL == "" {
		f.ImgURL = other.ImgURL
	}
	if f.Price == nil {
		f.Price = other.Price
	}
	if f.FirstRegistration == "" {
		f.FirstRegistration = other.FirstRegistration
	}
	if f.CO2 == nil {
		f.CO2 = other.CO2
	}
	if f.Mileage == nil {
		f.Mileage = other.Mileage
	}
	if f.PowerHP == nil {
		f.PowerHP = other.PowerHP
	}
	if f.SellerType == "" {
		f.SellerType = other.SellerType
	}
	if f.Brand == "" {
		f.Brand = other.Brand
	}
	if f.Model == "" {
		f.Model = other.Model
	}
	if f.FuelType == "" {
		f.FuelType = other.FuelType
	}
}

// CarData is the final record handed to the cost calculator and the
// results UI. It is constructed incrementally during one orchestration
// run and immutable once returned.
type CarData struct {
	CarFields

	// Source tags the provenance of the final value set.
	Source string `json:"source"`

	// Error is present only when no usable data was obtained.
	Error string `json:"error,omitempty"`
}

// HasCoreFields reports whether the record carries at least a title or
// a price, the minimum for the results page to be useful without
// manual entry.
func (d *CarData) HasCoreFields() bool {
	return d.Title != "" || d.Price != nil
}

// Float returns a pointer to v. Convenience for building sparse records.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
