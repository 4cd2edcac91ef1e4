package models

// ListingRecord is one fully extracted vehicle listing. Values are the raw
// display strings from the detail page, trimmed and otherwise untouched.
type ListingRecord struct {
	Title            string `json:"title"`
	Price            string `json:"price"`
	Manufacturer     string `json:"manufacturer"`
	Category         string `json:"category"`
	FuelType         string `json:"fuel_type"`
	FiscalHorsepower string `json:"fiscal_horsepower"`
	Transmission     string `json:"transmission"`
	Mileage          string `json:"mileage"`
	Year             string `json:"year"`
	InsertionDate    string `json:"insertion_date"`
}

// Columns is the dataset header, in output order.
var Columns = []string{
	"Title",
	"Price",
	"Manufacturer",
	"Category",
	"Fuel Type",
	"Fiscal Horsepower",
	"Transmission",
	"Mileage",
	"Year",
	"Insertion Date",
}

// Row returns the record's values in Columns order.
func (r *ListingRecord) Row() []string {
	return []string{
		r.Title,
		r.Price,
		r.Manufacturer,
		r.Category,
		r.FuelType,
		r.FiscalHorsepower,
		r.Transmission,
		r.Mileage,
		r.Year,
		r.InsertionDate,
	}
}

// IsComplete reports whether every field is non-empty.
func (r *ListingRecord) IsComplete() bool {
	for _, v := range r.Row() {
		if v == "" {
			return false
		}
	}
	return true
}

// ScrapeResult is the outcome of fetching and extracting one detail URL.
// Exactly one of Record and Err is set.
type ScrapeResult struct {
	URL    string
	Record *ListingRecord
	Err    error
}

func (r ScrapeResult) Success() bool {
	return r.Err == nil && r.Record != nil
}
