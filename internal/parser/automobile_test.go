package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/maltedev/occasion-scraper/internal/catalog"
	"github.com/maltedev/occasion-scraper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detailURL = "https://www.automobile.tn/fr/occasion/peugeot/208/123456"

type detailFixture struct {
	title string
	price string
	specs []string // eight positional spec values, index 0 is position 1
	omit  string   // "title", "price" or a spec position like "spec:3"
	blank string   // same keys, renders the node with whitespace only
}

func defaultFixture() detailFixture {
	return detailFixture{
		title: "Peugeot 208 Allure",
		price: "45 500 DT",
		specs: []string{
			"62 000 km",
			"2019",
			"Essence",
			"Citadine",
			"Manuelle",
			"5 CV",
			"Blanc",
			"12.03.2024",
		},
	}
}

func (f detailFixture) html() string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body><div id="content_container">`)
	b.WriteString(`<div class="occasion-details-v2">`)
	if f.omit != "title" {
		title := f.title
		if f.blank == "title" {
			title = "   "
		}
		fmt.Fprintf(&b, "<h1>\n\t%s\n</h1>", title)
	}
	b.WriteString(`<div class="price-box">`)
	if f.omit != "price" {
		price := f.price
		if f.blank == "price" {
			price = " \n "
		}
		fmt.Fprintf(&b, `<span class="price"> %s </span>`, price)
	}
	b.WriteString(`</div><ul class="main-specs">`)
	for i, v := range f.specs {
		key := fmt.Sprintf("spec:%d", i+1)
		if f.blank == key {
			v = ""
		}
		if f.omit == key {
			fmt.Fprintf(&b, `<li><span class="spec-name">Spec %d</span></li>`, i+1)
			continue
		}
		fmt.Fprintf(&b, `<li><span class="spec-name">Spec %d</span><span class="spec-value"> %s </span></li>`, i+1, v)
	}
	b.WriteString(`</ul></div></div></body></html>`)
	return b.String()
}

func TestParseDetailPage(t *testing.T) {
	p := NewAutomobileParser(catalog.Default())

	record, err := p.ParseDetailPage(defaultFixture().html(), detailURL)
	require.NoError(t, err)

	assert.Equal(t, &models.ListingRecord{
		Title:            "Peugeot 208 Allure",
		Price:            "45 500 DT",
		Manufacturer:     "Peugeot",
		Category:         "Citadine",
		FuelType:         "Essence",
		FiscalHorsepower: "5 CV",
		Transmission:     "Manuelle",
		Mileage:          "62 000 km",
		Year:             "2019",
		InsertionDate:    "12.03.2024",
	}, record)
	assert.True(t, record.IsComplete())
}

func TestParseDetailPageOrdinalMapping(t *testing.T) {
	f := defaultFixture()
	f.specs = []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"}

	record, err := NewAutomobileParser(nil).ParseDetailPage(f.html(), detailURL)
	require.NoError(t, err)

	assert.Equal(t, "p1", record.Mileage)
	assert.Equal(t, "p2", record.Year)
	assert.Equal(t, "p3", record.FuelType)
	assert.Equal(t, "p4", record.Category)
	assert.Equal(t, "p5", record.Transmission)
	assert.Equal(t, "p6", record.FiscalHorsepower)
	assert.Equal(t, "p8", record.InsertionDate)
}

func TestParseDetailPageUnknownManufacturer(t *testing.T) {
	f := defaultFixture()
	f.title = "Tesla Model Y"

	record, err := NewAutomobileParser(nil).ParseDetailPage(f.html(), detailURL)
	require.NoError(t, err)
	assert.Equal(t, catalog.Other, record.Manufacturer)
}

func TestParseDetailPageAllOrNothing(t *testing.T) {
	p := NewAutomobileParser(nil)

	tests := []struct {
		name  string
		omit  string
		blank string
		field string
	}{
		{name: "missing title", omit: "title", field: "title"},
		{name: "missing price", omit: "price", field: "price"},
		{name: "missing mileage", omit: "spec:1", field: "mileage"},
		{name: "missing year", omit: "spec:2", field: "year"},
		{name: "missing fuel type", omit: "spec:3", field: "fuel_type"},
		{name: "missing category", omit: "spec:4", field: "category"},
		{name: "missing transmission", omit: "spec:5", field: "transmission"},
		{name: "missing fiscal horsepower", omit: "spec:6", field: "fiscal_horsepower"},
		{name: "missing insertion date", omit: "spec:8", field: "insertion_date"},
		{name: "blank title", blank: "title", field: "title"},
		{name: "blank price", blank: "price", field: "price"},
		{name: "blank year", blank: "spec:2", field: "year"},
		{name: "blank insertion date", blank: "spec:8", field: "insertion_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := defaultFixture()
			f.omit = tt.omit
			f.blank = tt.blank

			record, err := p.ParseDetailPage(f.html(), detailURL)
			assert.Nil(t, record)
			require.Error(t, err)

			var extractErr *ExtractionError
			require.True(t, errors.As(err, &extractErr))
			assert.Equal(t, detailURL, extractErr.URL)
			assert.Equal(t, tt.field, extractErr.Field)
			assert.ErrorIs(t, err, ErrFieldMissing)
			assert.Contains(t, err.Error(), detailURL)
		})
	}
}

func TestParseDetailPageSeventhSpecNotRequired(t *testing.T) {
	f := defaultFixture()
	f.omit = "spec:7"

	record, err := NewAutomobileParser(nil).ParseDetailPage(f.html(), detailURL)
	require.NoError(t, err)
	assert.Equal(t, "12.03.2024", record.InsertionDate)
}

func TestParseDetailPageTooFewSpecs(t *testing.T) {
	f := defaultFixture()
	f.specs = f.specs[:6]

	_, err := NewAutomobileParser(nil).ParseDetailPage(f.html(), detailURL)

	var extractErr *ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, "insertion_date", extractErr.Field)
}

func TestParseIndexPage(t *testing.T) {
	html := `<html><body>
		<div class="articles">
			<div data-key="1"><a class="occasion-link-overlay" href="/fr/occasion/audi/a3/1"></a></div>
			<div data-key="2"><a class="occasion-link-overlay" href=" /fr/occasion/kia/rio/2 "></a></div>
			<div data-key="3"><a class="other-link" href="/fr/occasion/bmw/x1/3"></a></div>
			<div data-key="4"><a class="occasion-link-overlay"></a></div>
			<div data-key="5"><a class="occasion-link-overlay" href="/fr/occasion/audi/a3/1"></a></div>
			<div class="ad"><a class="occasion-link-overlay" href="/fr/occasion/sponsored"></a></div>
		</div>
	</body></html>`

	page, err := NewAutomobileParser(nil).ParseIndexPage(html)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/fr/occasion/audi/a3/1",
		"/fr/occasion/kia/rio/2",
		"/fr/occasion/audi/a3/1",
	}, page.Hrefs)
	assert.Equal(t, 5, page.Entries)
	assert.Equal(t, 2, page.Skipped)
}

func TestParseIndexPageEmpty(t *testing.T) {
	page, err := NewAutomobileParser(nil).ParseIndexPage(`<html><body><p>Aucune annonce</p></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, page.Hrefs)
	assert.Zero(t, page.Entries)
}
