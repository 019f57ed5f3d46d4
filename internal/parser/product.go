package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/price-ledger/internal/models"
)

const (
	titleSelector = "h1.product-details__title"
	unitSelector  = `span[data-test="product-details__unit-of-measurement"]`
	priceSelector = "span.base-price__regular"
)

type ProductParser struct {
	packWeightPattern   *regexp.Regexp
	unitPricePattern    *regexp.Regexp
	overallPricePattern *regexp.Regexp
}

func NewProductParser() *ProductParser {
	return &ProductParser{
		// "500G" in "500G £2.40/1KG"
		packWeightPattern: regexp.MustCompile(`^([\d.,]+\s*[A-Z]+)`),
		// "£2.40/1KG"
		unitPricePattern:    regexp.MustCompile(`(?i)£\s*([\d.,]+)\s*/\s*([\d.,]+)\s*([A-Z]+)`),
		overallPricePattern: regexp.MustCompile(`£\s*([\d.,]+)`),
	}
}

func (p *ProductParser) ParseProductPage(html string, record *models.HistoryRecord) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}

	if name := strings.TrimSpace(doc.Find(titleSelector).First().Text()); name != "" {
		record.Name = name
	} else {
		record.Name = models.UnknownProductName
	}

	if unit := doc.Find(unitSelector).First(); unit.Length() > 0 {
		p.applyUnitOfMeasurement(strings.TrimSpace(unit.Text()), record)
	}

	if price := doc.Find(priceSelector).First(); price.Length() > 0 {
		record.OverallPrice = p.ExtractOverallPrice(strings.TrimSpace(price.Text()))
	}

	return nil
}

func (p *ProductParser) applyUnitOfMeasurement(text string, record *models.HistoryRecord) {
	if m := p.packWeightPattern.FindStringSubmatch(text); len(m) > 1 {
		record.PackWeight = m[1]
	}

	if m := p.unitPricePattern.FindStringSubmatch(text); len(m) > 3 {
		if v, ok := parseAmount(m[1]); ok {
			record.PricePerUnit = &v
			record.Unit = m[2] + " " + m[3]
		}
	}
}

// ExtractOverallPrice reads the first pound amount in text.
func (p *ProductParser) ExtractOverallPrice(text string) *float64 {
	m := p.overallPricePattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return nil
	}
	if v, ok := parseAmount(m[1]); ok {
		return &v
	}
	return nil
}

// parseAmount drops thousands separators before parsing.
func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
