package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeOrderLine(t *testing.T) {
	line, err := NormalizeOrderLine(map[string]any{
		"position_description": "Adobe Creative Cloud",
		"unit_price":           49.99,
		"amount":               float64(2),
		"unit":                 "licenses",
		"total_price":          99.98,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if line.PositionDescription != "Adobe Creative Cloud" {
		t.Errorf("Expected description, got %q", line.PositionDescription)
	}
	if !line.UnitPrice.Equal(decimal.RequireFromString("49.99")) {
		t.Errorf("Expected unit price 49.99, got %s", line.UnitPrice)
	}
	if line.Unit != "licenses" {
		t.Errorf("Expected unit 'licenses', got %q", line.Unit)
	}
}

func TestNormalizeOrderLineCoercesNumericStrings(t *testing.T) {
	line, err := NormalizeOrderLine(map[string]any{
		"position_description": "Adobe CC",
		"unit_price":           "49.99",
		"amount":               "2",
		"unit":                 "Stk",
		"total_price":          "99.98",
	})
	if err != nil {
		t.Fatalf("Expected numeric strings to be coerced, got error: %v", err)
	}
	if !line.Amount.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Expected amount 2, got %s", line.Amount)
	}
	if !line.TotalPrice.Equal(decimal.RequireFromString("99.98")) {
		t.Errorf("Expected total 99.98, got %s", line.TotalPrice)
	}
}

func TestNormalizeOrderLineCoercesJSONNumbers(t *testing.T) {
	line, err := NormalizeOrderLine(map[string]any{
		"position_description": "Adobe CC",
		"unit_price":           json.Number("49.99"),
		"amount":               json.Number("2"),
		"unit":                 "Stk",
		"total_price":          json.Number("99.98"),
	})
	if err != nil {
		t.Fatalf("Expected json.Number to be coerced, got error: %v", err)
	}
	if !line.UnitPrice.Equal(decimal.RequireFromString("49.99")) {
		t.Errorf("Expected unit price 49.99, got %s", line.UnitPrice)
	}
}

func TestNormalizeOrderLineDefaultsUnit(t *testing.T) {
	tests := []struct {
		name string
		unit any
	}{
		{"missing unit", nil},
		{"empty unit", ""},
		{"whitespace unit", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := map[string]any{
				"position_description": "Adobe CC",
				"unit_price":           49.99,
				"amount":               float64(2),
				"total_price":          99.98,
			}
			if tt.unit != nil {
				rec["unit"] = tt.unit
			}

			line, err := NormalizeOrderLine(rec)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if line.Unit != "Stk" {
				t.Errorf("Expected default unit 'Stk', got %q", line.Unit)
			}
		})
	}
}

func TestNormalizeOrderLineComputesMissingTotal(t *testing.T) {
	line, err := NormalizeOrderLine(map[string]any{
		"position_description": "Adobe CC",
		"unit_price":           49.99,
		"amount":               float64(2),
		"unit":                 "Stk",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !line.TotalPrice.Equal(decimal.RequireFromString("99.98")) {
		t.Errorf("Expected computed total 99.98, got %s", line.TotalPrice)
	}
}

func TestNormalizeOrderLineRecomputesZeroTotal(t *testing.T) {
	line, err := NormalizeOrderLine(map[string]any{
		"position_description": "Adobe CC",
		"unit_price":           49.99,
		"amount":               float64(2),
		"unit":                 "Stk",
		"total_price":          float64(0),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !line.TotalPrice.Equal(decimal.RequireFromString("99.98")) {
		t.Errorf("Expected recomputed total 99.98, got %s", line.TotalPrice)
	}
}

func TestNormalizeOrderLineKeepsMismatchedTotal(t *testing.T) {
	// Line-level mismatches are tolerated; only the aggregate is corrected
	line, err := NormalizeOrderLine(map[string]any{
		"position_description": "Adobe CC",
		"unit_price":           49.99,
		"amount":               float64(2),
		"unit":                 "Stk",
		"total_price":          120.00,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !line.TotalPrice.Equal(decimal.RequireFromString("120")) {
		t.Errorf("Expected submitted total to be kept, got %s", line.TotalPrice)
	}
}

func TestNormalizeOrderLineUnparsableNumberBecomesNull(t *testing.T) {
	// unit_price fails coercion and becomes null; the line is then rejected
	// for the missing required field, not for the coercion failure itself
	_, err := NormalizeOrderLine(map[string]any{
		"position_description": "Adobe CC",
		"unit_price":           "about fifty euros",
		"amount":               float64(2),
		"unit":                 "Stk",
		"total_price":          99.98,
	})
	if !errors.Is(err, ErrMalformedLine) {
		t.Errorf("Expected ErrMalformedLine, got %v", err)
	}

	// With a usable total the same line survives: coercion failure alone
	// must not abort the line while required fields can still be filled
	line, err := NormalizeOrderLine(map[string]any{
		"position_description": "Adobe CC",
		"unit_price":           49.99,
		"amount":               float64(2),
		"unit":                 "Stk",
		"total_price":          "not-a-number",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !line.TotalPrice.Equal(decimal.RequireFromString("99.98")) {
		t.Errorf("Expected total recomputed after failed coercion, got %s", line.TotalPrice)
	}
}

func TestNormalizeOrderLineRejections(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"not a record", "just a string"},
		{"list instead of record", []any{"a", "b"}},
		{"nil input", nil},
		{"missing description", map[string]any{
			"unit_price": 49.99, "amount": float64(2), "unit": "Stk", "total_price": 99.98,
		}},
		{"missing unit price", map[string]any{
			"position_description": "Adobe CC", "amount": float64(2), "unit": "Stk", "total_price": 99.98,
		}},
		{"missing amount", map[string]any{
			"position_description": "Adobe CC", "unit_price": 49.99, "unit": "Stk", "total_price": 99.98,
		}},
		{"negative unit price", map[string]any{
			"position_description": "Adobe CC", "unit_price": -49.99, "amount": float64(2), "unit": "Stk", "total_price": 99.98,
		}},
		{"zero amount", map[string]any{
			"position_description": "Adobe CC", "unit_price": 49.99, "amount": float64(0), "unit": "Stk", "total_price": 99.98,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NormalizeOrderLine(tt.raw); !errors.Is(err, ErrMalformedLine) {
				t.Errorf("Expected ErrMalformedLine, got %v", err)
			}
		})
	}
}

func TestNormalizeOrderLineFractionalAmount(t *testing.T) {
	line, err := NormalizeOrderLine(map[string]any{
		"position_description": "Consulting",
		"unit_price":           120.00,
		"amount":               2.5,
		"unit":                 "hours",
		"total_price":          300.00,
	})
	if err != nil {
		t.Fatalf("Expected fractional amount to be accepted, got error: %v", err)
	}
	if !line.Amount.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("Expected amount 2.5, got %s", line.Amount)
	}
}

func TestNormalizeOrderLineOptionalID(t *testing.T) {
	line, err := NormalizeOrderLine(map[string]any{
		"id":                   float64(7),
		"position_description": "Adobe CC",
		"unit_price":           49.99,
		"amount":               float64(2),
		"unit":                 "Stk",
		"total_price":          99.98,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if line.ID == nil || *line.ID != 7 {
		t.Errorf("Expected line ID 7, got %v", line.ID)
	}
}

func TestMapExtractionResult(t *testing.T) {
	raw := map[string]any{
		"vendor_name":   "Acme Corp",
		"vendor_vat_id": "DE123",
		"department":    "IT",
		"title":         "Adobe License",
		"order_lines": []any{
			map[string]any{
				"position_description": "Adobe Creative Cloud",
				"unit_price":           49.99,
				"amount":               float64(2),
				"unit":                 "licenses",
				"total_price":          99.98,
			},
		},
		"total_cost":                 99.98,
		"commodity_group_suggestion": "Information Technology - Software",
	}

	result := MapExtractionResult(raw)

	if result.VendorName == nil || *result.VendorName != "Acme Corp" {
		t.Errorf("Expected vendor 'Acme Corp', got %v", result.VendorName)
	}
	if result.VendorVATID == nil || *result.VendorVATID != "DE123" {
		t.Errorf("Expected VAT ID 'DE123', got %v", result.VendorVATID)
	}
	if result.Department == nil || *result.Department != "IT" {
		t.Errorf("Expected department 'IT', got %v", result.Department)
	}
	if result.Title == nil || *result.Title != "Adobe License" {
		t.Errorf("Expected title, got %v", result.Title)
	}
	if result.CommodityGroupSuggestion == nil || *result.CommodityGroupSuggestion != "Information Technology - Software" {
		t.Errorf("Expected commodity suggestion, got %v", result.CommodityGroupSuggestion)
	}
	if result.TotalCost == nil || !result.TotalCost.Equal(decimal.RequireFromString("99.98")) {
		t.Errorf("Expected total cost 99.98, got %v", result.TotalCost)
	}
	if len(result.OrderLines) != 1 {
		t.Fatalf("Expected 1 order line, got %d", len(result.OrderLines))
	}
	if result.OrderLines[0].PositionDescription != "Adobe Creative Cloud" {
		t.Errorf("Expected line description, got %q", result.OrderLines[0].PositionDescription)
	}
}

func TestMapExtractionResultEmptyRecord(t *testing.T) {
	result := MapExtractionResult(map[string]any{})

	if result.VendorName != nil || result.Title != nil || result.TotalCost != nil {
		t.Error("Expected all scalar fields nil for empty record")
	}
	if result.OrderLines == nil || len(result.OrderLines) != 0 {
		t.Error("Expected empty, non-nil order lines")
	}
}

func TestMapExtractionResultDropsBadLines(t *testing.T) {
	raw := map[string]any{
		"vendor_name": "Acme Corp",
		"order_lines": []any{
			"not a record",
			map[string]any{
				"position_description": "Valid line",
				"unit_price":           10.00,
				"amount":               float64(1),
				"unit":                 "Stk",
				"total_price":          10.00,
			},
			map[string]any{"position_description": "no prices"},
		},
	}

	result := MapExtractionResult(raw)

	if len(result.OrderLines) != 1 {
		t.Fatalf("Expected bad lines dropped, got %d lines", len(result.OrderLines))
	}
	if result.OrderLines[0].PositionDescription != "Valid line" {
		t.Errorf("Expected the valid line to survive, got %q", result.OrderLines[0].PositionDescription)
	}
}

func TestMapExtractionResultNonListOrderLines(t *testing.T) {
	result := MapExtractionResult(map[string]any{
		"vendor_name": "Acme Corp",
		"order_lines": "not a list",
	})

	if result.OrderLines == nil || len(result.OrderLines) != 0 {
		t.Error("Expected non-list order_lines treated as empty")
	}
}

type fakeOfferParser struct {
	raw map[string]any
	err error
}

func (f *fakeOfferParser) ExtractOffer(_ context.Context, _ string, _ []byte) (map[string]any, error) {
	return f.raw, f.err
}

func TestExtractMapsParserReply(t *testing.T) {
	parser := &fakeOfferParser{
		raw: map[string]any{
			"vendor_name": "Acme Corp",
			"order_lines": []any{
				map[string]any{
					"position_description": "Adobe Creative Cloud",
					"unit_price":           49.99,
					"amount":               float64(2),
					"unit":                 "licenses",
					"total_price":          99.98,
				},
			},
		},
	}
	svc := NewOfferExtractionService(parser, nil)

	result, err := svc.Extract(context.Background(), "offer.pdf", []byte("%PDF-1.4 test"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.VendorName == nil || *result.VendorName != "Acme Corp" {
		t.Errorf("Expected vendor name, got %v", result.VendorName)
	}
	if len(result.OrderLines) != 1 {
		t.Errorf("Expected 1 order line, got %d", len(result.OrderLines))
	}
}

func TestExtractEmptyDocumentDegrades(t *testing.T) {
	parser := &fakeOfferParser{err: errors.New("must not be called")}
	svc := NewOfferExtractionService(parser, nil)

	for _, data := range [][]byte{nil, {}, []byte("plain text, not a pdf")} {
		result, err := svc.Extract(context.Background(), "offer.pdf", data)
		if err != nil {
			t.Fatalf("Expected empty document to degrade, got error: %v", err)
		}
		if len(result.OrderLines) != 0 {
			t.Errorf("Expected empty order lines, got %d", len(result.OrderLines))
		}
		if result.VendorName != nil {
			t.Error("Expected all-null result")
		}
	}
}

func TestExtractParserFailureSurfaces(t *testing.T) {
	parser := &fakeOfferParser{err: errors.New("upstream exploded")}
	svc := NewOfferExtractionService(parser, nil)

	if _, err := svc.Extract(context.Background(), "offer.pdf", []byte("%PDF-1.4")); err == nil {
		t.Error("Expected error from failed parser")
	}
}

func TestExtractHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	blocked := make(chan struct{})
	parser := &blockingParser{release: blocked}
	svc := NewOfferExtractionService(parser, nil)

	_, err := svc.Extract(ctx, "offer.pdf", []byte("%PDF-1.4"))
	close(blocked)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

type blockingParser struct {
	release chan struct{}
}

func (b *blockingParser) ExtractOffer(_ context.Context, _ string, _ []byte) (map[string]any, error) {
	<-b.release
	return map[string]any{}, nil
}
