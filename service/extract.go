package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paulzwecker/asklio-case-study/model"
)

// pdfMagic is the header every readable PDF starts with
var pdfMagic = []byte("%PDF")

// OfferParser turns raw offer PDF bytes into the model's loosely typed JSON
// reply. Implemented by OpenAIService; tests substitute fakes.
type OfferParser interface {
	ExtractOffer(ctx context.Context, filename string, pdf []byte) (map[string]any, error)
}

// OfferArchiver stores uploaded offer documents. Optional.
type OfferArchiver interface {
	ArchiveOffer(ctx context.Context, filename, contentType string, data []byte) (*model.OfferDocument, error)
}

// OfferExtractionService parses vendor offer PDFs into structured extraction
// results. The model reply is untrusted and loosely typed; every field is
// coerced defensively and bad order lines are dropped rather than failing
// the whole document.
type OfferExtractionService struct {
	parser   OfferParser
	archiver OfferArchiver
}

func NewOfferExtractionService(parser OfferParser, archiver OfferArchiver) *OfferExtractionService {
	return &OfferExtractionService{
		parser:   parser,
		archiver: archiver,
	}
}

// Extract parses the uploaded document. An empty or non-PDF payload degrades
// to the all-null result without calling the upstream API; an upstream
// failure is returned as an error for the handler to map to a generic 500.
func (s *OfferExtractionService) Extract(ctx context.Context, filename string, data []byte) (*model.OfferExtractionResult, error) {
	if len(data) == 0 || !bytes.HasPrefix(data, pdfMagic) {
		slog.Warn("uploaded document has no extractable content",
			"filename", filename,
			"size", len(data),
		)
		return model.EmptyOfferExtractionResult(), nil
	}

	if s.archiver != nil {
		go s.archive(filename, data)
	}

	// The inference call blocks on external latency; run it on a worker
	// goroutine and await either its result or cancellation.
	type parseReply struct {
		raw map[string]any
		err error
	}
	replyCh := make(chan parseReply, 1)
	go func() {
		raw, err := s.parser.ExtractOffer(ctx, filename, data)
		replyCh <- parseReply{raw: raw, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case reply := <-replyCh:
		if reply.err != nil {
			return nil, fmt.Errorf("offer extraction failed: %w", reply.err)
		}
		return MapExtractionResult(reply.raw), nil
	}
}

// archive stores the original upload in object storage. Failures are logged
// only; archival never affects the extraction outcome.
func (s *OfferExtractionService) archive(filename string, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	doc, err := s.archiver.ArchiveOffer(ctx, filename, "application/pdf", data)
	if err != nil {
		slog.Warn("failed to archive offer document", "filename", filename, "error", err)
		return
	}
	slog.Info("offer document archived",
		"document_id", doc.ID,
		"storage_path", doc.StoragePath,
	)
}

// MapExtractionResult assembles a structured extraction result from the raw
// model reply. Missing keys yield null fields, a missing or non-list
// order_lines value yields an empty list, and malformed lines are dropped.
// It never fails: an empty record produces the all-null result.
func MapExtractionResult(raw map[string]any) *model.OfferExtractionResult {
	result := &model.OfferExtractionResult{
		RequestorName:            optString(raw["requestor_name"]),
		VendorName:               optString(raw["vendor_name"]),
		VendorVATID:              optString(raw["vendor_vat_id"]),
		Department:               optString(raw["department"]),
		Title:                    optString(raw["title"]),
		OrderLines:               []model.OrderLine{},
		TotalCost:                optDecimal(raw["total_cost"]),
		CommodityGroupSuggestion: optString(raw["commodity_group_suggestion"]),
	}

	rawLines, _ := raw["order_lines"].([]any)
	for i, rawLine := range rawLines {
		line, err := NormalizeOrderLine(rawLine)
		if err != nil {
			slog.Warn("dropping malformed order line", "index", i, "reason", err)
			continue
		}
		result.OrderLines = append(result.OrderLines, line)
	}

	return result
}

// NormalizeOrderLine coerces one raw order line into the schema. Numeric
// fields that fail coercion become null instead of rejecting the line; a
// missing total is recomputed from unit price and amount; a missing unit
// defaults to "Stk". Only when the required fields are still missing after
// all of that is the line rejected with ErrMalformedLine.
func NormalizeOrderLine(raw any) (model.OrderLine, error) {
	rec, ok := raw.(map[string]any)
	if !ok {
		return model.OrderLine{}, fmt.Errorf("%w: expected an object, got %T", ErrMalformedLine, raw)
	}

	unitPrice := optDecimal(rec["unit_price"])
	amount := optDecimal(rec["amount"])
	total := optDecimal(rec["total_price"])

	if (total == nil || total.IsZero()) && unitPrice != nil && amount != nil {
		computed := unitPrice.Mul(*amount)
		total = &computed
	}

	unit := ""
	if s := optString(rec["unit"]); s != nil {
		unit = *s
	}
	if unit == "" {
		unit = "Stk"
	}

	description := ""
	if s := optString(rec["position_description"]); s != nil {
		description = *s
	}

	switch {
	case description == "":
		return model.OrderLine{}, fmt.Errorf("%w: missing position_description", ErrMalformedLine)
	case unitPrice == nil:
		return model.OrderLine{}, fmt.Errorf("%w: missing unit_price", ErrMalformedLine)
	case unitPrice.IsNegative():
		return model.OrderLine{}, fmt.Errorf("%w: negative unit_price", ErrMalformedLine)
	case amount == nil:
		return model.OrderLine{}, fmt.Errorf("%w: missing amount", ErrMalformedLine)
	case !amount.IsPositive():
		return model.OrderLine{}, fmt.Errorf("%w: non-positive amount", ErrMalformedLine)
	case total == nil:
		return model.OrderLine{}, fmt.Errorf("%w: missing total_price", ErrMalformedLine)
	}

	line := model.OrderLine{
		PositionDescription: description,
		UnitPrice:           *unitPrice,
		Amount:              *amount,
		Unit:                unit,
		TotalPrice:          *total,
	}

	if id := optInt64(rec["id"]); id != nil {
		line.ID = id
	}

	return line, nil
}

// optString extracts a trimmed, non-empty string, or nil
func optString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// optDecimal coerces numbers, json.Number and numeric strings to a decimal,
// or nil when the value is absent or unparsable
func optDecimal(v any) *decimal.Decimal {
	switch t := v.(type) {
	case float64:
		d := decimal.NewFromFloat(t)
		return &d
	case int:
		d := decimal.NewFromInt(int64(t))
		return &d
	case int64:
		d := decimal.NewFromInt(t)
		return &d
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return nil
		}
		return &d
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil
		}
		return &d
	default:
		return nil
	}
}

// optInt64 coerces whole numbers and numeric strings to an int64, or nil
func optInt64(v any) *int64 {
	d := optDecimal(v)
	if d == nil || !d.IsInteger() {
		return nil
	}
	n := d.IntPart()
	return &n
}
