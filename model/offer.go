package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfferExtractionResult is the structured output of parsing a vendor offer.
// Every field except OrderLines is optional: an unreadable document still
// produces a well-formed, all-null result.
type OfferExtractionResult struct {
	RequestorName            *string          `json:"requestor_name"`
	VendorName               *string          `json:"vendor_name"`
	VendorVATID              *string          `json:"vendor_vat_id"`
	Department               *string          `json:"department"`
	Title                    *string          `json:"title"`
	OrderLines               []OrderLine      `json:"order_lines"`
	TotalCost                *decimal.Decimal `json:"total_cost"`
	CommodityGroupSuggestion *string          `json:"commodity_group_suggestion"`
}

// EmptyOfferExtractionResult returns the all-null result used when a document
// yields no extractable content.
func EmptyOfferExtractionResult() *OfferExtractionResult {
	return &OfferExtractionResult{OrderLines: []OrderLine{}}
}

// OfferDocument describes an uploaded offer PDF archived in object storage
type OfferDocument struct {
	ID          string     `json:"id"`
	Filename    string     `json:"filename"`
	ContentType string     `json:"content_type"`
	StoragePath string     `json:"storage_path"`
	UploadedAt  time.Time  `json:"uploaded_at"`
	ParsedAt    *time.Time `json:"parsed_at,omitempty"`
}
