package service

import (
	"strings"

	"github.com/paulzwecker/asklio-case-study/model"
)

// CommodityGroups is the closed set of category labels. It is also handed to
// the extraction prompt so the model suggests labels from the same set.
var CommodityGroups = []string{
	"General Services - Accommodation Rentals",
	"General Services - Membership Fees",
	"General Services - Workplace Safety",
	"General Services - Consulting",
	"General Services - Financial Services",
	"General Services - Fleet Management",
	"General Services - Recruitment Services",
	"General Services - Professional Development",
	"General Services - Miscellaneous Services",
	"General Services - Insurance",
	"Facility Management - Electrical Engineering",
	"Facility Management - Facility Management Services",
	"Facility Management - Security",
	"Facility Management - Renovations",
	"Facility Management - Office Equipment",
	"Facility Management - Energy Management",
	"Facility Management - Maintenance",
	"Facility Management - Cafeteria and Kitchenettes",
	"Facility Management - Cleaning",
	"Publishing Production - Audio and Visual Production",
	"Publishing Production - Books/Videos/CDs",
	"Publishing Production - Printing Costs",
	"Publishing Production - Software Development for Publishing",
	"Publishing Production - Material Costs",
	"Publishing Production - Shipping for Production",
	"Publishing Production - Digital Product Development",
	"Publishing Production - Pre-production",
	"Publishing Production - Post-production Costs",
	"Information Technology - Hardware",
	"Information Technology - IT Services",
	"Information Technology - Software",
	"Logistics - Courier, Express, and Postal Services",
	"Logistics - Warehousing and Material Handling",
	"Logistics - Transportation Logistics",
	"Logistics - Delivery Services",
	"Marketing & Advertising - Advertising",
	"Marketing & Advertising - Outdoor Advertising",
	"Marketing & Advertising - Marketing Agencies",
	"Marketing & Advertising - Direct Mail",
	"Marketing & Advertising - Customer Communication",
	"Marketing & Advertising - Online Marketing",
	"Marketing & Advertising - Events",
	"Marketing & Advertising - Promotional Materials",
	"Production - Warehouse and Operational Equipment",
	"Production - Production Machinery",
	"Production - Spare Parts",
	"Production - Internal Transportation",
	"Production - Production Materials",
	"Production - Consumables",
	"Production - Maintenance and Repairs",
	"Other",
}

// CommodityGroupOther is the fallback label when no keyword group matches
const CommodityGroupOther = "Other"

// keyword groups in precedence order: the first group with any substring
// match wins
var commodityKeywordGroups = []struct {
	keywords []string
	group    string
}{
	{
		keywords: []string{"adobe", "license", "software", "saas"},
		group:    "Information Technology - Software",
	},
	{
		keywords: []string{"macbook", "laptop", "notebook", "hardware"},
		group:    "Information Technology - Hardware",
	},
	{
		keywords: []string{"campaign", "ads", "facebook", "instagram", "marketing"},
		group:    "Marketing & Advertising - Online Marketing",
	},
}

// CommodityService suggests commodity groups based on title, vendor, and
// order line descriptions
type CommodityService struct{}

func NewCommodityService() *CommodityService {
	return &CommodityService{}
}

// SuggestForRequest picks the commodity group for a creation payload using
// ordered keyword matching, falling back to "Other"
func (s *CommodityService) SuggestForRequest(payload *model.ProcurementRequestCreate) string {
	descriptions := make([]string, 0, len(payload.OrderLines))
	for _, line := range payload.OrderLines {
		descriptions = append(descriptions, line.PositionDescription)
	}
	return s.Suggest(payload.Title, payload.VendorName, descriptions)
}

// Suggest classifies free text into exactly one commodity group
func (s *CommodityService) Suggest(title, vendorName string, lineDescriptions []string) string {
	parts := []string{title, vendorName}
	parts = append(parts, lineDescriptions...)
	text := strings.ToLower(strings.Join(parts, " "))

	for _, kg := range commodityKeywordGroups {
		for _, keyword := range kg.keywords {
			if strings.Contains(text, keyword) {
				return kg.group
			}
		}
	}

	return CommodityGroupOther
}
