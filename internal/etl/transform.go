package etl

import "leads/internal/domain"

// ── Extractor ──────────────────────────────────────────────
// Maps one raw directory record to one flat lead row.
// Pure and total: a missing key at any depth reads as its default.

// Extractor converts a single raw record.
type Extractor interface {
	Extract(Record) domain.LeadRecord
}

// ExtractorFunc adapts a plain function to the Extractor interface.
type ExtractorFunc func(Record) domain.LeadRecord

func (f ExtractorFunc) Extract(r Record) domain.LeadRecord { return f(r) }

// DefaultCountry is used when the location carries no country.
const DefaultCountry = "UK"

var locationPath = []string{"GeoLoc", "Location"}

// ExtractLead is the directory-record mapping.
func ExtractLead(r Record) domain.LeadRecord {
	loc := GetPath(r.Data, locationPath, nil)
	return domain.LeadRecord{
		Name:     r.String("", "Name"),
		ODSCode:  r.String("", "OrgId"),
		Status:   r.String("", "Status"),
		Address:  GetString(loc, "", "AddrLn1"),
		City:     GetString(loc, "", "Town"),
		Postcode: r.String("", "PostCode"), // root level, not under GeoLoc
		Country:  GetString(loc, DefaultCountry, "Country"),
		Role:     r.String("", "PrimaryRoleDescription"),
	}
}

// ExtractAll maps records in order. A nil extractor means ExtractLead.
func ExtractAll(records []Record, ex Extractor) []domain.LeadRecord {
	if ex == nil {
		ex = ExtractorFunc(ExtractLead)
	}
	leads := make([]domain.LeadRecord, 0, len(records))
	for _, r := range records {
		leads = append(leads, ex.Extract(r))
	}
	return leads
}
