package domain

import (
	"fmt"
	"sort"
	"time"
)

// RequirementRecord is a single catalog entry: one discrete regulatory
// obligation tied to exactly one risk tier and a citation. General
// records are the exception: they carry no tier of their own.
type RequirementRecord struct {
	ID         string              `json:"id" yaml:"id"`
	Tier       RiskTier            `json:"tier,omitempty" yaml:"tier,omitempty"`
	Article    string              `json:"article" yaml:"article"`
	Title      string              `json:"title" yaml:"title"`
	Obligation string              `json:"obligation" yaml:"obligation"`
	Domains    []ApplicationDomain `json:"domains,omitempty" yaml:"domains,omitempty"`
	Keywords   []string            `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Severity   float64             `json:"severity" yaml:"severity"`
	// Effort is the catalog's remediation effort estimate for systems
	// that do not yet meet the obligation.
	Effort EffortLevel `json:"effort,omitempty" yaml:"effort,omitempty"`
	// Prohibition marks Unacceptable-tier clauses: they carry a
	// prohibition rationale instead of remediation steps.
	Prohibition bool `json:"prohibition,omitempty" yaml:"prohibition,omitempty"`
	// General marks cross-cutting obligations (data protection and the
	// like) that bind every classification carrying obligations,
	// regardless of tier. General records declare no tier.
	General bool `json:"general,omitempty" yaml:"general,omitempty"`
}

// AppliesToDomain reports whether the record is scoped to the given
// domains. Records without domain tags apply everywhere.
func (r RequirementRecord) AppliesToDomain(domains []ApplicationDomain) bool {
	if len(r.Domains) == 0 {
		return true
	}
	for _, tagged := range r.Domains {
		for _, d := range domains {
			if tagged == d {
				return true
			}
		}
	}
	return false
}

// CatalogSnapshot is an immutable, versioned view of the requirement
// catalog. Analyses read the snapshot they started with; ingestion
// swaps in a new snapshot atomically and never mutates an old one.
type CatalogSnapshot struct {
	version    string
	ingestedAt time.Time
	records    []RequirementRecord
	byID       map[string]RequirementRecord
}

func NewCatalogSnapshot(version string, ingestedAt time.Time, records []RequirementRecord) (*CatalogSnapshot, error) {
	byID := make(map[string]RequirementRecord, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			return nil, fmt.Errorf("catalog record without id (article %q)", rec.Article)
		}
		if rec.General {
			if rec.Tier != "" {
				return nil, fmt.Errorf("catalog record %s: general records must not declare a tier", rec.ID)
			}
			if rec.Prohibition {
				return nil, fmt.Errorf("catalog record %s: general records cannot be prohibitions", rec.ID)
			}
		} else if !rec.Tier.Valid() {
			return nil, fmt.Errorf("catalog record %s: unknown tier %q", rec.ID, rec.Tier)
		}
		if rec.Severity < 0 {
			return nil, fmt.Errorf("catalog record %s: negative severity", rec.ID)
		}
		if _, dup := byID[rec.ID]; dup {
			return nil, fmt.Errorf("catalog record %s: duplicate id", rec.ID)
		}
		byID[rec.ID] = rec
	}

	sorted := make([]RequirementRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	return &CatalogSnapshot{
		version:    version,
		ingestedAt: ingestedAt,
		records:    sorted,
		byID:       byID,
	}, nil
}

func (s *CatalogSnapshot) Version() string        { return s.version }
func (s *CatalogSnapshot) IngestedAt() time.Time  { return s.ingestedAt }
func (s *CatalogSnapshot) Len() int               { return len(s.records) }

func (s *CatalogSnapshot) ByID(id string) (RequirementRecord, bool) {
	rec, ok := s.byID[id]
	return rec, ok
}

// Records returns a copy of all catalog records in id order.
func (s *CatalogSnapshot) Records() []RequirementRecord {
	out := make([]RequirementRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Applicable returns the requirements that govern a system classified
// at the given tier: records of exactly that tier plus the general
// cross-cutting obligations, scoped to the system's domains. Records
// from any other tier never apply; each tier answers only to its own
// obligations. An Unacceptable classification yields only the
// prohibition clauses, since no remediation-oriented requirement is
// meaningful for a prohibited system, and a Minimal one yields
// nothing: minimal-risk systems carry no obligations under the Act.
func (s *CatalogSnapshot) Applicable(tier RiskTier, domains []ApplicationDomain) []RequirementRecord {
	out := make([]RequirementRecord, 0, len(s.records))
	for _, rec := range s.records {
		if tier == TierUnacceptable {
			if rec.Prohibition && rec.AppliesToDomain(domains) {
				out = append(out, rec)
			}
			continue
		}
		if rec.Prohibition || rec.Tier == TierUnacceptable {
			continue
		}
		if rec.General {
			if tier == TierMinimal {
				continue
			}
		} else if rec.Tier != tier {
			continue
		}
		if rec.AppliesToDomain(domains) {
			out = append(out, rec)
		}
	}
	return out
}
