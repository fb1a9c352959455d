package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/complyon/aiact-engine/internal/core/domain"
)

// LoadXLSX imports a requirement catalog from a spreadsheet, the
// format legal teams maintain the catalog in. The first sheet must
// carry a header row; column order is free, matching is by header
// name.
func LoadXLSX(path, version string) (*domain.CatalogSnapshot, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("catalog workbook: no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("catalog workbook: sheet %q has no data rows", sheet)
	}

	columns := headerIndex(rows[0])
	for _, required := range []string{"id", "tier", "article", "title", "obligation", "severity"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("catalog workbook: missing column %q", required)
		}
	}

	records := make([]domain.RequirementRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec, err := parseRow(columns, row)
		if err != nil {
			return nil, fmt.Errorf("catalog workbook row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}

	snapshot, err := domain.NewCatalogSnapshot(version, time.Now().UTC(), records)
	if err != nil {
		return nil, fmt.Errorf("build catalog snapshot: %w", err)
	}
	return snapshot, nil
}

func headerIndex(header []string) map[string]int {
	out := make(map[string]int, len(header))
	for i, name := range header {
		out[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return out
}

func parseRow(columns map[string]int, row []string) (domain.RequirementRecord, error) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	severity, err := strconv.ParseFloat(cell("severity"), 64)
	if err != nil {
		return domain.RequirementRecord{}, fmt.Errorf("parse severity %q: %w", cell("severity"), err)
	}

	// Cross-cutting rows leave the tier cell blank and mark the
	// general column instead.
	general := parseBool(cell("general"))
	var tier domain.RiskTier
	if !general {
		var err error
		tier, err = domain.ParseRiskTier(cell("tier"))
		if err != nil {
			return domain.RequirementRecord{}, err
		}
	}

	rec := domain.RequirementRecord{
		ID:          cell("id"),
		Tier:        tier,
		Article:     cell("article"),
		Title:       cell("title"),
		Obligation:  cell("obligation"),
		Keywords:    splitList(cell("keywords")),
		Severity:    severity,
		Effort:      domain.EffortLevel(strings.ToLower(cell("effort"))),
		Prohibition: parseBool(cell("prohibition")),
		General:     general,
	}
	for _, raw := range splitList(cell("domains")) {
		d := domain.ApplicationDomain(raw)
		if !d.Valid() {
			return domain.RequirementRecord{}, fmt.Errorf("unknown domain %q", raw)
		}
		rec.Domains = append(rec.Domains, d)
	}
	return rec, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "true", "yes", "1", "x":
		return true
	default:
		return false
	}
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
