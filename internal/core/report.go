package core

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// LowStockThreshold is the exclusive stock cutoff below which a book is
// flagged in the report.
const LowStockThreshold = 5

// Report builds the textual sales summary: total captured sales, books below
// the stock threshold and the single best-selling title.
func (s *Service) Report(ctx context.Context) (string, error) {
	meta := s.Meta()

	total, err := s.store.TotalCapturedSales(ctx)
	if err != nil {
		return "", err
	}
	low, err := s.store.LowStockBooks(ctx, LowStockThreshold)
	if err != nil {
		return "", err
	}
	best, err := s.store.BestSeller(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	header := strings.TrimSpace(fmt.Sprintf("%s REPORT (%d)", strings.ToUpper(meta.Name), time.Now().Year()))
	b.WriteString(header + "\n")
	b.WriteString("=======================\n")

	fmt.Fprintf(&b, "Total sales: %.2f %s\n", total, meta.Currency)

	fmt.Fprintf(&b, "Books below stock threshold (%d):\n", LowStockThreshold)
	if len(low) == 0 {
		b.WriteString("- None\n")
	}
	for _, book := range low {
		fmt.Fprintf(&b, "- %s (%d left)\n", book.Title, book.Stock)
	}

	if best != nil {
		fmt.Fprintf(&b, "Best-selling: %s (%d units sold)\n", best.Title, best.TotalSold)
	} else {
		b.WriteString("Best-selling: N/A\n")
	}

	return b.String(), nil
}

// ExportReport writes the current report to the configured file and returns
// the path. The file is replaced on every export.
func (s *Service) ExportReport(ctx context.Context) (string, error) {
	text, err := s.Report(ctx)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(s.reportPath, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return s.reportPath, nil
}
