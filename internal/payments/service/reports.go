package service

import (
	"context"

	"admissions_crm_backend/internal/payments/repository"

	"golang.org/x/sync/errgroup"
)

type Analytics struct {
	TotalRecords int     `json:"total_records"`
	Success      int     `json:"success"`
	Failed       int     `json:"failed"`
	Pending      int     `json:"pending"`
	TotalRevenue float64 `json:"total_revenue"`
}

type Report struct {
	Analytics Analytics
	Colleges  []repository.CollegeTotal
	Rows      []repository.ReportRow
}

// Summarize counts COMPLETED and PAID as success and sums their final amount.
// FAILED is failed; every other status is pending.
func Summarize(rows []repository.ReportRow) Analytics {
	a := Analytics{TotalRecords: len(rows)}
	for _, r := range rows {
		switch r.Status {
		case StatusCompleted, StatusPaid:
			a.Success++
			a.TotalRevenue += r.FinalAmount
		case StatusFailed:
			a.Failed++
		default:
			a.Pending++
		}
	}
	return a
}

// Report runs the row query and the per-college totals side by side.
func (s *Service) Report(ctx context.Context, f repository.ReportFilter) (Report, error) {
	f.Status = normalizeStatus(f.Status)

	var out Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.repo.ListForReport(gctx, f)
		out.Rows = rows
		return err
	})
	g.Go(func() error {
		totals, err := s.repo.CollegeTotals(gctx, f)
		out.Colleges = totals
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	out.Analytics = Summarize(out.Rows)
	return out, nil
}
