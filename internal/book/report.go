package book

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
)

// ReportFilename is the attachment name the report is served under.
const ReportFilename = "books.csv"

var reportHeader = []string{"Title", "Author"}

// Report writes a Title,Author CSV of every book, or only those of req's
// author when req is not nil.
func (s *Service) Report(ctx context.Context, req *ReportRequest, w io.Writer) error {
	var authorID *int64
	if req != nil {
		authorID = &req.AuthorID
	}
	books, err := s.repo.ListForReport(ctx, authorID)
	if err != nil {
		return fmt.Errorf("list books for report: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return err
	}
	for _, b := range books {
		if err := cw.Write([]string{b.Title, b.AuthorCanonicalName}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
