package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadbook/internal/buyer/filter"
	"leadbook/internal/buyer/models"
	"leadbook/internal/buyer/validation"
	dErrors "leadbook/pkg/domain-errors"
	"leadbook/pkg/requestcontext"
)

// ExportHeader is the column order of exported CSV files. Import accepts the
// same header; unknown columns such as updatedAt are ignored.
var ExportHeader = append(append([]string{}, models.RecordFields...), models.FieldUpdatedAt)

// ImportCSV validates every data row and inserts the valid ones, each with an
// imported history entry, in one transaction. Row numbers in errors count the
// header as row 1, matching what a spreadsheet shows.
func (s *Service) ImportCSV(ctx context.Context, actor string, r io.Reader) (result *models.ImportResult, err error) {
	ctx, span := s.tracer.Start(ctx, "buyer.ImportCSV")
	defer func() { endSpan(span, err) }()

	if actor == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	header, rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	if len(rows) > MaxImportRows {
		return nil, dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("CSV import is limited to %d rows, got %d", MaxImportRows, len(rows)))
	}

	now := timestamp(requestcontext.Now(ctx))
	result = &models.ImportResult{Errors: []string{}}
	var (
		buyers  []*models.Buyer
		entries []*models.HistoryEntry
	)
	for i, cells := range rows {
		rowNum := i + 2
		b, fe := validation.ValidateCSVRow(rowMap(header, cells))
		if len(fe) > 0 {
			for _, f := range fe {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s: %s", rowNum, f.Field, f.Message))
			}
			continue
		}
		b.ID = uuid.NewString()
		b.OwnerID = actor
		b.CreatedAt, b.UpdatedAt = now, now
		entry, err := models.NewHistoryEntry(b.ID, actor, models.ActionImported, nil, now)
		if err != nil {
			return nil, err
		}
		buyers = append(buyers, b)
		entries = append(entries, entry)
	}

	if len(buyers) > 0 {
		err = s.store.RunInTx(ctx, func(ctx context.Context) error {
			for i, b := range buyers {
				if err := s.store.Create(ctx, b); err != nil {
					return err
				}
				if err := s.store.Append(ctx, entries[i]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, s.storeError(ctx, err, "failed to import buyers")
		}
	}

	result.Imported = len(buyers)
	result.Success = len(result.Errors) == 0
	s.metrics.ObserveImport(len(buyers), len(rows)-len(buyers))
	for _, e := range entries {
		s.metrics.IncrementHistoryEntries(string(e.Action))
		s.publish(ctx, e)
	}
	s.logger.InfoContext(ctx, "buyers imported",
		"owner_id", actor,
		"imported", result.Imported,
		"rejected_rows", len(rows)-len(buyers),
		"request_id", requestcontext.RequestID(ctx),
	)
	return result, nil
}

// ExportCSV writes every buyer matching p, newest first, as CSV.
func (s *Service) ExportCSV(ctx context.Context, p filter.Params, w io.Writer) (err error) {
	ctx, span := s.tracer.Start(ctx, "buyer.ExportCSV")
	defer func() { endSpan(span, err) }()

	q := filter.Build(p, filter.OrderDesc).Unpaged()
	buyers, err := s.store.List(ctx, q)
	if err != nil {
		return s.storeError(ctx, err, "failed to export buyers")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write CSV")
	}
	for _, b := range buyers {
		if err := cw.Write(exportRow(b)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write CSV")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write CSV")
	}
	return nil
}

func readCSV(r io.Reader) ([]string, [][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, dErrors.New(dErrors.CodeBadRequest, "CSV file is empty")
	}
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid CSV")
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid CSV")
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}

func rowMap(header, cells []string) map[string]string {
	row := make(map[string]string, len(header))
	for i, h := range header {
		if h == "" || i >= len(cells) {
			continue
		}
		row[h] = cells[i]
	}
	return row
}

func exportRow(b *models.Buyer) []string {
	bhk := ""
	if b.BHK != nil {
		bhk = string(*b.BHK)
	}
	return []string{
		b.FullName,
		b.Email,
		b.Phone,
		string(b.City),
		string(b.PropertyType),
		bhk,
		string(b.Purpose),
		formatBudget(b.BudgetMin),
		formatBudget(b.BudgetMax),
		string(b.Timeline),
		string(b.Source),
		b.Notes,
		strings.Join(b.Tags, ","),
		string(b.Status),
		b.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func formatBudget(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
