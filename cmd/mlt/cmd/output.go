package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	domain "github.com/facuhernandez/melitrack/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printListingsTable(listings []domain.Listing) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ITEM ID\tTITLE\tPRICE\tSTOCK\tSOLD\tSTATUS\n")
	for i := range listings {
		l := &listings[i]
		tw.writef("%s\t%s\t%s %.2f\t%d\t%d\t%s\n",
			l.ItemID,
			truncate(l.Title, 40),
			l.CurrencyID,
			l.Price,
			l.AvailableQuantity,
			l.SoldQuantity,
			l.Status,
		)
	}
	return tw.finish()
}

func printSalesTable(sales []domain.Sale) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("SALE ID\tDATE\tTITLE\tQTY\tTOTAL\tSHIPPING\tBUYER\n")
	for i := range sales {
		s := &sales[i]
		shipping := s.ShippingStatus
		if shipping == "" {
			shipping = "-"
		}
		buyer := s.BuyerNickname
		if buyer == "" {
			buyer = "-"
		}
		tw.writef("%s\t%s\t%s\t%d\t%.2f\t%s\t%s\n",
			s.SaleID,
			s.SaleDate.Format("2006-01-02 15:04"),
			truncate(s.PublicationTitle, 32),
			s.Quantity,
			s.TotalAmount,
			shipping,
			buyer,
		)
	}
	return tw.finish()
}

func printSyncRunsTable(runs []domain.SyncRun) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("JOB\tSTATUS\tSTARTED\tCOMPLETED\tROWS\tERROR\n")
	for i := range runs {
		r := &runs[i]
		completed := "-"
		if r.CompletedAt != nil {
			completed = r.CompletedAt.Format("2006-01-02 15:04:05")
		}
		rows := "-"
		if r.RowsAffected != nil {
			rows = fmt.Sprintf("%d", *r.RowsAffected)
		}
		tw.writef("%s\t%s\t%s\t%s\t%s\t%s\n",
			r.JobName,
			r.Status,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			completed,
			rows,
			truncate(r.ErrorText, 40),
		)
	}
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
