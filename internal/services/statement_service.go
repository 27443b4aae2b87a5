package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log"

	"pos-backend/internal/models"
	"pos-backend/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
)

// Archiver stores rendered statements, e.g. in an S3 bucket
type Archiver interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// StatementData is everything a rendered statement shows
type StatementData struct {
	Wallet *models.Wallet         `json:"wallet"`
	Lines  []models.StatementLine `json:"lines"`
}

// StatementService renders wallet statements and optionally archives them.
type StatementService struct {
	Ledger  *LedgerService
	Archive Archiver
	Prefix  string
	Clock   timeutil.Clock
}

func NewStatementService(ledger *LedgerService, archive Archiver, prefix string, clock timeutil.Clock) *StatementService {
	return &StatementService{Ledger: ledger, Archive: archive, Prefix: prefix, Clock: clock}
}

func (s *StatementService) GetStatementData(ctx context.Context, walletID string) (*StatementData, error) {
	w, lines, err := s.Ledger.Statement(ctx, walletID)
	if err != nil {
		return nil, err
	}
	return &StatementData{Wallet: w, Lines: lines}, nil
}

// GenerateStatementPDF renders the statement as an A4 table
func (s *StatementService) GenerateStatementPDF(data *StatementData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Wallet Statement", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", s.Clock.Now().Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Wallet info box
	w := data.Wallet
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Wallet", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Name: %s", w.Name), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Type: %s", w.Type), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Client: %s", w.ClientID), "LB", 0, "L", false, 0, "")
	status := "Active"
	if !w.IsActive {
		status = "Inactive"
	}
	pdf.CellFormat(95, 7, fmt.Sprintf("Status: %s", status), "RB", 1, "L", false, 0, "")
	pdf.Ln(5)

	// Entries table
	pdf.SetFillColor(200, 200, 200)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(35, 7, "Date", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Source", "1", 0, "C", true, 0, "")
	pdf.CellFormat(65, 7, "Description", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Amount", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Balance", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, l := range data.Lines {
		pdf.CellFormat(35, 6, l.CreatedAt.In(timeutil.Location).Format(timeutil.DisplayLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, string(l.Source.Kind), "1", 0, "C", false, 0, "")
		pdf.CellFormat(65, 6, truncate(l.Description, 40), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, l.Amount.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, l.RunningBalance.Amount.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	// Closing balance
	if w.Balance.Amount.IsNegative() {
		pdf.SetFillColor(255, 200, 200) // Light red for debit balance
	} else {
		pdf.SetFillColor(200, 255, 200)
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(160, 8, "Closing balance", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 8, w.Balance.String(), "1", 1, "R", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render statement pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateStatementCSV renders the statement as CSV
func (s *StatementService) GenerateStatementCSV(data *StatementData) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	writer.Write([]string{"Entry ID", "Date", "Source", "Source ID", "Description", "Amount", "Currency", "Balance"})
	for _, l := range data.Lines {
		writer.Write([]string{
			l.ID,
			l.CreatedAt.Format(timeutil.DateTimeLayout),
			string(l.Source.Kind),
			l.Source.ID,
			l.Description,
			l.Amount.Amount.StringFixed(2),
			l.Amount.Currency,
			l.RunningBalance.Amount.StringFixed(2),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ArchiveStatement renders the PDF and stores it under
// <prefix><wallet>/<date>.pdf. It returns the object key.
func (s *StatementService) ArchiveStatement(ctx context.Context, walletID string) (string, error) {
	if s.Archive == nil {
		return "", fmt.Errorf("%w: statement archive not configured", models.ErrInvalidInput)
	}
	data, err := s.GetStatementData(ctx, walletID)
	if err != nil {
		return "", err
	}
	pdf, err := s.GenerateStatementPDF(data)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s%s/%s.pdf", s.Prefix, walletID, s.Clock.Now().Format("20060102-150405"))
	if err := s.Archive.Put(ctx, key, pdf, "application/pdf"); err != nil {
		return "", fmt.Errorf("archive statement: %w", err)
	}
	log.Printf("[Statements] Archived statement of wallet %s as %s", walletID, key)
	return key, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
