package ledger

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const statementSheet = "Ledger"

var statementHeaders = []string{"Date", "Description", "Debit", "Credit", "Balance"}

// ExportStatement renders the patient's ledger as an XLSX workbook.
func (s *Service) ExportStatement(ctx context.Context, patientID uuid.UUID, currencySymbol string) ([]byte, error) {
	l, err := s.Ledger(ctx, patientID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := WriteStatement(&buf, l, currencySymbol); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteStatement writes one row per entry in display order, then a totals
// row and the outstanding balance.
func WriteStatement(w io.Writer, l *Ledger, currencySymbol string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", statementSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2F5597"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	moneyFmt := fmt.Sprintf(`"%s"#,##0.00;-"%s"#,##0.00`, currencySymbol, currencySymbol)
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return fmt.Errorf("money style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &moneyFmt})
	if err != nil {
		return fmt.Errorf("total style: %w", err)
	}

	for col, header := range statementHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(statementSheet, cell, header); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(statementSheet, "A1", "E1", headerStyle); err != nil {
		return err
	}

	row := 2
	for _, e := range l.Entries {
		values := []interface{}{
			e.Date.Format(DateLayout),
			e.Description,
			e.Debit.InexactFloat64(),
			e.Credit.InexactFloat64(),
			e.RunningBalance.InexactFloat64(),
		}
		if err := setRow(f, row, values); err != nil {
			return err
		}
		row++
	}
	if row > 2 {
		if err := f.SetCellStyle(statementSheet, "C2", fmt.Sprintf("E%d", row-1), moneyStyle); err != nil {
			return err
		}
	}

	totals := []interface{}{"", "Totals", l.Totals.Debit.InexactFloat64(), l.Totals.Credit.InexactFloat64(), ""}
	if err := setRow(f, row, totals); err != nil {
		return err
	}
	balance := []interface{}{"", "Outstanding balance", "", "", l.Balance.InexactFloat64()}
	if err := setRow(f, row+1, balance); err != nil {
		return err
	}
	if err := f.SetCellStyle(statementSheet, fmt.Sprintf("B%d", row), fmt.Sprintf("E%d", row+1), totalStyle); err != nil {
		return err
	}

	widths := map[string]float64{"A": 12, "B": 44, "C": 14, "D": 14, "E": 16}
	for col, width := range widths {
		if err := f.SetColWidth(statementSheet, col, col, width); err != nil {
			return err
		}
	}
	if err := f.SetPanes(statementSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(statementSheet, cell, &values)
}
