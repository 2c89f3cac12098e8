package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/landbridge/contract-ledger/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders a ledger statement workbook: a summary sheet, the
// reconstructed roster and the billing months with their event deltas.
func (g *Generator) Generate(statement model.LedgerStatement) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, statement); err != nil {
		return nil, err
	}

	rosterSheet := "Roster"
	file.NewSheet(rosterSheet)
	if err := g.writeRoster(file, rosterSheet, statement); err != nil {
		return nil, err
	}

	billingSheet := "Billing"
	file.NewSheet(billingSheet)
	if err := g.writeBilling(file, billingSheet, statement); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, statement model.LedgerStatement) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Contract")
	set("B1", statement.Contract.Name)
	set("A2", "Engagement type")
	set("B2", string(statement.Contract.EngagementType))
	set("A3", "Version")
	set("B3", statement.Contract.Version)
	set("A4", "As of")
	set("B4", formatDate(statement.AsOf))
	set("A5", "Engaged engineers")
	set("B5", len(statement.Engineers))
	set("A6", "Base total amount")
	set("B6", statement.Contract.BaseTotalAmount.StringFixed(2))

	_ = file.SetColWidth(sheet, "A", "A", 24)
	_ = file.SetColWidth(sheet, "B", "B", 32)
	return nil
}

func (g *Generator) writeRoster(file *excelize.File, sheet string, statement model.LedgerStatement) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"Engineer", "Role", "Level", "Rating", "Billing type", "Hourly rate", "Hours", "Monthly salary", "Start date", "End date"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, engineer := range statement.Engineers {
		row := i + 2
		set(fmt.Sprintf("A%d", row), engineer.EngineerID.String())
		set(fmt.Sprintf("B%d", row), engineer.Role)
		set(fmt.Sprintf("C%d", row), engineer.Level)
		set(fmt.Sprintf("D%d", row), engineer.Rating)
		set(fmt.Sprintf("E%d", row), string(engineer.BillingType))
		if engineer.HourlyRate != nil {
			set(fmt.Sprintf("F%d", row), engineer.HourlyRate.StringFixed(2))
		}
		if engineer.Hours != nil {
			set(fmt.Sprintf("G%d", row), engineer.Hours.String())
		}
		if engineer.MonthlySalary != nil {
			set(fmt.Sprintf("H%d", row), engineer.MonthlySalary.StringFixed(2))
		}
		set(fmt.Sprintf("I%d", row), formatDate(engineer.StartDate))
		if engineer.EndDate != nil {
			set(fmt.Sprintf("J%d", row), formatDate(*engineer.EndDate))
		}
	}

	_ = file.SetColWidth(sheet, "A", "A", 38)
	_ = file.SetColWidth(sheet, "B", "C", 20)
	_ = file.SetColWidth(sheet, "E", "J", 14)
	return nil
}

func (g *Generator) writeBilling(file *excelize.File, sheet string, statement model.LedgerStatement) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Month")
	set("B1", "Baseline amount")
	set("C1", "Description")

	row := 2
	for _, month := range statement.BillingMonths {
		set(fmt.Sprintf("A%d", row), month.BillingMonth.Format("2006-01"))
		set(fmt.Sprintf("B%d", row), month.Amount.StringFixed(2))
		set(fmt.Sprintf("C%d", row), month.Description)
		row++
	}

	row++
	set(fmt.Sprintf("A%d", row), "Month")
	set(fmt.Sprintf("B%d", row), "Event delta")
	set(fmt.Sprintf("C%d", row), "Description")
	row++
	for _, event := range statement.BillingEvents {
		set(fmt.Sprintf("A%d", row), event.BillingMonth.Format("2006-01"))
		set(fmt.Sprintf("B%d", row), event.DeltaAmount.StringFixed(2))
		set(fmt.Sprintf("C%d", row), event.Description)
		row++
	}

	_ = file.SetColWidth(sheet, "A", "B", 16)
	_ = file.SetColWidth(sheet, "C", "C", 42)
	return nil
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
