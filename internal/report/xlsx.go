// Package report exports quote comparisons as spreadsheet files.
package report

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/scriptradar/rxquote/internal/model"
)

var header = []string{
	"Pharmacy", "Cash Price", "Insurance Price", "Membership Price",
	"Coupon Provider", "Coupon Price", "Best Option", "Savings", "Source",
}

// WriteXLSX writes a quote comparison workbook to path. One summary row for
// the request, then one row per pharmacy in quote order.
func WriteXLSX(result *model.QuoteResult, path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Quotes")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	summary := sheet.AddRow()
	summary.AddCell().SetString(fmt.Sprintf("%s (%s)", result.Medication, result.GenericName))
	summary.AddCell().SetString(fmt.Sprintf("%d units, %s", result.ActualUnits, result.Dosing.Description))
	summary.AddCell().SetString("source: " + string(result.Wholesale.Provenance))
	if result.Wholesale.Estimated {
		summary.AddCell().SetString("pricing estimated")
	}
	sheet.AddRow() // spacer

	head := sheet.AddRow()
	for _, h := range header {
		head.AddCell().SetString(h)
	}

	for _, q := range result.Quotes {
		row := sheet.AddRow()
		row.AddCell().SetString(q.Pharmacy.Name)
		row.AddCell().SetFloatWithFormat(q.CashPrice, "0.00")
		row.AddCell().SetFloatWithFormat(q.InsurancePrice, "0.00")
		row.AddCell().SetFloatWithFormat(q.MembershipPrice, "0.00")
		if q.Coupon != nil {
			row.AddCell().SetString(q.Coupon.Provider)
			row.AddCell().SetFloatWithFormat(q.Coupon.Price, "0.00")
		} else {
			row.AddCell().SetString("")
			row.AddCell().SetString("")
		}
		row.AddCell().SetString(string(q.BestOption))
		row.AddCell().SetFloatWithFormat(q.Savings, "0.00")
		row.AddCell().SetString(q.Copay.Source)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "report: save workbook")
	}
	return nil
}
