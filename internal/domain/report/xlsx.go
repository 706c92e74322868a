package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/kailas-cloud/labcompare/internal/domain"
)

const sheetName = "Comparison"

// WriteXLSX exports a comparison as a single-sheet workbook: one row per
// recommended test, one column per lab, then minimum, cheapest lab and maximum.
func WriteXLSX(path string, c *domain.Comparison) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	header.AddCell().SetString("Test")
	for _, lab := range c.Labs {
		header.AddCell().SetString(string(lab))
	}
	header.AddCell().SetString(string(domain.RecommendedLab))
	header.AddCell().SetString("Cheapest Lab")
	header.AddCell().SetString("Max")

	for _, r := range c.Recommendations {
		row := sheet.AddRow()
		row.AddCell().SetString(string(r.Test))
		for _, lab := range c.Labs {
			cell := row.AddCell()
			if p, ok := c.Prices[r.Test][lab]; ok {
				cell.SetInt(p)
			}
		}
		row.AddCell().SetInt(r.Price)
		row.AddCell().SetString(string(r.Lab))
		row.AddCell().SetInt(r.Max)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}
