// Package export writes the scholarship listing as a spreadsheet.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"zonebourse-go/internal/model"
)

const (
	Sheet       = "Bourses"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var header = []any{
	"ID", "Titre", "Université", "Pays", "Niveau d'études", "Domaine d'études",
	"Montant", "Date limite", "Description", "Conditions", "Procédure",
}

// Workbook builds a single-sheet workbook with one row per scholarship.
// The caller must Close it.
func Workbook(bourses []model.Bourse) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), Sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(Sheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, b := range bourses {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := []any{
			int64(b.ID), b.Titre, b.Universite, b.Pays, b.NiveauEtude, b.DomaineEtude,
			b.MontantBourse, b.DateLimite, b.Description, b.Conditions, b.ProcedurePostulation,
		}
		if err := f.SetSheetRow(Sheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(Sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("freeze header: %w", err)
	}
	return f, nil
}
