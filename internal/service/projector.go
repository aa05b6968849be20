package service

import (
	"fmt"

	"travelchat/internal/catalog"
	"travelchat/internal/model"
)

// Projector selects and renames the public fields of matching rows.
type Projector struct {
	fields []catalog.Projection
}

func NewProjector(fields []catalog.Projection) *Projector {
	return &Projector{fields: fields}
}

// Project builds one public listing per row index, in the given order.
// Absent values become "". A projected column missing from the table is a
// projection error.
func (p *Projector) Project(rows []int, table *model.Table) ([]model.PublicListing, error) {
	if table == nil {
		return nil, newError(ClassProjection, "Failed to build response payload", fmt.Errorf("no table"))
	}

	idx := make([]int, len(p.fields))
	for i, f := range p.fields {
		col, ok := table.ColumnIndex(f.Source)
		if !ok {
			return nil, newError(ClassProjection, "Failed to build response payload",
				fmt.Errorf("column %q required for field %q is missing from the dataset", f.Source, f.Name))
		}
		idx[i] = col
	}

	out := make([]model.PublicListing, 0, len(rows))
	for _, r := range rows {
		if r < 0 || r >= table.Len() {
			return nil, newError(ClassProjection, "Failed to build response payload",
				fmt.Errorf("row %d out of range", r))
		}
		listing := make(model.PublicListing, len(p.fields))
		for i, f := range p.fields {
			listing[i] = model.Field{Name: f.Name, Value: table.Cell(r, idx[i]).Interface()}
		}
		out = append(out, listing)
	}
	return out, nil
}
