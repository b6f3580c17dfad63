package erd

import (
	"math"

	"github.com/matzehuels/erdraw/pkg/errors"
)

// Validate checks the diagram at the model boundary. Non-finite positions or
// widths are rejected with [errors.ErrCodeInvalidDiagram]; everything else
// (dangling relationship endpoints, missing columns, duplicate ids) is left
// for the algorithms to degrade around.
func (d *Diagram) Validate() error {
	for i := range d.Tables {
		t := &d.Tables[i]
		if t.ID.Name == "" {
			return errors.New(errors.ErrCodeInvalidDiagram, "table %d has an empty name", i)
		}
		if t.Position != nil {
			if err := errors.ValidateCoordinate(t.Position.X, t.Position.Y); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidDiagram, err, "table %s", t.ID)
			}
		}
		if t.Width != nil && (math.IsNaN(*t.Width) || math.IsInf(*t.Width, 0)) {
			return errors.New(errors.ErrCodeInvalidDiagram, "table %s has a non-finite width", t.ID)
		}
	}
	return nil
}
