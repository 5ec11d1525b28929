package output

import (
	"context"

	"github.com/crimson-sun/clinote/internal/model"
)

// Output defines the interface for analysis destinations.
type Output interface {
	Write(ctx context.Context, a model.Analysis) error
	Close() error
}
