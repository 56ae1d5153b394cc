package registry

import (
	"context"

	"github.com/blackwell-systems/addonsweep/internal/extension"
)

// Registry is the host extension registry as seen by addonsweep: read the
// product family, read one record, delete one record.
type Registry interface {
	ListFamily(ctx context.Context, prefix string) ([]*extension.Record, error)
	Get(ctx context.Context, id int64) (*extension.Record, error)
	Delete(ctx context.Context, id int64) error
	Close() error
}

var _ Registry = (*Store)(nil)
