package results

import "context"

// System defines the public contract for result domain operations.
type System interface {
	Handler() *Handler

	Load(ctx context.Context) (*Store, error)
	AnomaliesOn(ctx context.Context, date string) ([]Anomaly, error)
	Calendar(ctx context.Context) (*Calendar, error)
	Status(ctx context.Context) (*Status, error)
}
