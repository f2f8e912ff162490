package explain

import "context"

// System defines the public contract for explanation operations.
type System interface {
	Explain(ctx context.Context, date string, index int) (*Explanation, error)
}
