package health

import "context"

// BackendPinger checks that the document backend answers HTTP requests.
type BackendPinger interface {
	Ping(ctx context.Context) error
}
