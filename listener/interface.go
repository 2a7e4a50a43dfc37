package listener

import "context"

type Interface interface {
	// Listen runs the capture loop until the context is canceled or the
	// stream fails. The audio device is released before it returns.
	Listen(ctx context.Context) error
}
