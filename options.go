package chainmap

import "github.com/rs/zerolog"

// Option configures a map at creation.
type Option func(*options)

type options struct {
	logger zerolog.Logger
}

func defaultOptions() options {
	return options{logger: zerolog.Nop()}
}

// WithLogger sets the logger that receives resize events at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
