package envsmith

import (
	"os"
	"time"

	"go.uber.org/zap"
)

// Option configures loading, validation, and watching.
type Option func(*options)

type options struct {
	base           map[string]string
	override       bool
	expand         bool
	keepUnresolved bool
	failFast       bool
	allowMissing   bool
	noSecrets      bool
	fallback       LookupFunc

	strict     bool
	validators map[string]ValidatorFunc
	transforms map[string]TransformFunc

	interval  time.Duration
	minReload time.Duration
	schema    *Schema

	logger *zap.Logger
}

func newOptions(opts []Option) *options {
	o := &options{
		expand:    true,
		fallback:  os.LookupEnv,
		interval:  time.Second,
		minReload: 250 * time.Millisecond,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithBase merges file values onto an existing base map, typically a
// snapshot of the process environment. Whether file values replace base
// values is controlled by WithOverride.
func WithBase(base map[string]string) Option {
	return func(o *options) { o.base = base }
}

// WithOverride controls precedence against the base map: true lets
// file-supplied values replace base values, false (the default) keeps
// values already present in the base.
func WithOverride(override bool) Option {
	return func(o *options) { o.override = override }
}

// WithExpand enables or disables ${VAR} reference expansion (default on).
func WithExpand(expand bool) Option {
	return func(o *options) { o.expand = expand }
}

// WithKeepUnresolved leaves references to undefined names as literal text
// instead of failing the load.
func WithKeepUnresolved() Option {
	return func(o *options) { o.keepUnresolved = true }
}

// WithFailFast aborts loading at the first unparseable line instead of
// collecting every parse error.
func WithFailFast() Option {
	return func(o *options) { o.failFast = true }
}

// WithAllowMissing skips source files that do not exist instead of
// returning ErrFileNotFound.
func WithAllowMissing() Option {
	return func(o *options) { o.allowMissing = true }
}

// WithNoSecrets disables the secret-resolution stage; scheme://... values
// pass through untouched.
func WithNoSecrets() Option {
	return func(o *options) { o.noSecrets = true }
}

// WithFallback sets the lookup consulted for names not defined in the
// loaded map during expansion. Defaults to os.LookupEnv.
func WithFallback(fn LookupFunc) Option {
	return func(o *options) { o.fallback = fn }
}

// WithStrict makes validation report keys present in the map but absent
// from the schema.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithValidators supplies named validator functions that file-loaded
// schemas reference through their "validator" option.
func WithValidators(validators map[string]ValidatorFunc) Option {
	return func(o *options) { o.validators = validators }
}

// WithTransforms supplies named transform functions that file-loaded
// schemas reference through their "transform" option.
func WithTransforms(transforms map[string]TransformFunc) Option {
	return func(o *options) { o.transforms = transforms }
}

// WithInterval sets the watcher polling interval (default 1s).
func WithInterval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

// WithMinReload bounds how often the watcher may run the pipeline, even if
// the file modification time keeps flapping (default 250ms).
func WithMinReload(d time.Duration) Option {
	return func(o *options) { o.minReload = d }
}

// WithSchema makes the watcher validate each reloaded map against schema
// and deliver the typed result alongside the raw map.
func WithSchema(schema *Schema) Option {
	return func(o *options) { o.schema = schema }
}

// WithLogger sets the logger used for debug output. Defaults to a no-op
// logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
