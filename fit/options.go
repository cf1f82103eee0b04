package fit

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arloliu/bayesfit/errs"
	"github.com/arloliu/bayesfit/internal/options"
	"github.com/arloliu/bayesfit/sampler"
)

// Config collects the settings of a single Invoke call.
type Config struct {
	Sampler sampler.Config
	Engine  Engine
	Logger  *zap.Logger
	Clock   func() time.Time

	warmupSet bool
}

// Option configures Invoke.
type Option = options.Option[*Config]

func defaultConfig() *Config {
	return &Config{
		Sampler: sampler.DefaultConfig(),
		Logger:  zap.NewNop(),
		Clock:   time.Now,
	}
}

// WithIterations sets the number of iterations per chain, warmup included.
// Unless WithWarmup is given, warmup is half of it.
func WithIterations(n int) Option {
	return options.New(func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("%w: iterations must be positive, got %d", errs.ErrInvalidArgument, n)
		}
		c.Sampler.Iterations = n

		return nil
	})
}

// WithWarmup sets the number of warmup iterations per chain.
func WithWarmup(n int) Option {
	return options.New(func(c *Config) error {
		if n < 0 {
			return fmt.Errorf("%w: warmup must not be negative, got %d", errs.ErrInvalidArgument, n)
		}
		c.Sampler.Warmup = n
		c.warmupSet = true

		return nil
	})
}

// WithChains sets the number of chains.
func WithChains(n int) Option {
	return options.New(func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("%w: chains must be positive, got %d", errs.ErrInvalidArgument, n)
		}
		c.Sampler.Chains = n

		return nil
	})
}

// WithThin keeps every n-th post-warmup draw.
func WithThin(n int) Option {
	return options.New(func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("%w: thin must be positive, got %d", errs.ErrInvalidArgument, n)
		}
		c.Sampler.Thin = n

		return nil
	})
}

// WithSeed sets the base seed; chain c uses seed+c.
func WithSeed(seed uint64) Option {
	return options.NoError(func(c *Config) {
		c.Sampler.Seed = seed
	})
}

// WithMaxTreeDepth caps the NUTS trajectory at 2^depth leapfrog steps.
func WithMaxTreeDepth(depth int) Option {
	return options.NoError(func(c *Config) {
		c.Sampler.MaxTreeDepth = depth
	})
}

// WithTargetAccept sets the acceptance statistic targeted during warmup.
func WithTargetAccept(delta float64) Option {
	return options.NoError(func(c *Config) {
		c.Sampler.TargetAccept = delta
	})
}

// WithSequentialChains runs chains one after another instead of concurrently.
func WithSequentialChains() Option {
	return options.NoError(func(c *Config) {
		c.Sampler.Parallel = false
	})
}

// WithSamplerConfig replaces the whole sampler configuration.
func WithSamplerConfig(cfg sampler.Config) Option {
	return options.NoError(func(c *Config) {
		c.Sampler = cfg
		c.warmupSet = true
	})
}

// WithEngine replaces the sampling engine. Without it Invoke uses a
// sampler.NUTS that logs through the configured logger.
func WithEngine(engine Engine) Option {
	return options.New(func(c *Config) error {
		if engine == nil {
			return fmt.Errorf("%w: engine must not be nil", errs.ErrInvalidArgument)
		}
		c.Engine = engine

		return nil
	})
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(c *Config) {
		if logger == nil {
			logger = zap.NewNop()
		}
		c.Logger = logger
	})
}

// WithClock overrides time.Now for elapsed time and the summary timestamp.
func WithClock(clock func() time.Time) Option {
	return options.NoError(func(c *Config) {
		if clock != nil {
			c.Clock = clock
		}
	})
}
