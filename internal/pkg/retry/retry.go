package retry

import (
	"time"

	pkghttp "github.com/dominiq/maturity-backend/pkg/http"
)

type RetryConfig struct {
	Attempts    uint          `env:"ATTEMPTS" envDefault:"3"`
	Delay       time.Duration `env:"DELAY" envDefault:"500ms"`
	MaxDelay    time.Duration `env:"MAX_DELAY" envDefault:"4s"`
	StatusCodes []int         `env:"STATUS_CODES" envDefault:"429,500,502,503,504" envSeparator:","`
	Methods     []string      `env:"METHODS" envDefault:"GET,POST,PUT" envSeparator:","`
}

// ToRetryPolicy converts the env configuration into a transport retry policy
func (rc *RetryConfig) ToRetryPolicy() pkghttp.RetryPolicy {
	policy := pkghttp.RetryPolicy{
		Attempts:    rc.Attempts,
		Delay:       rc.Delay,
		MaxDelay:    rc.MaxDelay,
		StatusCodes: rc.StatusCodes,
		Methods:     rc.Methods,
	}

	defaults := pkghttp.DefaultRetryPolicy()
	if len(policy.StatusCodes) == 0 {
		policy.StatusCodes = defaults.StatusCodes
	}
	if len(policy.Methods) == 0 {
		policy.Methods = defaults.Methods
	}

	return policy
}
