package payment

import (
	"strings"

	"storefront/internal/structs"
	"storefront/pkg/config"
)

const (
	DefaultSuccessPattern = "/payment-success"
	DefaultFailurePattern = "/payment-failed"
)

// OutcomeDetector classifies a URL the hosted payment page navigated to.
type OutcomeDetector interface {
	Detect(url string) structs.PaymentOutcome
}

// URLPatternDetector matches substrings of the navigated URL.
type URLPatternDetector struct {
	Success string
	Failure string
}

func NewDetectorFromConfig(cfg config.IConfig) OutcomeDetector {
	return NewURLPatternDetector(
		cfg.GetString("payment.success_pattern"),
		cfg.GetString("payment.failure_pattern"),
	)
}

func NewURLPatternDetector(success, failure string) URLPatternDetector {
	if success == "" {
		success = DefaultSuccessPattern
	}
	if failure == "" {
		failure = DefaultFailurePattern
	}
	return URLPatternDetector{Success: success, Failure: failure}
}

func (d URLPatternDetector) Detect(url string) structs.PaymentOutcome {
	switch {
	case strings.Contains(url, d.Success):
		return structs.PaymentOutcomeSuccess
	case strings.Contains(url, d.Failure):
		return structs.PaymentOutcomeFailed
	default:
		return structs.PaymentOutcomePending
	}
}
