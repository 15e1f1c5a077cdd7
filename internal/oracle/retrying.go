package oracle

import "context"

// retryingOracle decorates another oracle with the package retry policy.
// Contract violations pass through untouched; only transient failures are
// retried.
type retryingOracle struct {
	inner Oracle
	cfg   RetryConfig
}

func (r *retryingOracle) Name() string { return r.inner.Name() }

func (r *retryingOracle) Decide(ctx context.Context, req *Request) (*Decision, error) {
	var decision *Decision
	err := WithRetry(ctx, r.cfg, func() error {
		var callErr error
		decision, callErr = r.inner.Decide(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return decision, nil
}

func (r *retryingOracle) Reflect(ctx context.Context, memories []string) (string, error) {
	var text string
	err := WithRetry(ctx, r.cfg, func() error {
		var callErr error
		text, callErr = r.inner.Reflect(ctx, memories)
		return callErr
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (r *retryingOracle) HealthCheck(ctx context.Context) error {
	return r.inner.HealthCheck(ctx)
}

func (r *retryingOracle) Close() error {
	return r.inner.Close()
}
