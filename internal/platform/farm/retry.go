package farm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/imamik/infrasmoke/internal/util/retry"
)

// Call is one attempt of a Farm request.
type Call func(ctx context.Context) (*Response, error)

// CallWithRetry invokes call until it returns a response with the expected
// status or the budget is spent, sleeping the client's fixed retry delay between
// attempts. Transport failures and wrong statuses are retried alike.
//
// On exhaustion it returns a *RetryError when any response was received and a
// *NoResponseError otherwise.
func (c *Client) CallWithRetry(ctx context.Context, call Call, expected int, budget time.Duration) (*Response, error) {
	var (
		result  *Response
		last    *Response
		lastErr error
	)

	err := retry.Until(ctx, func(ctx context.Context) error {
		resp, err := call(ctx)
		if err != nil {
			lastErr = err
			return err
		}
		last = resp
		if resp.StatusCode != expected {
			return &StatusError{
				URL:        resp.URL,
				StatusCode: resp.StatusCode,
				Expected:   expected,
				Body:       resp.Text(),
			}
		}
		result = resp
		return nil
	},
		retry.WithTimeout(budget),
		retry.WithDelay(c.retryDelay),
		retry.WithOnRetry(func(attempt int, err error) {
			c.logger.V(1).Info(fmt.Sprintf("%v. Retrying in %v ...", err, c.retryDelay), "attempt", attempt)
		}),
	)
	if err == nil {
		return result, nil
	}

	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) {
		return nil, err
	}
	if last == nil {
		return nil, &NoResponseError{Attempts: exhausted.Attempts, Err: lastErr}
	}
	return nil, &RetryError{
		URL:        last.URL,
		Attempts:   exhausted.Attempts,
		StatusCode: last.StatusCode,
		Message:    last.Text(),
	}
}

// RetryOK is CallWithRetry expecting 200 within the client's default budget.
func (c *Client) RetryOK(ctx context.Context, call Call) (*Response, error) {
	return c.CallWithRetry(ctx, call, http.StatusOK, c.retryBudget)
}
