package app

import (
	"context"
	"errors"
	"testing"
)

type flakyClient struct {
	failures int
	calls    int
	err      error
}

func (c *flakyClient) Complete(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("not used")
}

func (c *flakyClient) Stream(ctx context.Context, prompt string, onDelta func(string)) (string, error) {
	c.calls++
	if c.calls <= c.failures {
		return "", c.err
	}
	onDelta("ok")
	return "ok", nil
}

func TestIsRetriableStreamError(t *testing.T) {
	cases := []struct {
		errText string
		want    bool
	}{
		{"api error: status 429: slow down", true},
		{"rate limit exhausted", true},
		{"quota exceeded for project", true},
		{"server overloaded, try later", true},
		{"api error: status 500: boom", false},
		{"context deadline exceeded", false},
	}
	for _, tc := range cases {
		got := isRetriableStreamError(errors.New(tc.errText))
		if got != tc.want {
			t.Fatalf("isRetriableStreamError(%q) = %v, want %v", tc.errText, got, tc.want)
		}
	}
}

func TestStreamWithRetryRecoversFromRateLimit(t *testing.T) {
	c := &flakyClient{failures: 2, err: errors.New("rate limit")}

	var lastBuffer string
	out, err := streamWithRetry(context.Background(), c, "p", func(total string) {
		lastBuffer = total
	})
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if out != "ok" || lastBuffer != "ok" {
		t.Fatalf("unexpected output %q / buffer %q", out, lastBuffer)
	}
	if c.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", c.calls)
	}
}

func TestStreamWithRetryGivesUpAfterBound(t *testing.T) {
	c := &flakyClient{failures: 10, err: errors.New("quota exceeded")}

	_, err := streamWithRetry(context.Background(), c, "p", nil)
	if err == nil {
		t.Fatal("expected failure after bounded retries")
	}
	if c.calls != streamRetryAttempts {
		t.Fatalf("expected %d attempts, got %d", streamRetryAttempts, c.calls)
	}
}

func TestStreamWithRetryNonRetriableFailsFast(t *testing.T) {
	c := &flakyClient{failures: 10, err: errors.New("api error: status 401: bad key")}

	_, err := streamWithRetry(context.Background(), c, "p", nil)
	if err == nil {
		t.Fatal("expected immediate failure")
	}
	if c.calls != 1 {
		t.Fatalf("non-retriable errors must not be retried, got %d calls", c.calls)
	}
}
