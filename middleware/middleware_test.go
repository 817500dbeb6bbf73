package middleware

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"rollout-manager/rollout"
)

// echoHandler simulates a successful round trip.
func echoHandler(ctx context.Context, req rollout.HttpRequest) rollout.HttpResult {
	return rollout.HttpResult{StatusCode: 200, Body: []byte("ok")}
}

// slowHandler simulates a round trip that takes 200ms, honoring ctx
// cancellation the way the real net/http call does.
func slowHandler(ctx context.Context, req rollout.HttpRequest) rollout.HttpResult {
	select {
	case <-time.After(200 * time.Millisecond):
		return rollout.HttpResult{StatusCode: 200, Body: []byte("ok")}
	case <-ctx.Done():
		return rollout.HttpResult{Err: ctx.Err()}
	}
}

func TestLogging(t *testing.T) {
	handler := LoggingMiddleware(zap.NewNop())(echoHandler)

	res := handler(context.Background(), rollout.HttpRequest{URL: "https://example.test/rollouts"})

	if res.Err != nil {
		t.Fatalf("expect no error, got %v", res.Err)
	}
	if string(res.Body) != "ok" {
		t.Fatalf("expect body 'ok', got '%s'", res.Body)
	}
}

func TestTimeoutPass(t *testing.T) {
	handler := TimeOutMiddleware(500 * time.Millisecond)(echoHandler)

	res := handler(context.Background(), rollout.HttpRequest{})

	if res.Err != nil {
		t.Fatalf("expect no error, got %v", res.Err)
	}
}

func TestTimeoutExceeded(t *testing.T) {
	handler := TimeOutMiddleware(50 * time.Millisecond)(slowHandler)

	res := handler(context.Background(), rollout.HttpRequest{})

	if res.Err == nil {
		t.Fatal("expect a timeout error")
	}
}

func TestRateLimitAllowsBurst(t *testing.T) {
	// rate=1/sec, burst=2 — the first 2 calls pass through immediately.
	handler := RateLimitMiddleware(1, 2)(echoHandler)

	for i := 0; i < 2; i++ {
		res := handler(context.Background(), rollout.HttpRequest{})
		if res.Err != nil {
			t.Fatalf("request %d should pass, got error: %v", i, res.Err)
		}
	}
}

func TestRateLimitBlocksBeyondBurst(t *testing.T) {
	// Exhaust the burst, then issue a request bound by a deadline far
	// shorter than 1/rate — it must fail rather than silently wait.
	handler := RateLimitMiddleware(1, 2)(echoHandler)
	for i := 0; i < 2; i++ {
		handler(context.Background(), rollout.HttpRequest{})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	res := handler(ctx, rollout.HttpRequest{})
	if res.Err == nil {
		t.Fatal("expect the third request to be throttled by the limiter")
	}
}

func TestChain(t *testing.T) {
	chained := Chain(LoggingMiddleware(zap.NewNop()), TimeOutMiddleware(500*time.Millisecond))
	handler := chained(echoHandler)

	res := handler(context.Background(), rollout.HttpRequest{})

	if res.Err != nil {
		t.Fatalf("expect no error, got %v", res.Err)
	}
}
