package assembler

import (
	"net/http"
	"testing"
	"time"

	"rollout-manager/rollout"
	"rollout-manager/testenv"
)

func newAssembleEnv(responder testenv.Responder) *testenv.FakeEnvironment {
	env := testenv.NewFakeEnvironment(time.Unix(0, 0))
	env.Responder = responder
	return env
}

func TestAssembleAllSucceed(t *testing.T) {
	env := newAssembleEnv(func(req rollout.HttpRequest) rollout.HttpResult {
		return testenv.OK([]byte("payload-for-" + req.URL[len(req.URL)-1:]))
	})

	refs := []rollout.ConfigRef{
		{Id: "cfg-a", Percent: 60},
		{Id: "cfg-b", Percent: 40},
	}

	var got rollout.AssembleResult
	NewFanOutAssembler(DefaultMaxConcurrentFetches).Assemble("echo", refs, env, func(r rollout.AssembleResult) { got = r })

	if got.Err != nil {
		t.Fatalf("unexpected error: %v", got.Err)
	}
	if len(got.Configs) != 2 {
		t.Fatalf("expected 2 configs, got %d", len(got.Configs))
	}
	if got.Configs[0].Config.Id != "cfg-a" || got.Configs[0].Percent != 60 {
		t.Fatalf("config 0 mismatch: %+v", got.Configs[0])
	}
	if got.Configs[1].Config.Id != "cfg-b" || got.Configs[1].Percent != 40 {
		t.Fatalf("config 1 mismatch: %+v", got.Configs[1])
	}
}

func TestAssembleSingleFailureSuppressesWholeCycle(t *testing.T) {
	env := newAssembleEnv(func(req rollout.HttpRequest) rollout.HttpResult {
		if req.URL[len(req.URL)-1:] == "b" {
			return rollout.HttpResult{StatusCode: http.StatusNotFound}
		}
		return testenv.OK([]byte("ok"))
	})

	refs := []rollout.ConfigRef{
		{Id: "cfg-a", Percent: 60},
		{Id: "cfg-b", Percent: 40},
	}

	var got rollout.AssembleResult
	NewFanOutAssembler(DefaultMaxConcurrentFetches).Assemble("echo", refs, env, func(r rollout.AssembleResult) { got = r })

	if got.Err != rollout.ErrPartialConfig {
		t.Fatalf("expected ErrPartialConfig, got %v", got.Err)
	}
	if got.Configs != nil {
		t.Fatalf("expected no partial configs to be delivered, got %v", got.Configs)
	}
}

func TestAssembleTransportErrorCountsAsFailure(t *testing.T) {
	env := newAssembleEnv(nil) // nil Responder forces ErrTransport on every call

	refs := []rollout.ConfigRef{{Id: "cfg-a", Percent: 100}}

	var got rollout.AssembleResult
	NewFanOutAssembler(DefaultMaxConcurrentFetches).Assemble("echo", refs, env, func(r rollout.AssembleResult) { got = r })

	if got.Err != rollout.ErrPartialConfig {
		t.Fatalf("expected ErrPartialConfig, got %v", got.Err)
	}
}

func TestAssembleEmptyBodyCountsAsFailure(t *testing.T) {
	env := newAssembleEnv(func(req rollout.HttpRequest) rollout.HttpResult {
		return testenv.OK(nil)
	})

	refs := []rollout.ConfigRef{{Id: "cfg-a", Percent: 100}}

	var got rollout.AssembleResult
	NewFanOutAssembler(DefaultMaxConcurrentFetches).Assemble("echo", refs, env, func(r rollout.AssembleResult) { got = r })

	if got.Err != rollout.ErrPartialConfig {
		t.Fatalf("expected ErrPartialConfig for empty body, got %v", got.Err)
	}
}

func TestAssembleEmptyRefsIsVacuousSuccess(t *testing.T) {
	env := newAssembleEnv(func(req rollout.HttpRequest) rollout.HttpResult {
		t.Fatal("no HTTP call should be made for an empty ref list")
		return rollout.HttpResult{}
	})

	var got rollout.AssembleResult
	NewFanOutAssembler(DefaultMaxConcurrentFetches).Assemble("echo", nil, env, func(r rollout.AssembleResult) { got = r })

	if got.Err != nil {
		t.Fatalf("unexpected error: %v", got.Err)
	}
	if len(got.Configs) != 0 {
		t.Fatalf("expected no configs, got %v", got.Configs)
	}
}

func TestAssembleDefaultsMaxConcurrentWhenNonPositive(t *testing.T) {
	a := NewFanOutAssembler(0)
	if a.MaxConcurrent != DefaultMaxConcurrentFetches {
		t.Fatalf("expected default max concurrent %d, got %d", DefaultMaxConcurrentFetches, a.MaxConcurrent)
	}
}
