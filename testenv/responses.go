package testenv

import (
	"fmt"
	"net/http"
	"strings"

	"rollout-manager/rollout"
)

// RolloutsBody builds a rollouts-list response body for a single winning
// rollout, in the exact shape the Service Management API returns.
func RolloutsBody(rolloutId string, percentages map[string]int) []byte {
	var pairs []string
	for id, pct := range percentages {
		pairs = append(pairs, fmt.Sprintf(`"%s":%d`, id, pct))
	}
	return []byte(fmt.Sprintf(`{"rollouts":[{"rolloutId":"%s","trafficPercentStrategy":{"percentages":{%s}},"serviceName":"echo"}]}`,
		rolloutId, strings.Join(pairs, ",")))
}

// RouteByURL builds a Responder that dispatches to onRollouts for the
// rollouts-list endpoint and to onConfig (with the trailing configId) for
// a config-fetch endpoint.
func RouteByURL(onRollouts func() rollout.HttpResult, onConfig func(configId string) rollout.HttpResult) Responder {
	return func(req rollout.HttpRequest) rollout.HttpResult {
		if strings.Contains(req.URL, "/rollouts?") {
			return onRollouts()
		}
		idx := strings.LastIndex(req.URL, "/")
		configId := req.URL[idx+1:]
		return onConfig(configId)
	}
}

// OK wraps body in a 200 HttpResult.
func OK(body []byte) rollout.HttpResult {
	return rollout.HttpResult{StatusCode: http.StatusOK, Body: body}
}

// NotFound builds a 404 HttpResult with no body.
func NotFound() rollout.HttpResult {
	return rollout.HttpResult{StatusCode: http.StatusNotFound}
}
