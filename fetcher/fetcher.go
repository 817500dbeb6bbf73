// Package fetcher issues the rollouts-list request against the Service
// Management API and extracts the winning rollout's config references.
//
// The request/parse shape follows the same discovery pattern used
// elsewhere for registry lookups: issue one GET against a well-known key
// or URL, unmarshal the JSON payload into a typed list, and hand the
// caller a slice built from it.
package fetcher

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"rollout-manager/rollout"
)

const rolloutsURLTemplate = "https://servicemanagement.googleapis.com/v1/services/%s/rollouts?filter=status=SUCCESS"

// rolloutsResponse mirrors the fields the controller actually reads from
// the rollouts-list response. createTime/createdBy/status are intentionally
// absent — the controller never looks at them.
type rolloutsResponse struct {
	Rollouts []rolloutEntry `json:"rollouts"`
}

type rolloutEntry struct {
	RolloutId             string `json:"rolloutId"`
	TrafficPercentStrategy struct {
		Percentages map[string]int `json:"percentages"`
	} `json:"trafficPercentStrategy"`
	ServiceName string `json:"serviceName"`
}

// HTTPFetcher is the concrete rollout.Fetcher backed by EnvironmentPort's
// RunHttpRequest.
type HTTPFetcher struct{}

// NewHTTPFetcher returns a ready-to-use HTTPFetcher. It carries no state —
// every call is parameterized by the serviceName and env passed to Fetch.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{}
}

// Fetch implements rollout.Fetcher.
func (f *HTTPFetcher) Fetch(serviceName string, env rollout.EnvironmentPort, done func(rollout.RolloutFetchResult)) {
	url := fmt.Sprintf(rolloutsURLTemplate, serviceName)
	env.RunHttpRequest(rollout.HttpRequest{URL: url}, func(res rollout.HttpResult) {
		done(parseRolloutsResult(res))
	})
}

func parseRolloutsResult(res rollout.HttpResult) rollout.RolloutFetchResult {
	if res.Err != nil {
		return rollout.RolloutFetchResult{Err: rollout.ErrTransport}
	}
	if res.StatusCode != http.StatusOK {
		return rollout.RolloutFetchResult{Err: rollout.ErrHTTPStatus}
	}

	var parsed rolloutsResponse
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return rollout.RolloutFetchResult{Err: rollout.ErrParse}
	}
	if len(parsed.Rollouts) == 0 {
		return rollout.RolloutFetchResult{Err: rollout.ErrEmptyRollout}
	}

	// The control plane returns newest-first; the first entry in document
	// order wins.
	winner := parsed.Rollouts[0]
	if winner.RolloutId == "" {
		return rollout.RolloutFetchResult{Err: rollout.ErrParse}
	}

	refs := make([]rollout.ConfigRef, 0, len(winner.TrafficPercentStrategy.Percentages))
	for id, percent := range winner.TrafficPercentStrategy.Percentages {
		refs = append(refs, rollout.ConfigRef{Id: rollout.ConfigId(id), Percent: percent})
	}
	// Go map iteration order is random; percentages must be deterministic
	// for a given response so test assertions are stable.
	sort.Slice(refs, func(i, j int) bool { return refs[i].Id < refs[j].Id })

	return rollout.RolloutFetchResult{
		RolloutId: rollout.Id(winner.RolloutId),
		Configs:   refs,
	}
}
