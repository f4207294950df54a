// Package mastra is the client for the remote agent-orchestration service
// that persists conversation threads and streams chat responses.
package mastra

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/toasahi/ramen-agent/internal/config"
	"github.com/toasahi/ramen-agent/internal/request"
)

// Client talks to a Mastra-compatible service. It is created once per
// process and carries the resource and agent identifiers used as routing
// keys on every call.
type Client struct {
	memory     *request.Client
	chat       *request.Client
	agentID    string
	resourceID string
	logger     zerolog.Logger
}

// NewClient creates a Client from service configuration. The chat endpoint
// gets its own HTTP client with a response-header timeout instead of an
// overall one, because streamed bodies stay open well past the policy
// timeout.
func NewClient(cfg config.MastraConfig, policy request.Policy, logger zerolog.Logger) *Client {
	streamHTTP := &http.Client{
		Transport: &http.Transport{
			ResponseHeaderTimeout: policyHeaderTimeout(policy),
		},
	}

	return &Client{
		memory: request.New(cfg.MemoryBaseURL(), policy,
			request.WithLogger(logger)),
		chat: request.New(cfg.BaseURL, policy,
			request.WithHTTPClient(streamHTTP),
			request.WithLogger(logger)),
		agentID:    cfg.AgentID,
		resourceID: cfg.ResourceID,
		logger:     logger,
	}
}

func policyHeaderTimeout(policy request.Policy) time.Duration {
	if policy.Timeout > 0 {
		return policy.Timeout
	}
	return 30 * time.Second
}

// threadRecord is the wire shape of a persisted thread
type threadRecord struct {
	ID         string         `json:"id" validate:"required"`
	ResourceID string         `json:"resourceId"`
	Title      *string        `json:"title"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  *time.Time     `json:"createdAt"`
	UpdatedAt  *time.Time     `json:"updatedAt"`
}
