// Package repeater implements the forwarding pipeline behind
// /r/{alias}: alias resolution, method allow-listing, API key checks,
// payload remapping, the outbound call and durable request logging.
package repeater

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emRival/GASHub/internal/background"
	"github.com/emRival/GASHub/internal/directory"
	"github.com/emRival/GASHub/internal/forwarder"
	"github.com/emRival/GASHub/internal/keyauth"
	"github.com/emRival/GASHub/internal/metrics"
	"github.com/emRival/GASHub/internal/models"
	"github.com/emRival/GASHub/internal/payload"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

type Resolver interface {
	Resolve(ctx context.Context, alias string) (*models.Endpoint, error)
	TouchLastUsed(id string)
}

type Authorizer interface {
	Authorize(ctx context.Context, rawKey string, endpoint *models.Endpoint) (keyauth.Result, error)
}

type TargetCaller interface {
	Forward(ctx context.Context, targetURL string, body payload.Object, meta forwarder.Metadata) (*forwarder.Result, error)
}

type LogStore interface {
	InsertLogEntry(ctx context.Context, entry *models.RequestLog) error
}

// Request is one inbound repeater call, already read and parsed.
type Request struct {
	Alias   string
	Subpath string
	Method  string
	// Headers holds the inbound header set, lowercased, first value
	// per name. It is relayed to the target under _headers.
	Headers   map[string]string
	Body      payload.Object
	RawBody   []byte
	IP        string
	UserAgent string
}

// Response is what the client gets back; Body is JSON-encoded by the
// HTTP layer.
type Response struct {
	Status int
	Body   any
}

type Pipeline struct {
	resolver   Resolver
	keys       Authorizer
	target     TargetCaller
	logs       LogStore
	tasks      *background.Runner
	production bool
	log        *logrus.Entry
}

func New(logger *logrus.Logger, resolver Resolver, keys Authorizer, target TargetCaller, logs LogStore, tasks *background.Runner, production bool) *Pipeline {
	return &Pipeline{
		resolver:   resolver,
		keys:       keys,
		target:     target,
		logs:       logs,
		tasks:      tasks,
		production: production,
		log:        logger.WithField("component", "repeater"),
	}
}

// terminal describes one pipeline exit: the client response plus what
// the single log entry for this request records.
type terminal struct {
	status     int
	clientBody any
	logError   string
	logBody    any
	outcome    string
}

// Execute runs the request through the pipeline. Every path produces
// exactly one response and schedules exactly one log append. The
// context is detached from client cancellation up front: a caller that
// disconnects mid-flight must not abort the upstream call or the log.
func (p *Pipeline) Execute(ctx context.Context, req *Request) Response {
	start := time.Now()
	ctx = context.WithoutCancel(ctx)

	// ResolveAlias
	endpoint, err := p.resolver.Resolve(ctx, req.Alias)
	if errors.Is(err, directory.ErrNotFound) {
		return p.finish(req, nil, start, terminal{
			status:     404,
			clientBody: errorBody(fmt.Sprintf("Endpoint '%s' not found or inactive", req.Alias)),
			logError:   fmt.Sprintf("Endpoint alias '%s' not found or inactive", req.Alias),
			outcome:    "not_found",
		})
	}
	if err != nil {
		return p.finish(req, nil, start, p.internalError(err, "resolve_error"))
	}

	// CheckMethod
	allowed := endpoint.Methods()
	if !methodAllowed(allowed, req.Method) {
		return p.finish(req, endpoint, start, terminal{
			status:     405,
			clientBody: errorBody(fmt.Sprintf("Method %s not allowed. Allowed: %s", req.Method, strings.Join(allowed, ", "))),
			logError:   fmt.Sprintf("Method %s not allowed (allowed: %s)", req.Method, strings.Join(allowed, ", ")),
			outcome:    "method_not_allowed",
		})
	}

	// CheckAPIKey
	if endpoint.RequireAPIKey {
		result, err := p.keys.Authorize(ctx, req.Headers["x-api-key"], endpoint)
		if err != nil {
			return p.finish(req, endpoint, start, p.internalError(err, "store_error"))
		}
		switch result {
		case keyauth.MissingKey:
			return p.finish(req, endpoint, start, terminal{
				status:     401,
				clientBody: errorBody("Unauthorized: API Key required"),
				logError:   "Missing API Key",
				outcome:    "missing_key",
			})
		case keyauth.InvalidKey:
			return p.finish(req, endpoint, start, terminal{
				status:     403,
				clientBody: errorBody("Forbidden: Invalid API Key"),
				logError:   "Invalid API Key",
				outcome:    "invalid_key",
			})
		case keyauth.ScopeDenied:
			return p.finish(req, endpoint, start, terminal{
				status:     403,
				clientBody: errorBody("Forbidden: API Key not authorized for this endpoint"),
				logError:   "API Key not authorized for this endpoint",
				outcome:    "scope_denied",
			})
		}
	}

	// TransformPayload
	transformed := payload.Transform(req.Body, endpoint.MappingTable())

	// Forward
	forwardStart := time.Now()
	result, err := p.target.Forward(ctx, endpoint.TargetURL, transformed, forwarder.Metadata{
		Method:  req.Method,
		Headers: req.Headers,
	})
	metrics.ForwardDuration.Observe(time.Since(forwardStart).Seconds())
	if err != nil {
		t := p.internalError(err, "upstream_unreachable")
		return p.finish(req, endpoint, start, t)
	}

	// Relay the upstream status and body verbatim; an upstream 4xx/5xx
	// is the target's answer, not a pipeline failure.
	return p.finish(req, endpoint, start, terminal{
		status:     result.Status,
		clientBody: result.Body,
		logBody:    result.Body,
		outcome:    "forwarded",
	})
}

// finish fixes the latency, schedules the log append and the last-used
// touch, and hands back the client response. Latency is measured to
// this point; the log write happens after and is never counted.
func (p *Pipeline) finish(req *Request, endpoint *models.Endpoint, start time.Time, t terminal) Response {
	elapsed := int(time.Since(start).Milliseconds())

	entry := &models.RequestLog{
		ID:            uuid.NewString(),
		RequestMethod: req.Method,
		RequestHeaders: datatypes.JSONMap{
			"user-agent":   req.UserAgent,
			"content-type": req.Headers["content-type"],
		},
		ResponseStatus: t.status,
		ResponseTimeMs: elapsed,
		IPAddress:      req.IP,
		UserAgent:      req.UserAgent,
		CreatedAt:      time.Now(),
	}
	if endpoint != nil {
		id := endpoint.ID
		entry.EndpointID = &id
	}
	if len(req.RawBody) > 0 && json.Valid(req.RawBody) {
		entry.RequestPayload = datatypes.JSON(req.RawBody)
	}
	if t.logBody != nil {
		if encoded, err := json.Marshal(t.logBody); err == nil {
			entry.ResponseBody = datatypes.JSON(encoded)
		}
	}
	if t.logError != "" {
		msg := t.logError
		entry.ErrorMessage = &msg
	}

	metrics.RepeaterRequests.WithLabelValues(t.outcome).Inc()

	if endpoint != nil {
		p.resolver.TouchLastUsed(endpoint.ID)
	}

	p.tasks.Go("log_append", func(ctx context.Context) error {
		if err := p.logs.InsertLogEntry(ctx, entry); err != nil {
			metrics.LogWriteFailures.Inc()
			return err
		}
		return nil
	})

	return Response{Status: t.status, Body: t.clientBody}
}

func (p *Pipeline) internalError(err error, outcome string) terminal {
	body := errorBody("Internal server error while forwarding to target")
	if !p.production {
		body["error"] = err.Error()
	}
	return terminal{
		status:     500,
		clientBody: body,
		logError:   err.Error(),
		outcome:    outcome,
	}
}

func methodAllowed(allowed []string, method string) bool {
	for _, m := range allowed {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

func errorBody(message string) map[string]any {
	return map[string]any{
		"success": false,
		"message": message,
	}
}
