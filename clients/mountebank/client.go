// Package mountebank is a client for the mountebank admin API. Every
// operation maps to one HTTP exchange with exactly one success status;
// anything else surfaces as a *MountebankError.
package mountebank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tidwall/gjson"

	"mountebank-client/clients/events"
	"mountebank-client/clients/transport"
	"mountebank-client/logging"
	"mountebank-client/models"
)

const impostersPath = "imposters"

var errNoResponse = errors.New("transport returned no response")

// Client talks to one mountebank instance through a Transport. It holds no
// mutable state and is safe for concurrent use.
type Client struct {
	transport transport.Transport
	logger    *slog.Logger
	publisher events.Publisher
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithEventPublisher publishes a lifecycle event after every successful
// create and delete.
func WithEventPublisher(p events.Publisher) Option {
	return func(c *Client) {
		c.publisher = p
	}
}

// New returns a client bound to t.
func New(t transport.Transport, opts ...Option) *Client {
	c := &Client{
		transport: t,
		logger:    logging.Nop(),
		publisher: events.NopPublisher{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewHTTP is shorthand for New(transport.NewHTTPTransport(baseURL), opts...).
func NewHTTP(baseURL string, opts ...Option) *Client {
	return New(transport.NewHTTPTransport(baseURL), opts...)
}

func imposterPath(port int) string {
	return fmt.Sprintf("%s/%d", impostersPath, port)
}

// CreateImposter validates and submits imp, returning the service's view of
// the new imposter.
func (c *Client) CreateImposter(ctx context.Context, imp *models.Imposter) (*models.RetrievedImposter[models.RawRequest], error) {
	resp, err := c.create(ctx, imp)
	if err != nil {
		return nil, err
	}
	snapshot, err := models.Deserialize[models.RawRequest](resp.Body)
	if err != nil {
		return nil, err
	}
	c.created(ctx, imp)
	return snapshot, nil
}

// Submit creates each imposter in order and stops at the first failure. The
// creation body is not decoded; the created status alone is success.
func (c *Client) Submit(ctx context.Context, imposters ...*models.Imposter) error {
	for _, imp := range imposters {
		if _, err := c.create(ctx, imp); err != nil {
			return err
		}
		c.created(ctx, imp)
	}
	return nil
}

func (c *Client) create(ctx context.Context, imp *models.Imposter) (*transport.Response, error) {
	const op = "create imposter"
	if imp == nil {
		return nil, fmt.Errorf("%s: %w: nil imposter", op, models.ErrInvalidImposter)
	}
	if err := imp.Validate(); err != nil {
		return nil, fmt.Errorf("%s on port %d: %w", op, imp.Port(), err)
	}
	body, err := models.Serialize(imp)
	if err != nil {
		return nil, fmt.Errorf("%s on port %d: %w", op, imp.Port(), err)
	}
	return c.send(op, func() (*transport.Response, error) {
		return c.transport.Post(ctx, impostersPath, body)
	}, http.StatusCreated)
}

func (c *Client) created(ctx context.Context, imp *models.Imposter) {
	c.logger.Info("imposter created", "port", imp.Port(), "protocol", imp.Protocol(), "name", imp.Name)
	c.publish(ctx, events.New(events.TypeImposterCreated, imp.Port(), imp.Protocol()))
}

// GetImposter retrieves the imposter on port decoded with request shape R.
// A protocol outside R's family yields a *models.MalformedResponseError.
func GetImposter[R models.RecordedRequest](ctx context.Context, c *Client, port int) (*models.RetrievedImposter[R], error) {
	resp, err := c.send("get imposter", func() (*transport.Response, error) {
		return c.transport.Get(ctx, imposterPath(port))
	}, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return models.Deserialize[R](resp.Body)
}

func (c *Client) GetHTTPImposter(ctx context.Context, port int) (*models.RetrievedHTTPImposter, error) {
	return GetImposter[models.HTTPRequest](ctx, c, port)
}

// GetHTTPSImposter shares the HTTP request shape.
func (c *Client) GetHTTPSImposter(ctx context.Context, port int) (*models.RetrievedHTTPSImposter, error) {
	return GetImposter[models.HTTPRequest](ctx, c, port)
}

func (c *Client) GetTCPImposter(ctx context.Context, port int) (*models.RetrievedTCPImposter, error) {
	return GetImposter[models.TCPRequest](ctx, c, port)
}

func (c *Client) GetSMTPImposter(ctx context.Context, port int) (*models.RetrievedSMTPImposter, error) {
	return GetImposter[models.SMTPRequest](ctx, c, port)
}

// GetReplayableImposter retrieves the definition of the imposter on port in
// a form that can be submitted again.
func (c *Client) GetReplayableImposter(ctx context.Context, port int) (*models.Imposter, error) {
	resp, err := c.send("get replayable imposter", func() (*transport.Response, error) {
		return c.transport.Get(ctx, imposterPath(port)+"?replayable=true")
	}, http.StatusOK)
	if err != nil {
		return nil, err
	}
	imp, err := models.ParseImposter(resp.Body)
	if err != nil {
		return nil, models.NewMalformedResponseError(fmt.Sprintf("replayable imposter on port %d", port), err)
	}
	return imp, nil
}

// ListImposters returns the protocol, port and name of every imposter.
func (c *Client) ListImposters(ctx context.Context) ([]models.ImposterSummary, error) {
	resp, err := c.send("list imposters", func() (*transport.Response, error) {
		return c.transport.Get(ctx, impostersPath)
	}, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return models.DeserializeSummaries(resp.Body)
}

// DeleteImposter removes the imposter on port. Mountebank answers 200 even
// when nothing listens there.
func (c *Client) DeleteImposter(ctx context.Context, port int) error {
	resp, err := c.send("delete imposter", func() (*transport.Response, error) {
		return c.transport.Delete(ctx, imposterPath(port))
	}, http.StatusOK)
	if err != nil {
		return err
	}
	protocol := models.Protocol(gjson.GetBytes(resp.Body, "protocol").String())
	c.logger.Info("imposter deleted", "port", port)
	c.publish(ctx, events.New(events.TypeImposterDeleted, port, protocol))
	return nil
}

// DeleteAllImposters removes every imposter.
func (c *Client) DeleteAllImposters(ctx context.Context) error {
	if _, err := c.send("delete all imposters", func() (*transport.Response, error) {
		return c.transport.Delete(ctx, impostersPath)
	}, http.StatusOK); err != nil {
		return err
	}
	c.logger.Info("all imposters deleted")
	c.publish(ctx, events.New(events.TypeImpostersDeleted, 0, ""))
	return nil
}

type addStubRequest struct {
	Index *int         `json:"index,omitempty"`
	Stub  *models.Stub `json:"stub"`
}

// AddStub inserts stub into the imposter on port at index. A negative index
// appends.
func (c *Client) AddStub(ctx context.Context, port int, stub *models.Stub, index int) error {
	const op = "add stub"
	if err := stub.Validate(); err != nil {
		return fmt.Errorf("%s on port %d: %w", op, port, err)
	}
	req := addStubRequest{Stub: stub}
	if index >= 0 {
		req.Index = &index
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%s on port %d: %w", op, port, err)
	}
	_, err = c.send(op, func() (*transport.Response, error) {
		return c.transport.Post(ctx, imposterPath(port)+"/stubs", body)
	}, http.StatusOK)
	return err
}

// ReplaceStubs overwrites every stub of the imposter on port.
func (c *Client) ReplaceStubs(ctx context.Context, port int, stubs []*models.Stub) error {
	const op = "replace stubs"
	for n, stub := range stubs {
		if err := stub.Validate(); err != nil {
			return fmt.Errorf("%s on port %d: stub %d: %w", op, port, n, err)
		}
	}
	if stubs == nil {
		stubs = []*models.Stub{}
	}
	body, err := json.Marshal(struct {
		Stubs []*models.Stub `json:"stubs"`
	}{stubs})
	if err != nil {
		return fmt.Errorf("%s on port %d: %w", op, port, err)
	}
	_, err = c.send(op, func() (*transport.Response, error) {
		return c.transport.Put(ctx, imposterPath(port)+"/stubs", body)
	}, http.StatusOK)
	return err
}

// DeleteSavedRequests clears the request log of the imposter on port.
func (c *Client) DeleteSavedRequests(ctx context.Context, port int) error {
	_, err := c.send("delete saved requests", func() (*transport.Response, error) {
		return c.transport.Delete(ctx, imposterPath(port)+"/savedRequests")
	}, http.StatusOK)
	return err
}

// DeleteSavedProxyResponses drops the responses recorded by proxy stubs of
// the imposter on port.
func (c *Client) DeleteSavedProxyResponses(ctx context.Context, port int) error {
	_, err := c.send("delete saved proxy responses", func() (*transport.Response, error) {
		return c.transport.Delete(ctx, imposterPath(port)+"/savedProxyResponses")
	}, http.StatusOK)
	return err
}

func (c *Client) send(op string, call func() (*transport.Response, error), want int) (*transport.Response, error) {
	resp, err := call()
	if err != nil {
		c.logger.Error("mountebank unreachable", "op", op, "error", err)
		return nil, transportError(op, err)
	}
	if resp == nil {
		c.logger.Error("mountebank unreachable", "op", op, "error", errNoResponse)
		return nil, transportError(op, errNoResponse)
	}
	if resp.StatusCode != want {
		c.logger.Error("unexpected status", "op", op, "status", resp.StatusCode, "want", want, "body", string(resp.Body))
		return nil, statusError(op, resp.StatusCode, resp.Body)
	}
	c.logger.Debug("request succeeded", "op", op, "status", resp.StatusCode)
	return resp, nil
}

func (c *Client) publish(ctx context.Context, event events.Event) {
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Warn("failed to publish lifecycle event", "type", event.Type, "port", event.Port, "error", err)
	}
}
