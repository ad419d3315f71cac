// Package backend talks to the odometer backend.
package backend

import (
	"context"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// SetTimezonePath is the backend route that records the user's time zone.
const SetTimezonePath = "/backend/set_timezone"

type setTimezoneRequest struct {
	Timezone string `json:"timezone"`
}

type Client struct {
	setTimezone *connect.Client[setTimezoneRequest, structpb.Value]
}

type options struct {
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*options)

// WithHTTPClient sets the underlying HTTP client. Defaults to http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTimeout bounds each request. Zero, the default, means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func NewClient(serverURL string, opts ...Option) *Client {
	o := options{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(&o)
	}

	httpClient := o.httpClient
	if o.timeout > 0 {
		c := *httpClient
		c.Timeout = o.timeout
		httpClient = &c
	}

	return &Client{
		setTimezone: connect.NewClient[setTimezoneRequest, structpb.Value](
			httpClient,
			strings.TrimRight(serverURL, "/")+SetTimezonePath,
			connect.WithCodec(jsonCodec{}),
		),
	}
}

// SetTimezone posts {"timezone": tz} to the backend. The reply body is only logged.
func (c *Client) SetTimezone(ctx context.Context, tz string) error {
	res, err := c.setTimezone.CallUnary(ctx, connect.NewRequest(&setTimezoneRequest{
		Timezone: tz,
	}))
	if err != nil {
		zlog.Debug().Msgf("Error odometer set_timezone: %v", err)
		return errors.Wrap(err, "error odometer set_timezone")
	}
	zlog.Debug().Msgf("odometer set_timezone success: [%s] reply(%s)", tz, protojson.Format(res.Msg))
	return nil
}
