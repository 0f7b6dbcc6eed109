package powerschool

import (
	"context"
	"crypto/md5"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"
	"scoreportal-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/powerschool")

const defaultUserAgent = "ScorePortal Updater Service (https://ScorePortal.org)"

// Client owns one authenticated portal session: the cookie-bearing http
// client plus a fingerprint used to correlate log lines. It is shared by
// reference between the user document and every course record; none of
// them manage its lifetime.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	fingerprint string
}

// NewClient creates an unauthenticated session against a portal root url.
//
// Certificate validation is disabled on purpose: district PowerSchool
// deployments have historically shipped self-signed certificates and the
// upstream portal is scraped anyway, not trusted.
func NewClient(baseUrl string) (*Client, error) {
	parsed, err := url.Parse(baseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(baseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", defaultUserAgent)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/powerschool/http")

	// the upstream cookie store was a throwaway file whose path doubled as
	// a session id, an in-memory jar gets a synthetic equivalent
	scope, err := random.String(16)
	if err != nil {
		return nil, err
	}
	sum := md5.Sum([]byte("PSCOOKIE" + scope))

	return &Client{
		BaseUrl:     parsed,
		Http:        client,
		fingerprint: hex.EncodeToString(sum[:]),
	}, nil
}

// SetUserAgent overrides the user-agent presented to the portal.
func (c *Client) SetUserAgent(ua string) {
	c.Http.SetHeader("user-agent", ua)
}

// Fingerprint is a stable per-session identifier for log correlation.
// Never use it for anything security related.
func (c *Client) Fingerprint() string {
	return c.fingerprint
}

// Fetch performs one portal round-trip and returns the raw body. A nil
// form issues a GET, otherwise the form is POSTed. Cookies persist across
// calls within the session and redirects are followed.
func (c *Client) Fetch(ctx context.Context, path string, form url.Values) ([]byte, error) {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("fetch:%s", path))
	defer span.End()

	req := c.Http.R().SetContext(ctx)

	var res *resty.Response
	var err error
	if form == nil {
		res, err = req.Get(path)
	} else {
		res, err = req.SetFormDataFromValues(form).Post(path)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}

	return res.Body(), nil
}
