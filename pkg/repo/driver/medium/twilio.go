package medium

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/twilio/twilio-go"
	twilioClient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
	"github.com/JacMa99/appless-workout-mvp/utilities"
	"github.com/JacMa99/appless-workout-mvp/utilities/http_client"
)

// TwilioMessenger sends SMS through the Programmable Messaging API.
type TwilioMessenger struct {
	client *twilio.RestClient
}

func NewTwilioMessenger(cfg config.Twilio) (*TwilioMessenger, error) {
	httpClient, err := twilioHTTPClient(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	base := &twilioClient.Client{
		Credentials: twilioClient.NewCredentials(cfg.AccountSID, cfg.AuthToken),
		HTTPClient:  httpClient,
	}
	base.SetAccountSid(cfg.AccountSID)

	return &TwilioMessenger{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{Client: base}),
	}, nil
}

// twilioHTTPClient shares the provider client settings. A base URL other
// than the public API redirects every request to that host.
func twilioHTTPClient(baseURL string) (*http.Client, error) {
	shared := http_client.GetClient()

	baseURL = strings.TrimSuffix(baseURL, "/")
	if baseURL == "" || baseURL == consts.TwilioAPIBaseURL {
		return shared, nil
	}

	target, err := url.Parse(baseURL)
	if err != nil || target.Host == "" {
		return nil, fmt.Errorf("invalid transport.twilio.base_url %q", baseURL)
	}

	next := shared.Transport
	if next == nil {
		next = http.DefaultTransport
	}

	return &http.Client{
		Transport: &rebaseTransport{target: target, next: next},
		Timeout:   shared.Timeout,
	}, nil
}

type rebaseTransport struct {
	target *url.URL
	next   http.RoundTripper
}

func (t *rebaseTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = t.target.Scheme
	out.URL.Host = t.target.Host
	out.URL.Path = path.Join("/", t.target.Path, req.URL.Path)
	out.Host = t.target.Host

	return t.next.RoundTrip(out)
}

func (t *TwilioMessenger) Name() string {
	return consts.TransportTwilio
}

// Send posts one message. The SDK call takes no context, so a cancelled ctx
// is only honoured before the request goes out.
func (t *TwilioMessenger) Send(ctx context.Context, to, from, body string) error {
	log := utilities.NewLoggerWithFields("TwilioMessenger.Send", map[string]interface{}{
		"to": to,
	})

	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	msg, err := t.client.Api.CreateMessage(params)
	if err != nil {
		var restErr *twilioClient.TwilioRestError
		if errors.As(err, &restErr) {
			return fmt.Errorf(
				"twilio rejected message (status %d, code %d): %s", restErr.Status, restErr.Code, restErr.Message,
			)
		}
		return fmt.Errorf("twilio request failed: %w", err)
	}

	if msg != nil && msg.Sid != nil {
		status := ""
		if msg.Status != nil {
			status = *msg.Status
		}
		log.Debugf("twilio accepted message %s (%s)", *msg.Sid, status)
	}

	return nil
}
