package medium

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
	"github.com/JacMa99/appless-workout-mvp/pkg/entities"
)

type recordingMessenger struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingMessenger) Send(_ context.Context, to, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, to)
	return nil
}

func (r *recordingMessenger) Name() string { return "recording" }

func TestTwilioMessenger_Send(t *testing.T) {
	var (
		gotPath string
		gotForm map[string]string
		gotUser string
		gotPass string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"To":   r.PostForm.Get("To"),
			"From": r.PostForm.Get("From"),
			"Body": r.PostForm.Get("Body"),
		}

		if r.PostForm.Get("To") == "+15550000000" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":21211,"message":"invalid To number","status":400}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM123","status":"queued"}`))
	}))
	defer srv.Close()

	m, err := NewTwilioMessenger(config.Twilio{AccountSID: "AC1", AuthToken: "tok", BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	assert.Equal(t, consts.TransportTwilio, m.Name())

	err = m.Send(context.Background(), "+15551234567", "+15557654321", "hello")
	require.NoError(t, err)
	assert.Equal(t, "/2010-04-01/Accounts/AC1/Messages.json", gotPath)
	assert.Equal(t, "AC1", gotUser)
	assert.Equal(t, "tok", gotPass)
	assert.Equal(t, map[string]string{"To": "+15551234567", "From": "+15557654321", "Body": "hello"}, gotForm)

	err = m.Send(context.Background(), "+15550000000", "+15557654321", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid To number")
	assert.Contains(t, err.Error(), "21211")
}

func TestTwilioMessenger_SendNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	m, err := NewTwilioMessenger(config.Twilio{AccountSID: "AC1", AuthToken: "tok", BaseURL: srv.URL})
	require.NoError(t, err)

	err = m.Send(context.Background(), "+15551234567", "+15557654321", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestTwilioMessenger_SendCancelled(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	m, err := NewTwilioMessenger(config.Twilio{AccountSID: "AC1", AuthToken: "tok", BaseURL: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, m.Send(ctx, "+15551234567", "+15557654321", "hello"), context.Canceled)
	assert.Zero(t, calls)
}

func TestNewTwilioMessenger_BadBaseURL(t *testing.T) {
	_, err := NewTwilioMessenger(config.Twilio{AccountSID: "AC1", AuthToken: "tok", BaseURL: "not a url"})
	assert.Error(t, err)
}

func TestThrottledMessenger(t *testing.T) {
	next := &recordingMessenger{}
	throttled := NewThrottledMessenger(next, 0, 0)
	assert.Equal(t, "recording", throttled.Name())

	for i := 0; i < 5; i++ {
		require.NoError(t, throttled.Send(context.Background(), "+1555000000", "", "x"))
	}
	assert.Len(t, next.sent, 5)
}

func TestThrottledMessenger_CancelledWait(t *testing.T) {
	next := &recordingMessenger{}
	throttled := NewThrottledMessenger(next, 0.001, 1)

	// The first send uses the burst token; the second would wait far longer
	// than the context allows.
	require.NoError(t, throttled.Send(context.Background(), "+1", "", "x"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := throttled.Send(ctx, "+2", "", "x")
	require.Error(t, err)
	assert.Equal(t, []string{"+1"}, next.sent)
}

func TestNewMessenger(t *testing.T) {
	tests := []struct {
		name      string
		transport config.Transport
		wantErr   bool
		wantName  string
	}{
		{
			name:      "log provider needs nothing",
			transport: config.Transport{Provider: consts.TransportLog},
			wantName:  consts.TransportLog,
		},
		{
			name: "twilio",
			transport: config.Transport{
				Provider:   consts.TransportTwilio,
				FromNumber: "+15557654321",
				Twilio:     config.Twilio{AccountSID: "AC1", AuthToken: "tok"},
			},
			wantName: consts.TransportTwilio,
		},
		{
			name: "twilio without token",
			transport: config.Transport{
				Provider:   consts.TransportTwilio,
				FromNumber: "+15557654321",
				Twilio:     config.Twilio{AccountSID: "AC1"},
			},
			wantErr: true,
		},
		{
			name: "missing sender",
			transport: config.Transport{
				Provider: consts.TransportTwilio,
				Twilio:   config.Twilio{AccountSID: "AC1", AuthToken: "tok"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMessenger(&config.AppConfModel{Transport: tt.transport})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, consts.ErrMissingTransport))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, m.Name())
		})
	}
}

func TestLogMessenger(t *testing.T) {
	m := NewLogMessenger()
	assert.NoError(t, m.Send(context.Background(), "+1555", "", "hi"))
}

func TestRenderReport(t *testing.T) {
	summary := &entities.NudgeRunSummary{
		OK:               true,
		Today:            "2024-03-10",
		RunID:            "run-1",
		Groups:           2,
		Considered:       3,
		Sent:             4,
		GroupTriggered:   1,
		GroupSent:        3,
		PrivateTriggered: 1,
		PrivateSent:      1,
	}

	body, err := RenderReport(summary, nil)
	require.NoError(t, err)
	assert.Contains(t, body, "run-1 for 2024-03-10")
	assert.Contains(t, body, "considered: 3")
	assert.Contains(t, body, "group support: triggered 1, sent 3, deduped 0")
	assert.NotContains(t, body, "FAILED")
	assert.Equal(t, "Nudge run 2024-03-10 completed", reportSubject(summary, nil))

	summary.Failed = 1
	assert.Equal(t, "Nudge run 2024-03-10 completed with errors", reportSubject(summary, nil))

	runErr := errors.New("firestore unavailable")
	body, err = RenderReport(summary, runErr)
	require.NoError(t, err)
	assert.Contains(t, body, "FAILED: firestore unavailable")
	assert.Equal(t, "Nudge run failed 2024-03-10", reportSubject(summary, runErr))

	body, err = RenderReport(nil, runErr)
	require.NoError(t, err)
	assert.Contains(t, body, "FAILED")
}
