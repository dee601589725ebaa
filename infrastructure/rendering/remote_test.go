package rendering

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testBreaker = BreakerSettings{
	MaxRequests:  1,
	Interval:     time.Minute,
	OpenTimeout:  time.Minute,
	FailureRatio: 0.5,
	MinRequests:  3,
}

func newRemote(t *testing.T, handler http.HandlerFunc, timeout time.Duration) (*RemoteRenderer, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRemoteRenderer(srv.URL+"/", srv.Client(), NewLimits(timeout), testBreaker, zap.NewNop()), srv
}

func TestRemoteRenderer_Success(t *testing.T) {
	var gotPath, gotType, gotBody string
	r, _ := newRemote(t, func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		gotType = req.Header.Get("Content-Type")
		b, _ := io.ReadAll(req.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = io.WriteString(w, "<svg></svg>")
	}, time.Second)

	out, err := r.Render(context.Background(), "@startuml\nA -> B\n@enduml")
	require.NoError(t, err)
	assert.Equal(t, "<svg></svg>", out)
	assert.Equal(t, "/svg", gotPath)
	assert.Contains(t, gotType, "text/plain")
	assert.Equal(t, "@startuml\nA -> B\n@enduml", gotBody)
}

func TestRemoteRenderer_ClientErrorDoesNotTrip(t *testing.T) {
	var calls atomic.Int32
	r, _ := newRemote(t, func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
		http.Error(w, "Syntax Error?", http.StatusBadRequest)
	}, time.Second)

	for i := 0; i < 5; i++ {
		_, err := r.Render(context.Background(), "bad")
		require.Error(t, err)

		var re *RenderError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, KindUpstream, re.Kind)
		assert.Equal(t, http.StatusBadRequest, re.StatusCode)
		assert.Equal(t, "PlantUML server responded 400: Syntax Error?", re.Message)
	}
	assert.Equal(t, int32(5), calls.Load())
}

func TestRemoteRenderer_ServerErrorsOpenBreaker(t *testing.T) {
	var calls atomic.Int32
	r, _ := newRemote(t, func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, time.Second)

	for i := 0; i < 3; i++ {
		_, err := r.Render(context.Background(), "x")
		assert.True(t, IsKind(err, KindUpstream))
	}

	_, err := r.Render(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUpstream))
	assert.Contains(t, err.Error(), "unavailable")
	assert.Equal(t, int32(3), calls.Load())
}

func TestRemoteRenderer_Timeout(t *testing.T) {
	r, _ := newRemote(t, func(w http.ResponseWriter, req *http.Request) {
		select {
		case <-req.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}, 100*time.Millisecond)

	start := time.Now()
	_, err := r.Render(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTimeout))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRemoteRenderer_EmptyBody(t *testing.T) {
	r, _ := newRemote(t, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, time.Second)

	_, err := r.Render(context.Background(), "x")
	assert.True(t, IsKind(err, KindRenderFailure))
}

func TestRemoteRenderer_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r := NewRemoteRenderer(url, nil, NewLimits(time.Second), testBreaker, zap.NewNop())
	_, err := r.Render(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUpstream))
	assert.Contains(t, err.Error(), "PlantUML server request failed")
}
