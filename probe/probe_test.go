package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mobster570/ticketime/clock"
	"github.com/mobster570/ticketime/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Date", "Mon, 02 Jan 2006 15:04:05 GMT")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := New(NewClient(time.Second), clock.System{}, srv.URL, extract.New(extract.DateHeader, extract.Config{}))
	sample, err := p.Probe(context.Background(), time.Second)
	require.Nil(t, err)
	assert.True(t, sample.FirstOnWarmConn)
	assert.GreaterOrEqual(t, sample.RTT, time.Duration(0))
	assert.Equal(t, int64(1136214245), sample.ServerInstant.UnixSeconds())

	sample2, err2 := p.Probe(context.Background(), time.Second)
	require.Nil(t, err2)
	assert.False(t, sample2.FirstOnWarmConn)
}

func TestProbeBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := New(NewClient(time.Second), clock.System{}, srv.URL, extract.New(extract.DateHeader, extract.Config{}))
	_, err := p.Probe(context.Background(), time.Second)
	require.NotNil(t, err)
	assert.Equal(t, "BadResponse", err.Kind.String())
}

func TestProbeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := New(NewClient(time.Second), clock.System{}, srv.URL, extract.New(extract.DateHeader, extract.Config{}))
	_, err := p.Probe(context.Background(), 5*time.Millisecond)
	require.NotNil(t, err)
	assert.Equal(t, "Timeout", err.Kind.String())
}
