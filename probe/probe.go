// Package probe issues single HTTP probes against a target and timestamps
// them on the monotonic clock with as little jitter as the transport
// permits, following the same shape as gocryptotrader's exchanges/request
// package (a shared *http.Client wrapped by a small validating layer).
package probe

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/mobster570/ticketime/clock"
	"github.com/mobster570/ticketime/enginerr"
	"github.com/mobster570/ticketime/extract"
	"github.com/mobster570/ticketime/log"
	"golang.org/x/time/rate"
)

// Flags carries extractor-specific advisory information about a sample.
type Flags struct {
	CDNAdvisory string
}

// Sample is one completed, timestamped probe.
type Sample struct {
	SendMonotonic   clock.Instant
	RecvMonotonic   clock.Instant
	RTT             time.Duration
	ServerInstant   clock.WallInstant
	Flags           Flags
	ScheduleSlack   time.Duration
	FirstOnWarmConn bool
}

// Prober issues probes against a single target, reusing one warm connection
// across a run the way gocryptotrader's Requester reuses its *http.Client.
type Prober struct {
	client    *http.Client
	url       string
	extractor extract.Extractor
	clk       clock.Clock
	// limiter is a floor rate limit independent of the engine's precise
	// per-phase scheduling: it guards against a misbehaving caller issuing
	// probes faster than any target should ever be hit, the same defense
	// in depth gocryptotrader's exchanges/request.Requester applies via
	// InitiateRateLimit ahead of every outbound call.
	limiter *rate.Limiter

	warmed bool
}

// New returns a Prober for url using cl as the transport and extractor to
// derive the server's reported time from each response. Until WithRateLimit
// is called, probes are unthrottled beyond the caller's own scheduling.
func New(cl *http.Client, clk clock.Clock, url string, extractor extract.Extractor) *Prober {
	return &Prober{client: cl, url: url, extractor: extractor, clk: clk}
}

// WithRateLimit attaches a floor rate limit of at most one probe per
// interval, built the same way gocryptotrader's request.NewRateLimit turns
// an interval into an actions-per-second limiter.
func (p *Prober) WithRateLimit(interval time.Duration) *Prober {
	if interval <= 0 {
		p.limiter = rate.NewLimiter(rate.Inf, 1)
		return p
	}
	p.limiter = rate.NewLimiter(rate.Every(interval), 1)
	return p
}

// SetExtractor swaps the extractor used for subsequent probes, used by the
// orchestrator's one-time extractor swap on KindMissingTimeSource.
func (p *Prober) SetExtractor(e extract.Extractor) { p.extractor = e }

// Probe issues one HEAD request (there is no GET fallback: a target that
// rejects HEAD yields a non-2xx BadResponse), timestamping send immediately
// before the request is committed and
// recv immediately after headers are fully read. The body, if any, is
// drained and discarded — it is never included in timing.
func (p *Prober) Probe(ctx context.Context, deadline time.Duration) (Sample, *enginerr.SyncError) {
	reqCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	if p.limiter != nil {
		if err := p.limiter.Wait(reqCtx); err != nil {
			return Sample{}, enginerr.Wrap(enginerr.KindTimeout, enginerr.PhaseNone, err)
		}
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, p.url, nil)
	if err != nil {
		return Sample{}, enginerr.Wrap(enginerr.KindTransport, enginerr.PhaseNone, err)
	}

	send := p.clk.NowMonotonic()
	resp, err := p.client.Do(req)
	recv := p.clk.NowMonotonic()
	if err != nil {
		if reqCtx.Err() != nil {
			return Sample{}, enginerr.Wrap(enginerr.KindTimeout, enginerr.PhaseNone, err)
		}
		return Sample{}, enginerr.Wrap(enginerr.KindTransport, enginerr.PhaseNone, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Sample{}, enginerr.New(enginerr.KindBadResponse, enginerr.PhaseNone)
	}

	res, extractErr := p.extractor.Extract(resp)
	if extractErr != nil {
		return Sample{}, extractErr
	}

	firstOnWarmConn := !p.warmed
	p.warmed = true

	log.Debugf(log.Probe, "probe rtt=%s server=%s", recv.Sub(send), res.Instant.Time())

	return Sample{
		SendMonotonic:   send,
		RecvMonotonic:   recv,
		RTT:             recv.Sub(send),
		ServerInstant:   res.Instant,
		Flags:           Flags{CDNAdvisory: res.CDNAdvisory},
		FirstOnWarmConn: firstOnWarmConn,
	}, nil
}

// NewClient builds an *http.Client tuned for connection reuse across many
// short-lived probes against the same host, mirroring how gocryptotrader's
// request.Requester holds a single *http.Client per exchange for its
// lifetime instead of dialing fresh per call.
func NewClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  true,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}
