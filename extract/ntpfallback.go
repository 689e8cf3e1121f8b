package extract

import (
	"encoding/binary"
	"net"
	"net/http"
	"time"

	"github.com/mobster570/ticketime/clock"
	"github.com/mobster570/ticketime/enginerr"
	"github.com/mobster570/ticketime/log"
)

// externalFallback consults a configured NTP-like source instead of the
// response headers, selected by the orchestrator after a probe reports
// KindMissingTimeSource. Wire format is the RFC 5905 NTP client packet, the
// same construction gocryptotrader's engine.ntpManager uses.
type externalFallback struct {
	source string
}

func newExternalFallback(source string) Extractor {
	return &externalFallback{source: source}
}

// ID implements Extractor.
func (externalFallback) ID() ID { return ExternalFallback }

// ntpEpochOffset is the number of seconds between the NTP epoch
// (1900-01-01) and the Unix epoch (1970-01-01).
const ntpEpochOffset = 2208988800

type ntpPacket struct {
	Settings       uint8
	Stratum        uint8
	Poll           int8
	Precision      int8
	RootDelay      uint32
	RootDispersion uint32
	ReferenceID    uint32
	RefTimeSec     uint32
	RefTimeFrac    uint32
	OrigTimeSec    uint32
	OrigTimeFrac   uint32
	RxTimeSec      uint32
	RxTimeFrac     uint32
	TxTimeSec      uint32
	TxTimeFrac     uint32
}

const ntpDialTimeout = 5 * time.Second

// Extract ignores resp entirely: the whole point of this variant is that
// the target server gave no usable time header, so the instant comes from
// an independently configured trusted source instead.
func (e *externalFallback) Extract(_ *http.Response) (Result, *enginerr.SyncError) {
	if e.source == "" {
		return Result{}, enginerr.New(enginerr.KindMissingTimeSource, enginerr.PhaseNone)
	}

	t, err := queryNTP(e.source)
	if err != nil {
		log.Warnf(log.NTP, "external time source %s unreachable: %v", e.source, err)
		return Result{}, enginerr.Wrap(enginerr.KindMissingTimeSource, enginerr.PhaseNone, err)
	}
	return Result{Instant: clock.NewWallInstant(t)}, nil
}

func queryNTP(addr string) (time.Time, error) {
	conn, err := net.DialTimeout("udp", addr, ntpDialTimeout)
	if err != nil {
		return time.Time{}, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(ntpDialTimeout)); err != nil {
		return time.Time{}, err
	}

	req := &ntpPacket{Settings: 0x1B}
	if err := binary.Write(conn, binary.BigEndian, req); err != nil {
		return time.Time{}, err
	}

	rsp := &ntpPacket{}
	if err := binary.Read(conn, binary.BigEndian, rsp); err != nil {
		return time.Time{}, err
	}

	secs := int64(rsp.TxTimeSec) - ntpEpochOffset
	nanos := (int64(rsp.TxTimeFrac) * 1e9) >> 32
	return time.Unix(secs, nanos).UTC(), nil
}
