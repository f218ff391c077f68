package keysource

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shaka-project/shaka-packager-sub006/pkg/media"
	"github.com/shaka-project/shaka-packager-sub006/pkg/pcqueue"
	"github.com/shaka-project/shaka-packager-sub006/pkg/status"
	"golang.org/x/sync/errgroup"
)

const (
	defaultCryptoPeriodCount = 10
	defaultQueueCapacity     = 16
	defaultPeekTimeout       = 5 * time.Minute
	maxFetchAttempts         = 5
	initialBackoff           = time.Second
)

// LicenseFetcher posts a signed request envelope and returns the raw
// response body. The default implementation wraps go-retryablehttp; tests
// substitute a mock to drive retry/non-retry scenarios.
type LicenseFetcher interface {
	Fetch(ctx context.Context, serverURL string, envelope []byte) ([]byte, error)
}

// httpLicenseFetcher is the production LicenseFetcher: an http.Client with
// retry semantics handled at the transport level via go-retryablehttp
// (construct once, reuse).
type httpLicenseFetcher struct {
	client *retryablehttp.Client
}

// NewHTTPLicenseFetcher builds a LicenseFetcher whose transport retries
// connection-level failures; JSON-level transient errors are retried
// separately by RemoteKeySource's fetch loop.
func NewHTTPLicenseFetcher() LicenseFetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil
	return &httpLicenseFetcher{client: client}
}

func (f *httpLicenseFetcher) Fetch(ctx context.Context, serverURL string, envelope []byte) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, serverURL, bytes.NewReader(envelope))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// wire types for the license-server request/response envelope.
type requestTrack struct {
	Type string `json:"type"`
}

type requestPayload struct {
	ContentID              string         `json:"content_id"`
	Policy                 string         `json:"policy"`
	Tracks                 []requestTrack `json:"tracks"`
	DRMTypes               []string       `json:"drm_types"`
	FirstCryptoPeriodIndex *int64         `json:"first_crypto_period_index,omitempty"`
	CryptoPeriodCount      *int64         `json:"crypto_period_count,omitempty"`
}

type requestEnvelope struct {
	Request   string `json:"request"`
	Signature string `json:"signature"`
	Signer    string `json:"signer"`
}

type responseEnvelope struct {
	Response string `json:"response"`
}

type licensePSSH struct {
	DRMType string `json:"drm_type"`
	Data    string `json:"data"`
}

type licenseTrack struct {
	Type              string        `json:"type"`
	KeyID             string        `json:"key_id"`
	Key               string        `json:"key"`
	PSSH              []licensePSSH `json:"pssh"`
	CryptoPeriodIndex *int64        `json:"crypto_period_index,omitempty"`
}

type licenseResponse struct {
	Status string         `json:"status"`
	Tracks []licenseTrack `json:"tracks"`
}

// RemoteKeySourceConfig configures a RemoteKeySource: a flat struct of
// plain fields, JSON/config-friendly and easy to construct from CLI flags.
type RemoteKeySourceConfig struct {
	ServerURL         string
	ContentID         []byte
	Policy            string
	Signer            Signer
	RotationEnabled   bool
	FirstCryptoPeriod int64 // meaningful only when RotationEnabled
	CryptoPeriodCount int64 // default 10
	Fetcher           LicenseFetcher // default: NewHTTPLicenseFetcher()
	QueueCapacity     int            // default 16
}

// RemoteKeySource fetches rotated (or single) content keys from a
// Widevine-style license server on a background goroutine. Grounded on
// media/base/widevine_encryption_key_source.{h,cc}.
type RemoteKeySource struct {
	cfg RemoteKeySourceConfig

	queue  *pcqueue.Queue[map[media.TrackType]*media.EncryptionKey]
	group  *errgroup.Group
	cancel context.CancelFunc

	mu       sync.Mutex
	fetchErr status.Status
}

// NewRemoteKeySource builds a RemoteKeySource and starts its fetch loop
// immediately: construction starts the background thread.
func NewRemoteKeySource(cfg RemoteKeySourceConfig) *RemoteKeySource {
	if cfg.CryptoPeriodCount <= 0 {
		cfg.CryptoPeriodCount = defaultCryptoPeriodCount
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = defaultQueueCapacity
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = NewHTTPLicenseFetcher()
	}

	r := &RemoteKeySource{
		cfg:      cfg,
		queue:    pcqueue.New[map[media.TrackType]*media.EncryptionKey](cfg.QueueCapacity),
		fetchErr: status.OKStatus,
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	group, gctx := errgroup.WithContext(ctx)
	r.group = group
	group.Go(func() error { return r.runFetchLoop(gctx) })
	return r
}

// Close stops the fetch loop and joins its goroutine.
func (r *RemoteKeySource) Close() error {
	r.queue.Stop()
	r.cancel()
	return r.group.Wait()
}

func (r *RemoteKeySource) setFetchErr(st status.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchErr.Ok() {
		r.fetchErr = st
	}
}

func (r *RemoteKeySource) GetKey(trackType media.TrackType) (*media.EncryptionKey, status.Status) {
	if r.cfg.RotationEnabled {
		return nil, status.New(status.InvalidArgument, "GetKey is unavailable when rotation is enabled; use GetCryptoPeriodKey")
	}
	return r.getAt(0, trackType)
}

func (r *RemoteKeySource) GetCryptoPeriodKey(periodIndex int64, trackType media.TrackType) (*media.EncryptionKey, status.Status) {
	if !r.cfg.RotationEnabled {
		return nil, status.New(status.InvalidArgument, "GetCryptoPeriodKey is unavailable when rotation is disabled; use GetKey")
	}
	pos := periodIndex - r.cfg.FirstCryptoPeriod
	if pos < 0 {
		return nil, status.Newf(status.InvalidArgument, "crypto period %d precedes first configured period %d", periodIndex, r.cfg.FirstCryptoPeriod)
	}
	return r.getAt(pos, trackType)
}

func (r *RemoteKeySource) getAt(pos int64, trackType media.TrackType) (*media.EncryptionKey, status.Status) {
	m, st := r.queue.Peek(int(pos), defaultPeekTimeout)
	if !st.Ok() {
		if st.Code() == status.Stopped {
			r.mu.Lock()
			fetchErr := r.fetchErr
			r.mu.Unlock()
			if !fetchErr.Ok() {
				return nil, fetchErr
			}
		}
		return nil, st
	}
	key, ok := m[trackType]
	if !ok {
		return nil, status.Newf(status.InternalError, "no key for track type %s at crypto period offset %d", trackType, pos)
	}
	return key, status.OKStatus
}

// runFetchLoop drives one fetch per crypto-period window. With rotation
// disabled it fetches once, pushes a single key map, stops the queue and
// returns. With rotation enabled it repeats, advancing
// FirstCryptoPeriod += CryptoPeriodCount each time, until ctx is canceled.
func (r *RemoteKeySource) runFetchLoop(ctx context.Context) error {
	periodIndex := int64(0)
	if r.cfg.RotationEnabled {
		periodIndex = r.cfg.FirstCryptoPeriod
	}

	for {
		perPeriod, st := r.fetchWithRetry(ctx, periodIndex)
		if !st.Ok() {
			r.setFetchErr(st)
			r.queue.Stop()
			return st
		}

		if !r.cfg.RotationEnabled {
			keys := perPeriod[periodIndex]
			if keys == nil {
				keys = map[media.TrackType]*media.EncryptionKey{}
			}
			if pst := r.queue.Push(keys, 0); !pst.Ok() {
				r.setFetchErr(pst)
				r.queue.Stop()
				return pst
			}
			r.queue.Stop()
			return nil
		}

		for i := int64(0); i < r.cfg.CryptoPeriodCount; i++ {
			keys := perPeriod[periodIndex+i]
			if keys == nil {
				keys = map[media.TrackType]*media.EncryptionKey{}
			}
			if pst := r.queue.Push(keys, 0); !pst.Ok() {
				r.setFetchErr(pst)
				r.queue.Stop()
				return pst
			}
		}
		periodIndex += r.cfg.CryptoPeriodCount

		select {
		case <-ctx.Done():
			r.queue.Stop()
			return nil
		default:
		}
	}
}

// fetchWithRetry performs one license request, retrying JSON-level
// "INTERNAL_ERROR" transient failures with exponential backoff (1s, 2s, 4s,
// 8s) up to maxFetchAttempts total attempts. Non-transient failures return
// immediately without retry.
func (r *RemoteKeySource) fetchWithRetry(ctx context.Context, periodIndex int64) (map[int64]map[media.TrackType]*media.EncryptionKey, status.Status) {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		perPeriod, transient, st := r.fetchOnce(ctx, periodIndex)
		if st.Ok() {
			return perPeriod, status.OKStatus
		}
		if !transient || attempt >= maxFetchAttempts {
			return nil, st
		}
		log.Warn("license request transient failure, retrying", "attempt", attempt, "backoff", backoff, "err", st.Message())
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, status.New(status.Stopped, "key source stopped during retry backoff")
		}
		backoff *= 2
	}
}

func (r *RemoteKeySource) fetchOnce(ctx context.Context, periodIndex int64) (map[int64]map[media.TrackType]*media.EncryptionKey, bool, status.Status) {
	envelope, err := r.buildRequest(periodIndex)
	if err != nil {
		return nil, false, status.Newf(status.InternalError, "failed to build license request: %v", err)
	}

	body, err := r.cfg.Fetcher.Fetch(ctx, r.cfg.ServerURL, envelope)
	if err != nil {
		return nil, true, status.Newf(status.HTTPFailure, "license request failed: %v", err)
	}

	var resp responseEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, false, status.Newf(status.ParserFailure, "malformed license response envelope: %v", err)
	}
	licenseJSON, err := base64.StdEncoding.DecodeString(resp.Response)
	if err != nil {
		return nil, false, status.Newf(status.ParserFailure, "malformed license response base64: %v", err)
	}
	var license licenseResponse
	if err := json.Unmarshal(licenseJSON, &license); err != nil {
		return nil, false, status.Newf(status.ParserFailure, "malformed license payload: %v", err)
	}

	switch license.Status {
	case "OK":
	case "INTERNAL_ERROR":
		return nil, true, status.Newf(status.ServerError, "license server reported %s", license.Status)
	default:
		return nil, false, status.Newf(status.ServerError, "license server reported %s", license.Status)
	}

	perPeriod := map[int64]map[media.TrackType]*media.EncryptionKey{}
	for _, t := range license.Tracks {
		trackType := parseTrackType(t.Type)
		key, err := buildEncryptionKey(t)
		if err != nil {
			return nil, false, status.Newf(status.ParserFailure, "malformed license track: %v", err)
		}
		idx := periodIndex
		if t.CryptoPeriodIndex != nil {
			idx = *t.CryptoPeriodIndex
		}
		m := perPeriod[idx]
		if m == nil {
			m = map[media.TrackType]*media.EncryptionKey{}
			perPeriod[idx] = m
		}
		m[trackType] = key
	}
	return perPeriod, false, status.OKStatus
}

func (r *RemoteKeySource) buildRequest(periodIndex int64) ([]byte, error) {
	payload := requestPayload{
		ContentID: base64.StdEncoding.EncodeToString(r.cfg.ContentID),
		Policy:    r.cfg.Policy,
		Tracks: []requestTrack{
			{Type: media.TrackSD.String()},
			{Type: media.TrackHD.String()},
			{Type: media.TrackAudio.String()},
		},
		DRMTypes: []string{"WIDEVINE"},
	}
	if r.cfg.RotationEnabled {
		first := periodIndex
		count := r.cfg.CryptoPeriodCount
		payload.FirstCryptoPeriodIndex = &first
		payload.CryptoPeriodCount = &count
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	sig, err := r.cfg.Signer.Sign(payloadJSON)
	if err != nil {
		return nil, fmt.Errorf("keysource: failed to sign request: %w", err)
	}

	envelope := requestEnvelope{
		Request:   base64.StdEncoding.EncodeToString(payloadJSON),
		Signature: base64.StdEncoding.EncodeToString(sig),
		Signer:    r.cfg.Signer.Name(),
	}
	return json.Marshal(envelope)
}

func parseTrackType(s string) media.TrackType {
	switch s {
	case "SD":
		return media.TrackSD
	case "HD":
		return media.TrackHD
	case "AUDIO":
		return media.TrackAudio
	default:
		return media.TrackUnknown
	}
}

func buildEncryptionKey(t licenseTrack) (*media.EncryptionKey, error) {
	keyID, err := base64.StdEncoding.DecodeString(t.KeyID)
	if err != nil {
		return nil, fmt.Errorf("key_id: %w", err)
	}
	key, err := base64.StdEncoding.DecodeString(t.Key)
	if err != nil {
		return nil, fmt.Errorf("key: %w", err)
	}

	pssh := make([][]byte, 0, len(t.PSSH))
	for _, p := range t.PSSH {
		data, err := base64.StdEncoding.DecodeString(p.Data)
		if err != nil {
			return nil, fmt.Errorf("pssh data: %w", err)
		}
		box, err := boxPSSH(keyID, data)
		if err != nil {
			return nil, fmt.Errorf("pssh boxing: %w", err)
		}
		pssh = append(pssh, box)
	}

	return &media.EncryptionKey{KeyID: keyID, Key: key, PSSH: pssh}, nil
}
