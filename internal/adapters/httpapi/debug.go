package httpapi

import (
	"net/http"
	"net/http/httputil"
	"regexp"
	"time"

	"github.com/rs/zerolog"
)

var authorizationLine = regexp.MustCompile(`(?im)^(Authorization:\s*Bearer\s+)\S+`)

type debugTransport struct {
	base   http.RoundTripper
	logger zerolog.Logger
}

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if dump, err := httputil.DumpRequestOut(req, true); err == nil {
		dt.logger.Debug().
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Str("request_id", req.Header.Get(requestIDHeader)).
			Str("request_dump", redact(dump)).
			Msg("http request")
	}

	started := time.Now()
	resp, err := dt.base.RoundTrip(req)
	if err != nil {
		dt.logger.Debug().Err(err).
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Dur("elapsed", time.Since(started)).
			Msg("http request failed")
		return nil, err
	}

	if dump, err := httputil.DumpResponse(resp, true); err == nil {
		dt.logger.Debug().
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Int("status_code", resp.StatusCode).
			Dur("elapsed", time.Since(started)).
			Str("response_dump", redact(dump)).
			Msg("http response")
	}
	return resp, nil
}

func redact(dump []byte) string {
	return authorizationLine.ReplaceAllString(string(dump), "${1}[REDACTED]")
}
