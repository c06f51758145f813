package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Twilio signs each webhook with HMAC-SHA1 over the externally visible request
// URL concatenated with every POST parameter, key+value, keys in lexical order.
// Ref: https://www.twilio.com/docs/usage/security#validating-requests

var (
	ErrNoAuthToken      = errors.New("telephony: webhook auth token not configured")
	ErrInvalidSignature = errors.New("telephony: invalid webhook signature")
)

const SignatureHeader = "X-Twilio-Signature"

// Sign computes the provider signature for a request.
func Sign(authToken, requestURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(requestURL)
	for _, k := range keys {
		for _, v := range params[k] {
			b.WriteString(k)
			b.WriteString(v)
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateSignature checks a presented signature against the expected one.
// A missing auth token is a server misconfiguration, not a bad request.
func ValidateSignature(authToken, requestURL, signature string, params url.Values) error {
	if authToken == "" {
		return ErrNoAuthToken
	}
	expected := Sign(authToken, requestURL, params)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// RequestURL reconstructs the externally visible URL the provider signed.
// Proxy-forwarded headers take precedence over socket-level values because the
// provider signs what it dialed, not what the edge rewrote. The query string is
// dropped; providers fold query parameters into the signed body instead.
func RequestURL(r *http.Request) string {
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		if r.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return scheme + "://" + host + r.URL.Path
}
