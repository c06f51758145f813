package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// CallerInfo is the caller-intelligence result for one phone number.
type CallerInfo struct {
	CallerName        string `json:"callerName,omitempty"`
	CallerType        string `json:"callerType,omitempty"`
	LineType          string `json:"lineType,omitempty"`
	CarrierName       string `json:"carrierName,omitempty"`
	MobileCountryCode string `json:"mobileCountryCode,omitempty"`
	MobileNetworkCode string `json:"mobileNetworkCode,omitempty"`
}

// ErrNumberNotFound marks the "invalid/unknown number" class of upstream
// failures, which gets negative-cached instead of retried on every call.
var ErrNumberNotFound = errors.New("lookup: number not found")

// Client resolves a phone number against the upstream intelligence provider.
type Client interface {
	Lookup(ctx context.Context, e164 string) (CallerInfo, error)
}

const defaultLookupBaseURL = "https://lookups.twilio.com"

// TwilioClient calls the Twilio Lookup v2 API.
// No provider SDK; a bounded plain-HTTP client is all this needs.
type TwilioClient struct {
	AccountSID string
	AuthToken  string

	// BaseURL is overridable in tests.
	BaseURL    string
	HTTPClient *http.Client
}

func (c *TwilioClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (c *TwilioClient) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultLookupBaseURL
}

type lookupResponse struct {
	PhoneNumber string `json:"phone_number"`
	CallerName  *struct {
		CallerName string `json:"caller_name"`
		CallerType string `json:"caller_type"`
	} `json:"caller_name"`
	LineTypeIntelligence *struct {
		Type              string `json:"type"`
		CarrierName       string `json:"carrier_name"`
		MobileCountryCode string `json:"mobile_country_code"`
		MobileNetworkCode string `json:"mobile_network_code"`
	} `json:"line_type_intelligence"`
}

func (c *TwilioClient) Lookup(ctx context.Context, e164 string) (CallerInfo, error) {
	if c.AccountSID == "" || c.AuthToken == "" {
		return CallerInfo{}, errors.New("lookup: credentials not configured")
	}

	u := fmt.Sprintf("%s/v2/PhoneNumbers/%s?Fields=caller_name,line_type_intelligence", c.baseURL(), url.PathEscape(e164))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return CallerInfo{}, err
	}
	req.SetBasicAuth(c.AccountSID, c.AuthToken)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return CallerInfo{}, fmt.Errorf("lookup: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
		return CallerInfo{}, ErrNumberNotFound
	case resp.StatusCode != http.StatusOK:
		return CallerInfo{}, fmt.Errorf("lookup: upstream returned %d", resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return CallerInfo{}, fmt.Errorf("lookup: decode response: %w", err)
	}

	info := CallerInfo{}
	if body.CallerName != nil {
		info.CallerName = body.CallerName.CallerName
		info.CallerType = body.CallerName.CallerType
	}
	if body.LineTypeIntelligence != nil {
		info.LineType = body.LineTypeIntelligence.Type
		info.CarrierName = body.LineTypeIntelligence.CarrierName
		info.MobileCountryCode = body.LineTypeIntelligence.MobileCountryCode
		info.MobileNetworkCode = body.LineTypeIntelligence.MobileNetworkCode
	}
	return info, nil
}
