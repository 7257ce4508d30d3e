package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"
)

// Error is the uniform failure shape for every adapter operation.
// Status is the HTTP status code, or 0 for transport-level failures.
// Message carries the backend's detail text verbatim when present.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Client wraps the calling backend's REST API. One HTTP request per
// operation; no retries, no auth.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the given base URL, e.g.
// "http://localhost:8000/api".
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func transportErr(err error) *Error {
	return &Error{Status: 0, Message: err.Error()}
}

// detailBody matches FastAPI's error envelope.
type detailBody struct {
	Detail string `json:"detail"`
}

func errorFrom(resp *http.Response) *Error {
	body, _ := io.ReadAll(resp.Body)
	var d detailBody
	if json.Unmarshal(body, &d) == nil && d.Detail != "" {
		return &Error{Status: resp.StatusCode, Message: d.Detail}
	}
	return &Error{Status: resp.StatusCode, Message: fmt.Sprintf("request failed with status %d", resp.StatusCode)}
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return transportErr(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFrom(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return transportErr(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

func (c *Client) send(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return transportErr(err)
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, method, path, body, "application/json", out)
}

// --- Analytics ---

func (c *Client) GetAnalyticsOverview(ctx context.Context) (AnalyticsOverview, error) {
	var out AnalyticsOverview
	err := c.get(ctx, "/analytics/overview", &out)
	return out, err
}

func (c *Client) GetCallOutcomes(ctx context.Context) (CallOutcomes, error) {
	var out CallOutcomes
	err := c.get(ctx, "/analytics/call-outcomes", &out)
	return out, err
}

func (c *Client) GetLanguageDistribution(ctx context.Context) (LanguageDistribution, error) {
	var out LanguageDistribution
	err := c.get(ctx, "/analytics/language-distribution", &out)
	return out, err
}

func (c *Client) GetLeadStatusDistribution(ctx context.Context) (LeadStatusDistribution, error) {
	var out LeadStatusDistribution
	err := c.get(ctx, "/analytics/lead-status-distribution", &out)
	return out, err
}

func (c *Client) GetRecentActivity(ctx context.Context, limit int) (RecentActivity, error) {
	var out RecentActivity
	err := c.get(ctx, fmt.Sprintf("/analytics/recent-activity?limit=%d", limit), &out)
	return out, err
}

func (c *Client) GetActiveCampaigns(ctx context.Context) (ActiveCampaigns, error) {
	var out ActiveCampaigns
	err := c.get(ctx, "/analytics/active-campaigns", &out)
	return out, err
}

func (c *Client) GetCallsOverTime(ctx context.Context, days int) (CallsOverTime, error) {
	var out CallsOverTime
	err := c.get(ctx, fmt.Sprintf("/analytics/calls-over-time?days=%d", days), &out)
	return out, err
}

// --- Leads ---

func (c *Client) ListLeads(ctx context.Context, page, pageSize int) (LeadList, error) {
	var out LeadList
	err := c.get(ctx, fmt.Sprintf("/leads/?page=%d&page_size=%d", page, pageSize), &out)
	return out, err
}

func (c *Client) CreateLead(ctx context.Context, lead NewLead) (Lead, error) {
	var out Lead
	err := c.send(ctx, http.MethodPost, "/leads/", lead, &out)
	return out, err
}

// UploadLeads posts a CSV file as multipart form data under the
// "file" field. The backend parses the rows; the summary is returned
// as-is.
func (c *Client) UploadLeads(ctx context.Context, filename string, r io.Reader) (UploadSummary, error) {
	var out UploadSummary

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return out, transportErr(err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return out, transportErr(err)
	}
	if err := mw.Close(); err != nil {
		return out, transportErr(err)
	}

	err = c.do(ctx, http.MethodPost, "/leads/upload", &buf, mw.FormDataContentType(), &out)
	return out, err
}

func (c *Client) DeleteLead(ctx context.Context, id int) (DeleteResult, error) {
	var out DeleteResult
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/leads/%d", id), nil, "", &out)
	return out, err
}

// --- Calls ---

func (c *Client) ListCalls(ctx context.Context, page, pageSize int) ([]Call, error) {
	var out []Call
	err := c.get(ctx, fmt.Sprintf("/calls/?page=%d&page_size=%d", page, pageSize), &out)
	return out, err
}

func (c *Client) GetCall(ctx context.Context, id int) (CallDetail, error) {
	var out CallDetail
	err := c.get(ctx, fmt.Sprintf("/calls/%d", id), &out)
	return out, err
}

// --- Meetings ---

func (c *Client) ListMeetings(ctx context.Context, page, pageSize int) (MeetingList, error) {
	var out MeetingList
	err := c.get(ctx, fmt.Sprintf("/meetings/?page=%d&page_size=%d", page, pageSize), &out)
	return out, err
}

// --- Campaigns ---

func (c *Client) StartCampaign(ctx context.Context, name string, leadIDs []int) (CampaignResult, error) {
	var out CampaignResult
	err := c.send(ctx, http.MethodPost, "/campaigns/start", CampaignStart{Name: name, LeadIDs: leadIDs}, &out)
	return out, err
}

func (c *Client) GetCampaignStatus(ctx context.Context) (CampaignStatus, error) {
	var out CampaignStatus
	err := c.get(ctx, "/campaigns/status", &out)
	return out, err
}

// --- Settings ---

func (c *Client) GetSystemPrompt(ctx context.Context) (Setting, error) {
	var out Setting
	err := c.get(ctx, "/settings/system_prompt", &out)
	return out, err
}

func (c *Client) UpdateSystemPrompt(ctx context.Context, value string) (Setting, error) {
	var out Setting
	err := c.send(ctx, http.MethodPut, "/settings/system_prompt", SettingUpdate{Value: value}, &out)
	return out, err
}

func (c *Client) GetDefaultSystemPrompt(ctx context.Context) (DefaultPrompt, error) {
	var out DefaultPrompt
	err := c.get(ctx, "/settings/system_prompt/default", &out)
	return out, err
}

func (c *Client) ClearSettingsCache(ctx context.Context) (CacheClearResult, error) {
	var out CacheClearResult
	err := c.send(ctx, http.MethodPost, "/settings/cache/clear", nil, &out)
	return out, err
}

func (c *Client) ListVoices(ctx context.Context) (VoiceList, error) {
	var out VoiceList
	err := c.get(ctx, "/settings/voices", &out)
	return out, err
}

func (c *Client) GetVoice(ctx context.Context) (Voice, error) {
	var out Voice
	err := c.get(ctx, "/settings/voice", &out)
	return out, err
}

func (c *Client) UpdateVoice(ctx context.Context, v Voice) (Voice, error) {
	var out Voice
	err := c.send(ctx, http.MethodPut, "/settings/voice", v, &out)
	return out, err
}

// BaseURL reports the configured backend address.
func (c *Client) BaseURL() string { return c.baseURL }
