package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/orwex/calldeck/internal/api"
	"github.com/orwex/calldeck/internal/config"
	"github.com/orwex/calldeck/internal/query"
)

// Query keys. Pages and mutations agree on these; prefix invalidation
// covers whole resources (e.g. "leads" hits every leads page).
func keyLeads(page, size int) query.Key {
	return query.KeyOf("leads", fmt.Sprintf("page=%d", page), fmt.Sprintf("size=%d", size))
}

func keyCalls(page, size int) query.Key {
	return query.KeyOf("calls", fmt.Sprintf("page=%d", page), fmt.Sprintf("size=%d", size))
}

func keyCallDetail(id int) query.Key {
	return query.KeyOf("calls", "detail", id)
}

func keyMeetings(page, size int) query.Key {
	return query.KeyOf("meetings", fmt.Sprintf("page=%d", page), fmt.Sprintf("size=%d", size))
}

var (
	keyOverview       = query.KeyOf("analytics", "overview")
	keyCallOutcomes   = query.KeyOf("analytics", "call-outcomes")
	keyLanguages      = query.KeyOf("analytics", "language-distribution")
	keyLeadStatus     = query.KeyOf("analytics", "lead-status-distribution")
	keyActivity       = query.KeyOf("analytics", "recent-activity")
	keyCampaigns      = query.KeyOf("analytics", "active-campaigns")
	keyCallsOverTime  = query.KeyOf("analytics", "calls-over-time")
	keyCampaignStatus = query.KeyOf("campaigns", "status")
	keySystemPrompt   = query.KeyOf("settings", "system_prompt")
	keyDefaultPrompt  = query.KeyOf("settings", "default_prompt")
	keyVoices         = query.KeyOf("settings", "voices")
	keyVoice          = query.KeyOf("settings", "voice")
)

// source binds the query cache to the API client. It is created once
// at app start and shared by every view; all reads go through the
// cache, all writes through its mutations.
type source struct {
	cache  *query.Cache
	client *api.Client
	cfg    *config.Config

	// One mutation instance per logical write action; each declares
	// the key prefixes its success makes stale.
	createLead    *query.Mutation
	uploadLeads   *query.Mutation
	deleteLead    *query.Mutation
	startCampaign *query.Mutation
	savePrompt    *query.Mutation
	saveVoice     *query.Mutation
	clearSettings *query.Mutation
}

func newSource(cache *query.Cache, client *api.Client, cfg *config.Config) *source {
	return &source{
		cache:  cache,
		client: client,
		cfg:    cfg,

		createLead:  query.NewMutation(cache, "create-lead", "leads", "analytics"),
		uploadLeads: query.NewMutation(cache, "upload-leads", "leads", "analytics"),
		deleteLead:  query.NewMutation(cache, "delete-lead", "leads", "analytics"),
		startCampaign: query.NewMutation(cache, "start-campaign",
			"leads", query.KeyOf("analytics", "active-campaigns"), "campaigns"),
		savePrompt:    query.NewMutation(cache, "save-system-prompt", keySystemPrompt),
		saveVoice:     query.NewMutation(cache, "save-voice", keyVoice),
		clearSettings: query.NewMutation(cache, "clear-settings-cache"),
	}
}

// ctx returns a request context bounded by the configured HTTP
// timeout. Commands run outside the UI loop, so each carries its own
// deadline.
func (s *source) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.cfg.HTTPTimeout+time.Second)
}

// pollAge is the maximum age for polled queries; anything older is
// refetched on next access.
func (s *source) pollAge() time.Duration { return s.cfg.PollInterval }

// --- Reads (all cached) ---

func (s *source) leads(ctx context.Context, page int) (api.LeadList, error) {
	size := s.cfg.PageSize
	return query.FetchAs(ctx, s.cache, keyLeads(page, size), 0, func(ctx context.Context) (api.LeadList, error) {
		return s.client.ListLeads(ctx, page, size)
	})
}

func (s *source) calls(ctx context.Context, page int) ([]api.Call, error) {
	size := s.cfg.PageSize
	return query.FetchAs(ctx, s.cache, keyCalls(page, size), 0, func(ctx context.Context) ([]api.Call, error) {
		return s.client.ListCalls(ctx, page, size)
	})
}

func (s *source) callDetail(ctx context.Context, id int) (api.CallDetail, error) {
	return query.FetchAs(ctx, s.cache, keyCallDetail(id), 0, func(ctx context.Context) (api.CallDetail, error) {
		return s.client.GetCall(ctx, id)
	})
}

func (s *source) meetings(ctx context.Context, page int) (api.MeetingList, error) {
	size := s.cfg.PageSize
	return query.FetchAs(ctx, s.cache, keyMeetings(page, size), 0, func(ctx context.Context) (api.MeetingList, error) {
		return s.client.ListMeetings(ctx, page, size)
	})
}

func (s *source) overview(ctx context.Context) (api.AnalyticsOverview, error) {
	return query.FetchAs(ctx, s.cache, keyOverview, 0, s.client.GetAnalyticsOverview)
}

func (s *source) callOutcomes(ctx context.Context) (api.CallOutcomes, error) {
	return query.FetchAs(ctx, s.cache, keyCallOutcomes, 0, s.client.GetCallOutcomes)
}

func (s *source) languages(ctx context.Context) (api.LanguageDistribution, error) {
	return query.FetchAs(ctx, s.cache, keyLanguages, 0, s.client.GetLanguageDistribution)
}

// Polled queries refetch automatically once they are older than the
// poll interval.

func (s *source) leadStatusDistribution(ctx context.Context) (api.LeadStatusDistribution, error) {
	return query.FetchAs(ctx, s.cache, keyLeadStatus, s.pollAge(), s.client.GetLeadStatusDistribution)
}

func (s *source) recentActivity(ctx context.Context) (api.RecentActivity, error) {
	return query.FetchAs(ctx, s.cache, keyActivity, s.pollAge(), func(ctx context.Context) (api.RecentActivity, error) {
		return s.client.GetRecentActivity(ctx, s.cfg.ActivityLimit)
	})
}

func (s *source) activeCampaigns(ctx context.Context) (api.ActiveCampaigns, error) {
	return query.FetchAs(ctx, s.cache, keyCampaigns, s.pollAge(), s.client.GetActiveCampaigns)
}

func (s *source) campaignStatus(ctx context.Context) (api.CampaignStatus, error) {
	return query.FetchAs(ctx, s.cache, keyCampaignStatus, s.pollAge(), s.client.GetCampaignStatus)
}

func (s *source) callsOverTime(ctx context.Context, days int) (api.CallsOverTime, error) {
	return query.FetchAs(ctx, s.cache, keyCallsOverTime, 0, func(ctx context.Context) (api.CallsOverTime, error) {
		return s.client.GetCallsOverTime(ctx, days)
	})
}

func (s *source) systemPrompt(ctx context.Context) (api.Setting, error) {
	return query.FetchAs(ctx, s.cache, keySystemPrompt, 0, s.client.GetSystemPrompt)
}

func (s *source) defaultPrompt(ctx context.Context) (api.DefaultPrompt, error) {
	return query.FetchAs(ctx, s.cache, keyDefaultPrompt, 0, s.client.GetDefaultSystemPrompt)
}

func (s *source) voices(ctx context.Context) (api.VoiceList, error) {
	return query.FetchAs(ctx, s.cache, keyVoices, 0, s.client.ListVoices)
}

func (s *source) voice(ctx context.Context) (api.Voice, error) {
	return query.FetchAs(ctx, s.cache, keyVoice, 0, s.client.GetVoice)
}

// invalidatePolled marks the periodically refreshed keys stale so the
// active view's next load hits the network. Covers everything the
// dashboard and analytics pages render.
func (s *source) invalidatePolled() {
	for _, k := range []query.Key{
		keyOverview, keyActivity, keyCampaigns, keyCampaignStatus,
		keyLeadStatus, keyCallOutcomes, keyLanguages, keyCallsOverTime,
	} {
		s.cache.Invalidate(k)
	}
}
