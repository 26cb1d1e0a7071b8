package integrations

// Mutation identifies a write operation and, through the tables below, the
// cache scopes it invalidates and its default success notification.
type Mutation string

// Mutations
const (
	MutationUpdateCalendar    Mutation = "update_calendar_integration"
	MutationDeleteCalendar    Mutation = "delete_calendar_integration"
	MutationRefreshCalendar   Mutation = "refresh_calendar_sync"
	MutationForceSyncCalendar Mutation = "force_calendar_sync"
	MutationUpdateVideo       Mutation = "update_video_integration"
	MutationDeleteVideo       Mutation = "delete_video_integration"
	MutationCreateWebhook     Mutation = "create_webhook_integration"
	MutationUpdateWebhook     Mutation = "update_webhook_integration"
	MutationDeleteWebhook     Mutation = "delete_webhook_integration"
	MutationTestWebhook       Mutation = "test_webhook"
	MutationOAuthCallback     Mutation = "oauth_callback"
)

var invalidations = map[Mutation][]Scope{
	MutationUpdateCalendar:    {ScopeCalendar, ScopeHealth},
	MutationDeleteCalendar:    {ScopeCalendar, ScopeHealth},
	MutationRefreshCalendar:   {ScopeCalendar, ScopeLogs},
	MutationForceSyncCalendar: {ScopeCalendar, ScopeLogs},
	MutationUpdateVideo:       {ScopeVideo, ScopeHealth},
	MutationDeleteVideo:       {ScopeVideo, ScopeHealth},
	MutationCreateWebhook:     {ScopeWebhooks},
	MutationUpdateWebhook:     {ScopeWebhooks},
	MutationDeleteWebhook:     {ScopeWebhooks},
	MutationTestWebhook:       {ScopeLogs},
	MutationOAuthCallback:     {ScopeCalendar, ScopeVideo, ScopeHealth},
}

var successMessages = map[Mutation]string{
	MutationUpdateCalendar:    "Calendar integration updated successfully",
	MutationDeleteCalendar:    "Calendar integration disconnected successfully",
	MutationRefreshCalendar:   "Calendar sync refreshed successfully",
	MutationForceSyncCalendar: "Calendar sync initiated successfully",
	MutationUpdateVideo:       "Video integration updated successfully",
	MutationDeleteVideo:       "Video integration disconnected successfully",
	MutationCreateWebhook:     "Webhook integration created successfully",
	MutationUpdateWebhook:     "Webhook integration updated successfully",
	MutationDeleteWebhook:     "Webhook integration deleted successfully",
	MutationTestWebhook:       "Test webhook sent successfully",
	MutationOAuthCallback:     "Integration connected successfully",
}

// Invalidates returns the scopes a successful m invalidates.
func (m Mutation) Invalidates() []Scope {
	scopes := invalidations[m]
	out := make([]Scope, len(scopes))
	copy(out, scopes)
	return out
}

// SuccessMessage returns the default notification for a successful m.
func (m Mutation) SuccessMessage() string {
	return successMessages[m]
}

// Mutations returns every declared mutation.
func Mutations() []Mutation {
	out := make([]Mutation, 0, len(invalidations))
	for m := range invalidations {
		out = append(out, m)
	}
	return out
}
