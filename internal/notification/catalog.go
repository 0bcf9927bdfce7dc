package notification

import (
	"strings"

	"event-notifications/internal/models"
)

var eventTypes = map[string]models.NotificationType{
	"sale_approved":        models.TypeSaleConfirmed,
	"checkin_done":         models.TypeCheckinCompleted,
	"cash_register_closed": models.TypeCashClosed,
	"financial_alert":      models.TypeFinancialAlert,
	"birthday_today":       models.TypeBirthday,
	"ranking_updated":      models.TypeRankingUpdated,
	"achievement_unlocked": models.TypeAchievementUnlocked,
	"event_created":        models.TypeEventCreated,
	"list_created":         models.TypeListCreated,
}

// TypeForEvent maps an internal platform event to the notification type its
// templates are registered under.
func TypeForEvent(event string) (models.NotificationType, bool) {
	t, ok := eventTypes[event]
	return t, ok
}

var baseVariables = []string{"name", "current_date", "current_time"}

var typeVariables = map[models.NotificationType][]string{
	models.TypeSaleConfirmed:       {"event_name", "event_date", "event_location", "amount", "list_name"},
	models.TypeCheckinCompleted:    {"event_name", "event_date", "event_location"},
	models.TypeCashClosed:          {"event_name", "total_revenue", "total_sales"},
	models.TypeBirthday:            {"event_name", "event_date"},
	models.TypeAchievementUnlocked: {"achievement_name", "badge_level"},
	models.TypeRankingUpdated:      {"ranking_position", "total_sales", "total_revenue"},
	models.TypeEventCreated:        {"event_name", "event_date", "event_location"},
	models.TypeListCreated:         {"list_name", "event_name"},
}

// variables lists the placeholders a template of type t can use, each
// wrapped in braces.
func variables(t models.NotificationType) []string {
	names := append(append([]string{}, baseVariables...), typeVariables[t]...)
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "{" + n + "}"
	}
	return out
}

// AvailableVariables is the comma separated form stored on templates.
func AvailableVariables(t models.NotificationType) string {
	return strings.Join(variables(t), ", ")
}

// TypeCatalog returns every notification type with its label and variables.
func TypeCatalog() []models.Labeled {
	types := models.AllNotificationTypes()
	out := make([]models.Labeled, 0, len(types))
	for _, t := range types {
		out = append(out, models.Labeled{Value: string(t), Label: t.Label(), Variables: AvailableVariables(t)})
	}
	return out
}

// ChannelCatalog returns every channel with its label.
func ChannelCatalog() []models.Labeled {
	channels := models.AllChannels()
	out := make([]models.Labeled, 0, len(channels))
	for _, c := range channels {
		out = append(out, models.Labeled{Value: string(c), Label: c.Label()})
	}
	return out
}
