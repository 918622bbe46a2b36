// Package links builds the environment-aware URLs of the Meeting BaaS apps
// that emails point to.
package links

import (
	"net/url"

	"github.com/Meeting-BaaS/emails/internal/catalog"
)

// Config selects the environment. Environment is a subdomain prefix such as
// "pre-prod-" and is empty in production.
type Config struct {
	Environment string `env:"NEXT_PUBLIC_ENVIRONMENT"`
	BaseDomain  string `env:"NEXT_PUBLIC_BASE_DOMAIN" envDefault:"meetingbaas.com"`
}

// Links holds the app base URLs.
type Links struct {
	Settings  string
	Billing   string
	Usage     string
	Analytics string
	AIChat    string
	Logs      string
}

// New derives every app URL from cfg.
func New(cfg Config) Links {
	domain := cfg.BaseDomain
	if domain == "" {
		domain = "meetingbaas.com"
	}
	app := func(sub string) string {
		return "https://" + sub + "." + cfg.Environment + domain
	}
	settings := app("settings")
	return Links{
		Settings:  settings,
		Billing:   settings + "/billing",
		Usage:     settings + "/usage",
		Analytics: app("analytics"),
		AIChat:    app("chat"),
		Logs:      app("logs"),
	}
}

// Unsubscribe is the preferences page link that unsubscribes from id.
func (l Links) Unsubscribe(id catalog.EmailID) string {
	return l.Settings + "/email-preferences?unsubscribe=" + url.QueryEscape(string(id))
}

// Chat links to an AI chat conversation.
func (l Links) Chat(chatID string) string {
	return l.AIChat + "/chat/" + url.PathEscape(chatID)
}

// BotLogs links to the logs of one bot.
func (l Links) BotLogs(botUUID string) string {
	return l.Logs + "?bot_uuid=" + url.QueryEscape(botUUID)
}
