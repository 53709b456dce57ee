package infrastructure

import (
	"context"
	"fmt"
	"strings"

	"investa/domain/utils"
	"investa/events"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// ChannelMessageSender is the part of *discordgo.Session the notifier needs
type ChannelMessageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts approval queue activity to an admin channel
type DiscordNotifier struct {
	sender    ChannelMessageSender
	channelID string
}

// NewDiscordNotifier creates a notifier for the given channel
func NewDiscordNotifier(sender ChannelMessageSender, channelID string) *DiscordNotifier {
	return &DiscordNotifier{sender: sender, channelID: channelID}
}

// OpenDiscordSession opens a bot session for token
func OpenDiscordSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open Discord session: %w", err)
	}
	return session, nil
}

// Register subscribes the notifier to the request events
func (n *DiscordNotifier) Register(publisher *EventPublisher) {
	publisher.RegisterLocalHandler(events.EventTypeRequestSubmitted, n.Handle)
	publisher.RegisterLocalHandler(events.EventTypeRequestDecided, n.Handle)
}

// Handle formats and sends one event. Other event types are ignored.
func (n *DiscordNotifier) Handle(ctx context.Context, event events.Event) {
	content := n.format(event)
	if content == "" {
		return
	}

	if _, err := n.sender.ChannelMessageSend(n.channelID, content); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"channelID": n.channelID,
			"error":     err,
		}).Error("Failed to send admin notification")
	}
}

func (n *DiscordNotifier) format(event events.Event) string {
	switch e := event.(type) {
	case events.RequestSubmittedEvent:
		return fmt.Sprintf("📥 New %s request #%d from investor %d: **%s**",
			e.Kind, e.RequestID, e.InvestorID, utils.FormatUSD(e.Amount))
	case events.RequestDecidedEvent:
		if e.Kind == "" {
			return ""
		}
		verb := "approved"
		if e.Outcome != "approve" {
			verb = "rejected"
		}
		return fmt.Sprintf("%s request #%d (%s) %s by admin %d",
			strings.ToUpper(e.Kind[:1])+e.Kind[1:], e.RequestID, utils.FormatUSD(e.Amount), verb, e.AdminID)
	}
	return ""
}
