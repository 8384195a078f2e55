package medium

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/pkg/entities"
	"github.com/JacMa99/appless-workout-mvp/utilities"
)

// DiscordReporter posts run reports into an ops channel. Only the REST side
// of the session is used, so no gateway connection is opened.
type DiscordReporter struct {
	client    *discordgo.Session
	channelID string
}

func NewDiscordReporter(cfg config.DiscordReport) (*DiscordReporter, error) {
	if cfg.BotToken == "" || cfg.ChannelID == "" {
		return nil, fmt.Errorf("discord report needs bot_token and channel_id")
	}

	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}

	return &DiscordReporter{client: dg, channelID: cfg.ChannelID}, nil
}

func (d *DiscordReporter) Name() string {
	return "discord"
}

func (d *DiscordReporter) Report(ctx context.Context, summary *entities.NudgeRunSummary, runErr error) error {
	log := utilities.NewLogger("DiscordReporter.Report")

	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := RenderReport(summary, runErr)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("**%s**\n```%s```", reportSubject(summary, runErr), body)

	sent, err := d.client.ChannelMessageSendComplex(
		d.channelID, &discordgo.MessageSend{
			Content: msg,
		},
	)
	if err != nil {
		log.WithError(err).Errorf("failed to post report to channel %s", d.channelID)
		return err
	}

	log.Debugf("Discord report %s posted to channel %s", sent.ID, d.channelID)

	return nil
}
