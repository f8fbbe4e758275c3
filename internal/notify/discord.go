package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"dealersim/internal/game"
)

type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts each closed day as an embed to one channel. It only uses
// the REST API; no gateway connection is opened.
type Discord struct {
	sender    embedSender
	channelID string
}

func NewDiscord(token, channelID string) (*Discord, error) {
	if token == "" || channelID == "" {
		return nil, fmt.Errorf("discord token and channel are required")
	}
	session, err := discordgo.New("Bot " + strings.TrimPrefix(token, "Bot "))
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &Discord{sender: session, channelID: channelID}, nil
}

func (d *Discord) DayClosed(ctx context.Context, r game.DailyReport) error {
	if _, err := d.sender.ChannelMessageSendEmbed(d.channelID, reportEmbed(r), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("post daily report: %w", err)
	}
	return nil
}

const (
	colorGain = 0x2ecc71
	colorLoss = 0xe74c3c
)

func reportEmbed(r game.DailyReport) *discordgo.MessageEmbed {
	color := colorGain
	if r.NetCashFlow < 0 {
		color = colorLoss
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: "Units", Value: fmt.Sprintf("%d (%.0f%% close)", r.UnitsSold, r.ClosingRate*100), Inline: true},
		{Name: "Front gross", Value: fmt.Sprintf("$%.0f", r.FrontGross), Inline: true},
		{Name: "Back gross", Value: fmt.Sprintf("$%.0f", r.BackGross), Inline: true},
		{Name: "Service", Value: fmt.Sprintf("%d ROs, %d comebacks", r.ROsCompleted, r.Comebacks), Inline: true},
		{Name: "Cash", Value: fmt.Sprintf("$%.0f (%+.0f)", r.EndingCash, r.NetCashFlow), Inline: true},
		{Name: "CSI", Value: fmt.Sprintf("%.1f", r.CSI), Inline: true},
	}
	if r.Event != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Event", Value: r.Event})
	}
	desc := ""
	if len(r.Notes) > 0 {
		desc = "• " + strings.Join(r.Notes, "\n• ")
	}
	return &discordgo.MessageEmbed{
		Title:       "Day closed " + r.Date,
		Description: desc,
		Color:       color,
		Fields:      fields,
	}
}
