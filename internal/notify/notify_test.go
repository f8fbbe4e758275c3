package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"

	"dealersim/internal/game"
)

type fakeSender struct {
	channel string
	embeds  []*discordgo.MessageEmbed
	err     error
}

func (f *fakeSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channel = channelID
	f.embeds = append(f.embeds, embed)
	return &discordgo.Message{}, f.err
}

func TestDiscordPostsEmbed(t *testing.T) {
	fs := &fakeSender{}
	d := &Discord{sender: fs, channelID: "123"}
	report := game.DailyReport{Date: "2024-01-05", UnitsSold: 3, NetCashFlow: -500, Event: "Storm", Notes: []string{"Milestone reached: first vehicle sold"}}

	require.NoError(t, d.DayClosed(context.Background(), report))
	require.Equal(t, "123", fs.channel)
	require.Len(t, fs.embeds, 1)
	e := fs.embeds[0]
	require.Equal(t, "Day closed 2024-01-05", e.Title)
	require.Equal(t, colorLoss, e.Color)
	require.Contains(t, e.Description, "first vehicle sold")
	require.Equal(t, "Event", e.Fields[len(e.Fields)-1].Name)
}

func TestDiscordWrapsErrors(t *testing.T) {
	d := &Discord{sender: &fakeSender{err: errors.New("boom")}, channelID: "1"}
	err := d.DayClosed(context.Background(), game.DailyReport{})
	require.ErrorContains(t, err, "boom")
}

func TestNewDiscordRequiresCredentials(t *testing.T) {
	_, err := NewDiscord("", "chan")
	require.Error(t, err)
}

type countingNotifier struct {
	n   int
	err error
}

func (c *countingNotifier) DayClosed(context.Context, game.DailyReport) error {
	c.n++
	return c.err
}

func TestMultiCallsEveryNotifier(t *testing.T) {
	a := &countingNotifier{err: errors.New("a failed")}
	b := &countingNotifier{}
	err := Multi{a, b, NewLog(nil)}.DayClosed(context.Background(), game.DailyReport{})
	require.ErrorContains(t, err, "a failed")
	require.Equal(t, 1, a.n)
	require.Equal(t, 1, b.n)
}

func TestSummary(t *testing.T) {
	out := Summary(game.DailyReport{Date: "2024-02-01", UnitsSold: 2, ClosingRate: 0.5, Notes: []string{"hello"}})
	require.True(t, strings.HasPrefix(out, "Day closed 2024-02-01"))
	require.Contains(t, out, "Close rate 50%")
	require.Contains(t, out, "- hello")
}
