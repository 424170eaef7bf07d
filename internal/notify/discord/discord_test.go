package discord

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/callboard/callboard/internal/notify"
)

type mockSession struct {
	calls   int
	channel string
	embed   *discordgo.MessageEmbed
	err     error
}

func (m *mockSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.calls++
	m.channel = channelID
	m.embed = embed
	if m.err != nil {
		return nil, m.err
	}
	return &discordgo.Message{ID: "1"}, nil
}

func sampleNotice() notify.Notice {
	return notify.Notice{
		TaskID:      7,
		TaskName:    "Rig lighting",
		ProjectName: "Pilot",
		PhaseName:   "Prep",
		Reason:      "crane unavailable",
		EscalatedAt: time.Now(),
	}
}

func TestNew_RequiresChannel(t *testing.T) {
	_, err := New(AdapterOpts{BotToken: "x"})
	if err == nil || !strings.Contains(err.Error(), "channel") {
		t.Errorf("err = %v, want channel requirement", err)
	}
}

func TestNew_RequiresTokenWithoutSession(t *testing.T) {
	_, err := New(AdapterOpts{ChannelID: "123"})
	if err == nil || !strings.Contains(err.Error(), "token") {
		t.Errorf("err = %v, want token requirement", err)
	}
}

func TestNotify_SendsEmbed(t *testing.T) {
	m := &mockSession{}
	a, err := New(AdapterOpts{ChannelID: "456", Session: m})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := a.Notify(context.Background(), sampleNotice()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if m.calls != 1 || m.channel != "456" {
		t.Errorf("calls = %d channel = %q, want 1 call to 456", m.calls, m.channel)
	}
	if m.embed == nil || !strings.Contains(m.embed.Description, "crane unavailable") {
		t.Errorf("embed = %+v, want reason in description", m.embed)
	}
}

func TestNotify_PropagatesError(t *testing.T) {
	m := &mockSession{err: errors.New("missing access")}
	a, err := New(AdapterOpts{ChannelID: "456", Session: m})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := a.Notify(context.Background(), sampleNotice()); err == nil {
		t.Fatal("Notify returned nil, want error")
	}
}
