package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/example/voice-notifier/internal/infrastructure/store"
	"go.uber.org/zap"
)

const (
	commandNotify = "notify"

	subcommandAdd    = "add"
	subcommandRemove = "remove"
	subcommandList   = "list"

	optionVoice = "voice"
	optionText  = "text"
)

var manageChannels int64 = discordgo.PermissionManageChannels

// NotifyCommand is the slash command managing join notice subscriptions.
var NotifyCommand = &discordgo.ApplicationCommand{
	Name:                     commandNotify,
	Description:              "ボイスチャンネルの入室通知を設定します",
	DefaultMemberPermissions: &manageChannels,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        subcommandAdd,
			Description: "入室通知を追加します",
			Options:     channelOptions(),
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        subcommandRemove,
			Description: "入室通知を削除します",
			Options:     channelOptions(),
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        subcommandList,
			Description: "このサーバーの入室通知を一覧表示します",
		},
	},
}

func channelOptions() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         optionVoice,
			Description:  "監視するボイスチャンネル",
			Required:     true,
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice},
		},
		{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         optionText,
			Description:  "通知を送るテキストチャンネル",
			Required:     true,
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews},
		},
	}
}

// Commands serves the notify slash command against the registry.
type Commands struct {
	registry store.SubscriptionStore
	logger   *zap.Logger
}

// NewCommands creates the notify command handler.
func NewCommands(registry store.SubscriptionStore, logger *zap.Logger) *Commands {
	return &Commands{registry: registry, logger: logger}
}

// Register installs the command globally and starts handling interactions.
func (c *Commands) Register(s *discordgo.Session) error {
	if s.State.User == nil {
		return errors.New("session is not ready")
	}
	if _, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, "", []*discordgo.ApplicationCommand{NotifyCommand}); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	s.AddHandler(c.onInteraction)
	return nil
}

func (c *Commands) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != commandNotify || len(data.Options) == 0 {
		return
	}

	sub := data.Options[0]
	req := NotifyRequest{GuildID: i.GuildID, Subcommand: sub.Name}
	for _, opt := range sub.Options {
		switch opt.Name {
		case optionVoice:
			req.VoiceChannelID = opt.ChannelValue(nil).ID
		case optionText:
			req.TextChannelID = opt.ChannelValue(nil).ID
		}
	}

	go c.respond(s, i, req)
}

func (c *Commands) respond(s *discordgo.Session, i *discordgo.InteractionCreate, req NotifyRequest) {
	reply := c.Handle(context.Background(), req)
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: reply,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		c.logger.Warn("interaction response failed", zap.String("guild_id", i.GuildID), zap.Error(err))
	}
}

// NotifyRequest is a parsed invocation of the notify command.
type NotifyRequest struct {
	GuildID        string
	Subcommand     string
	VoiceChannelID string
	TextChannelID  string
}

// Handle executes a notify request and returns the reply text.
func (c *Commands) Handle(ctx context.Context, req NotifyRequest) string {
	if req.GuildID == "" {
		return "このコマンドはサーバー内でのみ使用できます。"
	}
	sub := store.Subscription{
		GuildID:        req.GuildID,
		VoiceChannelID: req.VoiceChannelID,
		TextChannelID:  req.TextChannelID,
	}

	switch req.Subcommand {
	case subcommandAdd:
		if err := c.registry.Add(ctx, sub); err != nil {
			c.logger.Error("add subscription failed", zap.String("guild_id", req.GuildID), zap.Error(err))
			return "通知の登録に失敗しました。"
		}
		return fmt.Sprintf("<#%s> に入室したら <#%s> に通知します。", sub.VoiceChannelID, sub.TextChannelID)

	case subcommandRemove:
		err := c.registry.Remove(ctx, sub)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return fmt.Sprintf("<#%s> から <#%s> への通知は登録されていません。", sub.VoiceChannelID, sub.TextChannelID)
		case err != nil:
			c.logger.Error("remove subscription failed", zap.String("guild_id", req.GuildID), zap.Error(err))
			return "通知の削除に失敗しました。"
		}
		return fmt.Sprintf("<#%s> から <#%s> への通知を削除しました。", sub.VoiceChannelID, sub.TextChannelID)

	case subcommandList:
		subs, err := c.registry.ListByGuild(ctx, req.GuildID)
		if err != nil {
			c.logger.Error("list subscriptions failed", zap.String("guild_id", req.GuildID), zap.Error(err))
			return "通知の取得に失敗しました。"
		}
		if len(subs) == 0 {
			return "登録されている通知はありません。"
		}
		var b strings.Builder
		b.WriteString("登録されている通知:\n")
		for _, s := range subs {
			fmt.Fprintf(&b, "- <#%s> → <#%s>\n", s.VoiceChannelID, s.TextChannelID)
		}
		return strings.TrimRight(b.String(), "\n")
	}

	return "不明なサブコマンドです。"
}
