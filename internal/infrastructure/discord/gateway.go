package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/example/voice-notifier/internal/voice"
	"go.uber.org/zap"
)

// Intents the bot needs: guild metadata and voice state updates.
const Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates

// Submitter accepts transitions for asynchronous processing. load runs off
// the gateway goroutine and may block on name lookups.
type Submitter interface {
	Submit(ctx context.Context, receivedAt time.Time, load func() (before, after voice.Snapshot))
}

// Gateway feeds voice state updates from a session into a Submitter.
type Gateway struct {
	ctx       context.Context
	session   *discordgo.Session
	directory Directory
	submitter Submitter
	logger    *zap.Logger
	now       func() time.Time
}

// NewGateway registers the voice state handler on s. ctx scopes the work
// started for every transition. Arrival order is only preserved when
// s.SyncEvents is set.
func NewGateway(ctx context.Context, s *discordgo.Session, dir Directory, submitter Submitter, logger *zap.Logger) *Gateway {
	g := &Gateway{
		ctx:       ctx,
		session:   s,
		directory: dir,
		submitter: submitter,
		logger:    logger,
		now:       time.Now,
	}
	s.AddHandler(g.onVoiceStateUpdate)
	s.AddHandler(g.onReady)
	return g
}

func (g *Gateway) onReady(s *discordgo.Session, r *discordgo.Ready) {
	g.logger.Info("connected to gateway",
		zap.String("user", r.User.Username),
		zap.Int("guilds", len(r.Guilds)),
	)
}

// onVoiceStateUpdate stamps the arrival time before anything else. It must
// not block: with SyncEvents it runs on the gateway read loop.
func (g *Gateway) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	receivedAt := g.now()
	g.submitter.Submit(g.ctx, receivedAt, func() (voice.Snapshot, voice.Snapshot) {
		return Transition(v, g.directory)
	})
}
