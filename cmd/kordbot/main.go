package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ZeroTwo-Bot/kord/core"
	"github.com/ZeroTwo-Bot/kord/internal/config"
)

type app struct {
	ctx    context.Context
	cancel context.CancelFunc

	logConf zap.Config
	logger  *zap.Logger

	config *config.Config

	kord *core.Kord
}

func newApp(ctx context.Context, lcf zap.Config, log *zap.Logger) (*app, error) {
	ctx, cancel := context.WithCancel(ctx)
	a := &app{ctx: ctx, cancel: cancel, logConf: lcf, logger: log}
	var err error

	log.Debug("Loading configuration.")
	a.config, err = config.Read()
	if err != nil {
		return nil, fmt.Errorf("couldn't load configuration: %w", err)
	}

	log.Debug("Successfully loaded configuration (also switching log level.)")
	lcf.Level.SetLevel(a.config.Logging.Level)

	log.Debug("Initializing Kord struct.")
	a.kord, err = core.New(log, core.Config{
		Token:   a.config.Discord.Token,
		Shards:  a.config.Discord.Shards,
		Intents: a.config.Discord.Intents,
		// No rest client is wired up here, so reads stay cache-only.
		Strategy: core.CacheOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize Kord struct: %w", err)
	}

	return a, nil
}

func (a *app) Run() error {
	a.logger.Debug("Connecting to Discord API gateway.")
	if err := a.kord.Login(a.ctx); err != nil {
		return fmt.Errorf("couldn't connect to Discord: %s", err)
	}
	defer func() {
		a.logger.Debug("Closing connection with Discord API gateway.")
		if err := a.kord.Shutdown(); err != nil {
			a.logger.Sugar().Errorf("Couldn't close Kord: %s.", err)
		}
		a.logger.Debug("Closed connection with Discord API gateway.")
	}()

	go a.watchEvents()

	a.logger.Info("Launch complete. Send SIGINT to gracefully terminate.")
	<-a.ctx.Done()
	a.logger.Info("SIGINT received, terminating.")

	return a.ctx.Err()
}

func (a *app) watchEvents() {
	for event := range a.kord.Events() {
		switch e := event.(type) {
		case *core.ReadyEvent:
			a.logger.Sugar().Infof("Logged in Discord API as %s on shard %d.", e.Self.Data.Username, e.ShardIndex())
		case *core.GuildCreateEvent:
			a.logger.Sugar().Infof("Guild %s became available on shard %d.", e.Guild.Data.Name, e.ShardIndex())
		case *core.MemberJoinEvent:
			a.logger.Sugar().Infof("User %s joined guild %s.", e.Member.UserID(), e.Member.GuildID())
		}
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancel()

	lcf := zap.NewDevelopmentConfig() // to later switch level without reallocation
	lcf.Level.SetLevel(zapcore.DebugLevel)
	lcf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	lcf.DisableCaller = true
	log, _ := lcf.Build()

	log.Info("Initializing application.")
	a, err := newApp(ctx, lcf, log)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Sugar().Fatalf("Couldn't initialize application: %s.", err)
		}

		return
	}

	log.Debug("Initialization tasks complete, continuing with launch.")
	if err := a.Run(); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Sugar().Fatalf("Application crashed: %s.", err)
		}
	}
}
