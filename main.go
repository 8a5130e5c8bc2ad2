package main

import (
	"context"
	"fmt"
	"github.com/awakari/eventsub/api/grpc/health"
	"github.com/awakari/eventsub/api/http/helix"
	"github.com/awakari/eventsub/api/http/webhook"
	"github.com/awakari/eventsub/api/ws"
	"github.com/awakari/eventsub/config"
	"github.com/awakari/eventsub/model/eventsub"
	"github.com/awakari/eventsub/service/events"
	"github.com/awakari/eventsub/service/forward"
	"github.com/awakari/eventsub/service/listener"
	"github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"
	"go.uber.org/ratelimit"
	"gopkg.in/telebot.v3"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const eventSource = "https://api.twitch.tv/helix/eventsub"
const healthUpdateInterval = time.Second
const closeTimeout = 30 * time.Second

func main() {

	// init config and logger
	slog.Info("starting...")
	cfg, err := config.NewConfigFromEnv()
	if err != nil {
		slog.Error(fmt.Sprintf("failed to load the config: %s", err))
		os.Exit(1)
	}
	opts := slog.HandlerOptions{
		Level: slog.Level(cfg.Log.Level),
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &opts))
	if slog.Level(cfg.Log.Level) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	// init the remote registry client
	clientHttp := &http.Client{
		Timeout: cfg.Api.Helix.Timeout,
	}
	tokens := helix.NewStaticTokens(cfg.Api.Helix.Token.App, cfg.Api.Helix.Token.Users)
	svcHelix := helix.NewService(clientHttp, cfg.Api.Helix.Uri, cfg.Api.Helix.ClientId, tokens)
	svcHelix = helix.NewServiceLogging(svcHelix, log)

	// init the transport
	var tr listener.Transport
	switch eventsub.Method(cfg.Api.Transport) {
	case eventsub.MethodWebhook:
		tr = webhook.NewTransport(cfg.Api.Webhook.Host, cfg.Api.Webhook.Path, cfg.Api.Webhook.Port, cfg.Api.Webhook.Secret, log)
	case eventsub.MethodWebsocket:
		cfgBackoff := cfg.Api.Websocket.Backoff
		tr = ws.NewTransport(cfg.Api.Websocket.Uri, func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = cfgBackoff.Init
			b.Multiplier = cfgBackoff.Factor
			b.MaxInterval = cfgBackoff.Max
			b.MaxElapsedTime = cfgBackoff.LimitTotal
			return b
		}, log)
	default:
		log.Error(fmt.Sprintf("unknown transport: %s", cfg.Api.Transport))
		os.Exit(1)
	}

	// init the forwarding sinks
	sinks := []forward.Sink{
		forward.NewLogSink(log),
	}
	if cfg.Api.Telegram.Token != "" {
		var bot *telebot.Bot
		bot, err = telebot.NewBot(telebot.Settings{
			Token:   cfg.Api.Telegram.Token,
			Offline: true,
		})
		if err != nil {
			log.Error(fmt.Sprintf("failed to init the telegram bot: %s", err))
			os.Exit(1)
		}
		rl := ratelimit.New(20, ratelimit.Per(time.Minute))
		sinks = append(sinks, forward.NewTelegramSink(bot, cfg.Api.Telegram.ChatId, rl, log))
	}

	// init the listener and the subscriptions
	l := listener.New(svcHelix, tr, listener.NewNotifierLogging(log), log)
	for _, broadcasterId := range cfg.Subscriptions.BroadcasterIds {
		_, err = listener.Subscribe(l, events.NewStreamOnlineKind(broadcasterId), forward.Handler[events.StreamOnline](events.TypeStreamOnline, eventSource, sinks...))
		if err == nil {
			_, err = listener.Subscribe(l, events.NewStreamOfflineKind(broadcasterId), forward.Handler[events.StreamOffline](events.TypeStreamOffline, eventSource, sinks...))
		}
		if err == nil {
			_, err = listener.Subscribe(l, events.NewChannelUpdateKind(broadcasterId), forward.Handler[events.ChannelUpdate](events.TypeChannelUpdate, eventSource, sinks...))
		}
		if err != nil {
			log.Error(fmt.Sprintf("failed to subscribe for the broadcaster %s: %s", broadcasterId, err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctxRun, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	// health
	go func() {
		errHealth := health.NewServer(l, healthUpdateInterval, log).Serve(ctxRun, cfg.Api.Health.Port)
		if errHealth != nil {
			log.Error(fmt.Sprintf("health server failed: %s", errHealth))
		}
	}()

	// run the transport
	done := make(chan error, 1)
	go func() {
		done <- l.Run(ctxRun)
	}()
	log.Info(fmt.Sprintf("started, transport: %s", tr.Method()))
	select {
	case <-ctx.Done():
		log.Info("stopping...")
	case err = <-done:
		log.Error(fmt.Sprintf("transport failed: %v", err))
	}

	// delete the remote subscriptions before the transport is gone
	ctxClose, cancelClose := context.WithTimeout(context.Background(), closeTimeout)
	defer cancelClose()
	err = l.Close(ctxClose)
	if err != nil {
		log.Warn(fmt.Sprintf("failed to close the listener gracefully: %s", err))
	}
	cancelRun()
	log.Info("stopped")
}
