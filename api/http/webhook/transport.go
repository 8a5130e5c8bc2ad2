package webhook

import (
	"context"
	"errors"
	"fmt"
	"github.com/awakari/eventsub/model/eventsub"
	"github.com/awakari/eventsub/service/listener"
	"github.com/awakari/eventsub/service/subscription"
	"github.com/gin-gonic/gin"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

type transport struct {
	host   string
	path   string
	port   uint16
	secret string
	log    *slog.Logger
}

const shutdownTimeout = 10 * time.Second

// NewTransport returns the webhook transport. The host is the public one, the callback URLs are
// https://{host}{path}/{local subscription id}.
func NewTransport(host, path string, port uint16, secret string, log *slog.Logger) listener.Transport {
	return transport{
		host:   host,
		path:   cleanPath(path),
		port:   port,
		secret: secret,
		log:    log,
	}
}

func cleanPath(path string) (p string) {
	p = strings.Trim(path, "/")
	if p != "" {
		p = "/" + p
	}
	return
}

func (t transport) Method() eventsub.Method {
	return eventsub.MethodWebhook
}

func (t transport) Options(ctx context.Context, s *subscription.Subscription) (opts eventsub.TransportOptions, err error) {
	opts = eventsub.NewWebhookTransport(t.callback(s), t.secret)
	return
}

func (t transport) CliTestCommand(s *subscription.Subscription) (cmd string, err error) {
	cmd = fmt.Sprintf("twitch event trigger %s -F %s -s %s", s.CliName(), t.callback(s), t.secret)
	return
}

func (t transport) callback(s *subscription.Subscription) string {
	return fmt.Sprintf("https://%s%s/%s", t.host, t.path, s.Id())
}

func (t transport) router(sink listener.Sink) (r *gin.Engine) {
	h := NewHandler(t.secret, sink, t.log)
	r = gin.Default()
	r.
		Group(t.path).
		POST("/:"+paramSubscriptionId, h.Handle)
	return
}

func (t transport) Run(ctx context.Context, sink listener.Sink) (err error) {
	var ln net.Listener
	ln, err = net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return
	}
	srv := &http.Server{
		Handler: t.router(sink),
	}
	t.log.Info(fmt.Sprintf("Webhook callback server listening on %s", ln.Addr()))
	errServe := make(chan error, 1)
	go func() {
		errServe <- srv.Serve(ln)
	}()
	sink.Connected(ctx)
	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = srv.Shutdown(ctxShutdown)
	case err = <-errServe:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	}
	return
}
