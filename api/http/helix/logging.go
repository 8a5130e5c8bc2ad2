package helix

import (
	"context"
	"fmt"
	"github.com/awakari/eventsub/model/eventsub"
	"github.com/awakari/eventsub/util"
	"log/slog"
)

type serviceLogging struct {
	svc Service
	log *slog.Logger
}

func NewServiceLogging(svc Service, log *slog.Logger) Service {
	return serviceLogging{
		svc: svc,
		log: log,
	}
}

func (sl serviceLogging) Create(ctx context.Context, userId string, req eventsub.CreateRequest) (rec eventsub.Record, err error) {
	rec, err = sl.svc.Create(ctx, userId, req)
	sl.log.Log(ctx, util.LogLevel(err), fmt.Sprintf("helix.Create(%s, %s, %s, %v, %s): %s, %s, err=%s", userId, req.Type, req.Version, req.Condition, req.Transport.Method, rec.Id, rec.Status, err))
	return
}

func (sl serviceLogging) Delete(ctx context.Context, userId, id string) (err error) {
	err = sl.svc.Delete(ctx, userId, id)
	sl.log.Log(ctx, util.LogLevel(err), fmt.Sprintf("helix.Delete(%s, %s): err=%s", userId, id, err))
	return
}

func (sl serviceLogging) List(ctx context.Context, userId, cursor string) (page []eventsub.Record, next string, err error) {
	page, next, err = sl.svc.List(ctx, userId, cursor)
	sl.log.Log(ctx, util.LogLevel(err), fmt.Sprintf("helix.List(%s, %s): %d, %s, err=%s", userId, cursor, len(page), next, err))
	return
}
