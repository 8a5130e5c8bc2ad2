package helix

import (
	"context"
	"fmt"
	"github.com/awakari/eventsub/model/eventsub"
	"github.com/awakari/eventsub/model/eventsub/condition"
	"sync"
	"time"
)

// ServiceMock is an in-memory registry recording every call.
// Magic values: broadcaster "create_fail" fails the create, remote id "delete_fail" fails the delete,
// user "list_fail" fails the list.
type ServiceMock struct {
	lock    sync.Mutex
	calls   []Call
	records map[string][]eventsub.Record
	count   int
}

type Call struct {
	Method string
	UserId string
	Id     string
	Req    eventsub.CreateRequest
}

const MethodCreate = "Create"
const MethodDelete = "Delete"
const MethodList = "List"

func NewServiceMock() *ServiceMock {
	return &ServiceMock{
		records: map[string][]eventsub.Record{},
	}
}

// Put makes the records listed for the given user context.
func (sm *ServiceMock) Put(userId string, recs ...eventsub.Record) {
	sm.lock.Lock()
	defer sm.lock.Unlock()
	sm.records[userId] = append(sm.records[userId], recs...)
}

func (sm *ServiceMock) Calls() (calls []Call) {
	sm.lock.Lock()
	defer sm.lock.Unlock()
	calls = append(calls, sm.calls...)
	return
}

func (sm *ServiceMock) Create(ctx context.Context, userId string, req eventsub.CreateRequest) (rec eventsub.Record, err error) {
	sm.lock.Lock()
	defer sm.lock.Unlock()
	sm.calls = append(sm.calls, Call{
		Method: MethodCreate,
		UserId: userId,
		Req:    req,
	})
	switch req.Condition[condition.KeyBroadcasterUserId] {
	case "create_fail":
		err = fmt.Errorf("%w: response status 400 invalid condition", ErrInvalid)
	case "create_conflict":
		err = fmt.Errorf("%w: response status 409", ErrConflict)
	default:
		rec = eventsub.Record{
			Id:        fmt.Sprintf("remote%d", sm.count),
			Status:    eventsub.StatusEnabled,
			Type:      req.Type,
			Version:   req.Version,
			Cost:      1,
			Condition: map[string]any{},
			CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			Transport: eventsub.Transport{
				Method:    req.Transport.Method,
				Callback:  req.Transport.Callback,
				SessionId: req.Transport.SessionId,
			},
		}
		for k, v := range req.Condition {
			rec.Condition[k] = v
		}
		if req.Transport.Method == eventsub.MethodWebhook {
			rec.Status = eventsub.StatusWebhookVerificationPending
		}
		sm.count++
		sm.records[userId] = append(sm.records[userId], rec)
	}
	return
}

func (sm *ServiceMock) Delete(ctx context.Context, userId, id string) (err error) {
	sm.lock.Lock()
	defer sm.lock.Unlock()
	sm.calls = append(sm.calls, Call{
		Method: MethodDelete,
		UserId: userId,
		Id:     id,
	})
	switch id {
	case "delete_fail":
		err = fmt.Errorf("%w: response status 500", ErrInternal)
	default:
		recs := sm.records[userId]
		for i, rec := range recs {
			if rec.Id == id {
				sm.records[userId] = append(recs[:i:i], recs[i+1:]...)
				break
			}
		}
	}
	return
}

func (sm *ServiceMock) List(ctx context.Context, userId, cursor string) (page []eventsub.Record, next string, err error) {
	sm.lock.Lock()
	defer sm.lock.Unlock()
	sm.calls = append(sm.calls, Call{
		Method: MethodList,
		UserId: userId,
	})
	switch userId {
	case "list_fail":
		err = fmt.Errorf("%w: response status 500", ErrInternal)
	default:
		page = append(page, sm.records[userId]...)
	}
	return
}
