package helix

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/awakari/eventsub/model/eventsub"
	"github.com/bytedance/sonic"
	"io"
	"net/http"
	"net/url"
)

// Service is the remote registry of the event subscriptions.
// An empty user id means the call is made without a user context.
type Service interface {
	Create(ctx context.Context, userId string, req eventsub.CreateRequest) (rec eventsub.Record, err error)
	Delete(ctx context.Context, userId, id string) (err error)
	List(ctx context.Context, userId, cursor string) (page []eventsub.Record, next string, err error)
}

type service struct {
	clientHttp *http.Client
	uri        string
	clientId   string
	tokens     Tokens
}

type createResponse struct {
	Data         []eventsub.Record `json:"data"`
	Total        int               `json:"total"`
	TotalCost    int               `json:"total_cost"`
	MaxTotalCost int               `json:"max_total_cost"`
}

type listResponse struct {
	Data       []eventsub.Record `json:"data"`
	Total      int               `json:"total"`
	Pagination struct {
		Cursor string `json:"cursor"`
	} `json:"pagination"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

const pathSubscriptions = "/eventsub/subscriptions"
const keyClientId = "Client-Id"

var ErrInternal = errors.New("internal failure")
var ErrInvalid = errors.New("invalid request")
var ErrNoAuth = errors.New("unauthenticated request")
var ErrForbidden = errors.New("forbidden")
var ErrNotFound = errors.New("subscription not found")
var ErrConflict = errors.New("subscription already exists")
var ErrLimitReached = errors.New("subscription limit reached")

func NewService(clientHttp *http.Client, uri, clientId string, tokens Tokens) Service {
	return service{
		clientHttp: clientHttp,
		uri:        uri,
		clientId:   clientId,
		tokens:     tokens,
	}
}

func (svc service) Create(ctx context.Context, userId string, req eventsub.CreateRequest) (rec eventsub.Record, err error) {

	var reqData []byte
	reqData, err = sonic.Marshal(req)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrInvalid, err)
	}

	var resp *http.Response
	if err == nil {
		resp, err = svc.do(ctx, http.MethodPost, svc.uri+pathSubscriptions, userId, reqData)
	}

	var respData []byte
	if err == nil {
		defer resp.Body.Close()
		respData, err = io.ReadAll(resp.Body)
		if err != nil {
			err = fmt.Errorf("%w: %s", ErrInternal, err)
		}
	}

	if err == nil {
		err = decodeStatus(resp.StatusCode, respData)
	}

	var respCreate createResponse
	if err == nil {
		err = sonic.Unmarshal(respData, &respCreate)
		if err != nil {
			err = fmt.Errorf("%w: failed to decode the create response: %s", ErrInternal, err)
		}
	}

	if err == nil {
		switch len(respCreate.Data) {
		case 0:
			err = fmt.Errorf("%w: empty create response", ErrInternal)
		default:
			rec = respCreate.Data[0]
		}
	}

	return
}

func (svc service) Delete(ctx context.Context, userId, id string) (err error) {

	var resp *http.Response
	resp, err = svc.do(ctx, http.MethodDelete, svc.uri+pathSubscriptions+"?id="+url.QueryEscape(id), userId, nil)

	var respData []byte
	if err == nil {
		defer resp.Body.Close()
		respData, _ = io.ReadAll(resp.Body)
		err = decodeStatus(resp.StatusCode, respData)
	}

	return
}

func (svc service) List(ctx context.Context, userId, cursor string) (page []eventsub.Record, next string, err error) {

	reqUrl := svc.uri + pathSubscriptions
	if cursor != "" {
		reqUrl += "?after=" + url.QueryEscape(cursor)
	}

	var resp *http.Response
	resp, err = svc.do(ctx, http.MethodGet, reqUrl, userId, nil)

	var respData []byte
	if err == nil {
		defer resp.Body.Close()
		respData, err = io.ReadAll(resp.Body)
		if err != nil {
			err = fmt.Errorf("%w: %s", ErrInternal, err)
		}
	}

	if err == nil {
		err = decodeStatus(resp.StatusCode, respData)
	}

	var respList listResponse
	if err == nil {
		err = sonic.Unmarshal(respData, &respList)
		if err != nil {
			err = fmt.Errorf("%w: failed to decode the list response: %s", ErrInternal, err)
		}
	}

	if err == nil {
		page = respList.Data
		next = respList.Pagination.Cursor
	}

	return
}

func (svc service) do(ctx context.Context, method, reqUrl, userId string, body []byte) (resp *http.Response, err error) {

	var token string
	token, err = svc.tokens.Token(ctx, userId)

	var req *http.Request
	if err == nil {
		var reqBody io.Reader
		if body != nil {
			reqBody = bytes.NewReader(body)
		}
		req, err = http.NewRequestWithContext(ctx, method, reqUrl, reqBody)
		if err != nil {
			err = fmt.Errorf("%w: %s", ErrInvalid, err)
		}
	}

	if err == nil {
		req.Header.Add("Accept", "application/json")
		req.Header.Add("Authorization", "Bearer "+token)
		req.Header.Add(keyClientId, svc.clientId)
		if body != nil {
			req.Header.Add("Content-Type", "application/json")
		}
		resp, err = svc.clientHttp.Do(req)
		switch {
		case err == nil:
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		default:
			err = fmt.Errorf("%w: %s", ErrInternal, err)
		}
	}

	return
}

func decodeStatus(code int, respData []byte) (err error) {
	if code >= 200 && code < 300 {
		return
	}
	var respErr errorResponse
	_ = sonic.Unmarshal(respData, &respErr)
	switch code {
	case http.StatusBadRequest:
		err = ErrInvalid
	case http.StatusUnauthorized:
		err = ErrNoAuth
	case http.StatusForbidden:
		err = ErrForbidden
	case http.StatusNotFound:
		err = ErrNotFound
	case http.StatusConflict:
		err = ErrConflict
	case http.StatusTooManyRequests:
		err = ErrLimitReached
	default:
		err = ErrInternal
	}
	err = fmt.Errorf("%w: response status %d %s", err, code, respErr.Message)
	return
}

// ListAll reads every page of the registry for the given user context.
func ListAll(ctx context.Context, svc Service, userId string) (recs []eventsub.Record, err error) {
	var page []eventsub.Record
	var cursor string
	for {
		page, cursor, err = svc.List(ctx, userId, cursor)
		if err != nil {
			break
		}
		recs = append(recs, page...)
		if cursor == "" {
			break
		}
	}
	return
}
