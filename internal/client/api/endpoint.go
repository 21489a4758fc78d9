package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"Skirmish/internal/client/flow"
	"Skirmish/internal/game/entity"
	"Skirmish/internal/game/gamedef"
	"Skirmish/internal/game/rules"
	"Skirmish/internal/session/dto"
	"Skirmish/internal/shared/transport"
	"Skirmish/internal/shared/transport/http/middleware"
	"Skirmish/modules/kit/tracex"
)

// Error 是服务端返回的业务拒绝，Code 见 transport 业务码。
type Error struct {
	Code int
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("业务码 %d", e.Code)
}

// Endpoint 是会话服务的 HTTP 客户端。
type Endpoint struct {
	base   string
	client *http.Client
}

var _ flow.Transport = (*Endpoint)(nil)

func NewEndpoint(base string, timeout time.Duration) *Endpoint {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Endpoint{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

func (e *Endpoint) Base() string {
	return e.base
}

// LoadGame 拉取静态定义，客户端启动时调用一次。
func (e *Endpoint) LoadGame(ctx context.Context) (*gamedef.Definition, error) {
	var raw json.RawMessage
	if err := e.do(ctx, http.MethodGet, "/game", nil, &raw); err != nil {
		return nil, err
	}
	return gamedef.Decode(bytes.NewReader(raw))
}

func (e *Endpoint) CreateSession(ctx context.Context, mapID entity.ID[gamedef.GameMap], teamSize int) (dto.CreateSessionResp, error) {
	var out dto.CreateSessionResp
	err := e.do(ctx, http.MethodPost, "/sessions", dto.CreateSessionReq{MapID: mapID, TeamSize: teamSize}, &out)
	return out, err
}

func (e *Endpoint) DescribeSession(ctx context.Context, sessionID string) (dto.DescribeResp, error) {
	var out dto.DescribeResp
	err := e.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID), nil, &out)
	return out, err
}

func (e *Endpoint) JoinSession(ctx context.Context, sessionID string, req dto.JoinReq) (dto.JoinResp, error) {
	var out dto.JoinResp
	err := e.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(sessionID)+"/characters", req, &out)
	return out, err
}

func (e *Endpoint) Rejoin(ctx context.Context, sessionID, token string) (dto.RejoinResp, error) {
	var out dto.RejoinResp
	err := e.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID)+"/logins/"+url.PathEscape(token), nil, &out)
	return out, err
}

func (e *Endpoint) SubmitAction(ctx context.Context, sessionID, token string, action rules.Action) error {
	return e.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(sessionID)+"/actions/"+url.PathEscape(token), action, nil)
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (e *Endpoint) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, e.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tid, ok := tracex.TraceIDFrom(ctx); ok {
		req.Header.Set(middleware.TraceHeader, tid)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("连接服务器失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &Error{Code: transport.SystemError, Msg: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("响应解析失败: %w", err)
	}
	if env.Code != transport.OK {
		return &Error{Code: env.Code, Msg: env.Msg}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = env.Data
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
