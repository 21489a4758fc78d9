package dto

import (
	"Skirmish/internal/game/entity"
	"Skirmish/internal/game/gamedef"
	"Skirmish/internal/game/rules"
	"Skirmish/internal/session/domain"
)

type CreateSessionReq struct {
	MapID    entity.ID[gamedef.GameMap] `json:"map_id"`
	TeamSize int                        `json:"team_size"`
}

type CreateSessionResp struct {
	SessionID string                     `json:"session_id"`
	MapID     entity.ID[gamedef.GameMap] `json:"map_id"`
	TeamSize  int                        `json:"team_size"`
}

// DescribeResp 的 phase 取值：not_found / assembling / running。
type DescribeResp struct {
	Phase     string                     `json:"phase"`
	SessionID string                     `json:"session_id"`
	MapID     entity.ID[gamedef.GameMap] `json:"map_id"`
	TeamSize  int                        `json:"team_size"`
	Joined    []domain.Joined            `json:"joined,omitempty"`
	Snapshot  *rules.Snapshot            `json:"snapshot,omitempty"`
}

type JoinReq struct {
	Name    string                   `json:"name" binding:"max=32"`
	ClassID entity.ID[gamedef.Class] `json:"class_id"`
	TeamID  entity.ID[gamedef.Team]  `json:"team_id"`
	CellID  entity.ID[gamedef.Cell]  `json:"cell_id"`
}

type JoinResp struct {
	LoginToken  string                     `json:"login_token"`
	CharacterID entity.ID[rules.Character] `json:"character_id"`
	Started     bool                       `json:"started"`
}

type RejoinResp struct {
	CharacterID entity.ID[rules.Character] `json:"character_id"`
	Phase       string                     `json:"phase"`
}

// ActionReq 原样转交规则引擎。
type ActionReq = rules.Action

// PushEvent 是推送帧 msg 字段的内容。
type PushEvent struct {
	SessionID string          `json:"session_id"`
	Snapshot  *rules.Snapshot `json:"snapshot,omitempty"`
}
