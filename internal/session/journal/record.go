package journal

import (
	"context"
	"encoding/json"
	"time"

	"Skirmish/internal/session/app"
)

// Record 审计流水，一条事件一行。快照以 JSON 原文保存，只用于排查，不用于恢复。
type Record struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement:false;comment:流水号" bson:"_id" json:"id"`
	SessionID   string    `gorm:"column:session_id;type:char(10);index:idx_session_time;not null;comment:会话id" bson:"session_id" json:"session_id"`
	Kind        string    `gorm:"column:kind;type:varchar(32);not null;comment:事件类型" bson:"kind" json:"kind"`
	CharacterID *uint64   `gorm:"column:character_id;comment:角色id" bson:"character_id,omitempty" json:"character_id,omitempty"`
	Turn        int       `gorm:"column:turn;not null;default:0;comment:回合" bson:"turn" json:"turn"`
	Detail      string    `gorm:"column:detail;type:varchar(255);comment:补充说明" bson:"detail,omitempty" json:"detail,omitempty"`
	Snapshot    string    `gorm:"column:snapshot;type:text;comment:对局快照" bson:"snapshot,omitempty" json:"snapshot,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at;index:idx_session_time;not null;comment:发生时间" bson:"created_at" json:"created_at"`
}

func (Record) TableName() string {
	return "session_journal"
}

// Repository 批量落库。实现需要幂等：重试时同一 ID 可能被再次提交。
type Repository interface {
	SaveBatch(ctx context.Context, records []Record) error
}

func FromEvent(id int64, ev app.Event) (Record, error) {
	r := Record{
		ID:        id,
		SessionID: string(ev.Session),
		Kind:      string(ev.Kind),
		Detail:    truncate(ev.Detail, 255),
		CreatedAt: ev.At,
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if ev.Character != nil {
		raw := ev.Character.Raw()
		r.CharacterID = &raw
	}
	if ev.Snapshot != nil {
		r.Turn = ev.Snapshot.Turn
		raw, err := json.Marshal(ev.Snapshot)
		if err != nil {
			return Record{}, err
		}
		r.Snapshot = string(raw)
	}
	return r, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
