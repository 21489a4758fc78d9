package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"Skirmish/internal/game/entity"
	"Skirmish/internal/game/gamedef"
	"Skirmish/internal/game/rules"
	"Skirmish/internal/session/domain"
	"Skirmish/internal/shared/utils"
	"Skirmish/modules/kit/logx"
)

// IDLength 会话 id 与登录令牌的长度。
const IDLength = 10

// 连续冲突这么多次说明随机源有问题。
const maxMintAttempts = 64

// SessionID 与 LoginToken 同为 10 位字母数字串，但命名空间互斥。
type SessionID string

type Phase int

const (
	PhaseNotFound Phase = iota
	PhaseAssembling
	PhaseRunning
)

func (p Phase) String() string {
	switch p {
	case PhaseAssembling:
		return "assembling"
	case PhaseRunning:
		return "running"
	default:
		return "not_found"
	}
}

// sessionState 是封闭的阶段变体：同一个 id 在任意时刻只能是其中一种。
type sessionState interface {
	phase() Phase
}

type assemblingSession struct {
	assembly *domain.Assembly
}

func (*assemblingSession) phase() Phase { return PhaseAssembling }

type runningSession struct {
	match    *domain.Match
	mapID    entity.ID[gamedef.GameMap]
	teamSize int
}

func (*runningSession) phase() Phase { return PhaseRunning }

type Created struct {
	ID       SessionID
	MapID    entity.ID[gamedef.GameMap]
	TeamSize int
}

type Description struct {
	Phase    Phase
	ID       SessionID
	MapID    entity.ID[gamedef.GameMap]
	TeamSize int
	Joined   []domain.Joined
	Snapshot *rules.Snapshot
}

type Joined struct {
	Token     domain.LoginToken
	Character entity.ID[rules.Character]
	// Started 只有填满最后一个名额的那次加入为 true。
	Started bool
}

type Membership struct {
	Character entity.ID[rules.Character]
	Phase     Phase
}

// Registry 是服务端唯一的共享可变状态：一把读写锁保护整个会话表，
// 只在内存里的检查-修改序列期间持有，日志与推送都在解锁之后。
type Registry struct {
	mu       sync.RWMutex
	sessions map[SessionID]sessionState
	// tokens 是全局令牌索引，保证令牌进程内唯一且不与会话 id 冲突。
	tokens map[domain.LoginToken]SessionID

	def         *gamedef.Definition
	engines     domain.EngineFactory
	randSeq     RandSeq
	maxTeamSize int
	journal     Journal
	notifier    Notifier
	log         logx.Logger
}

type Option func(*Registry)

func WithRandSeq(f RandSeq) Option {
	return func(r *Registry) { r.randSeq = f }
}

func WithEngineFactory(f domain.EngineFactory) Option {
	return func(r *Registry) { r.engines = f }
}

func WithMaxTeamSize(n int) Option {
	return func(r *Registry) { r.maxTeamSize = n }
}

func WithJournal(j Journal) Option {
	return func(r *Registry) { r.journal = j }
}

func WithNotifier(n Notifier) Option {
	return func(r *Registry) { r.notifier = n }
}

func WithLogger(l logx.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// NewRegistry 缺省使用内置规则引擎与 crypto/rand 随机源。
func NewRegistry(def *gamedef.Definition, opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[SessionID]sessionState),
		tokens:   make(map[domain.LoginToken]SessionID),
		def:      def,
		randSeq:  utils.RandSeq,
		journal:  nopJournal{},
		notifier: nopNotifier{},
		log:      logx.Nop(),
	}
	r.engines = func(roster domain.Roster) (domain.Engine, error) {
		return rules.NewEngine(def, roster.MapID(), roster.Characters())
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateSession 校验地图与人数后插入一个组队中的会话。
func (r *Registry) CreateSession(ctx context.Context, mapID entity.ID[gamedef.GameMap], teamSize int) (Created, error) {
	if r.maxTeamSize > 0 && teamSize > r.maxTeamSize {
		return Created{}, ErrInvalidTeamSize.WithData("team_size", teamSize).WithData("max", r.maxTeamSize)
	}
	assembly, err := domain.NewAssembly(r.def, mapID, teamSize, r.mintToken)
	if err != nil {
		return Created{}, err
	}

	r.mu.Lock()
	id, err := r.mintSessionID()
	if err != nil {
		r.mu.Unlock()
		return Created{}, err
	}
	r.sessions[id] = &assemblingSession{assembly: assembly}
	r.mu.Unlock()

	r.log.WithContext(ctx).Info("session created",
		zap.String("session_id", string(id)),
		zap.Uint64("map_id", mapID.Raw()),
		zap.Int("team_size", teamSize),
	)
	r.emit(ctx, Event{Kind: EventCreated, Session: id}, false)
	return Created{ID: id, MapID: mapID, TeamSize: teamSize}, nil
}

// Describe 只在拷贝快照期间持有读锁。
func (r *Registry) Describe(_ context.Context, id SessionID) Description {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch s := r.sessions[id].(type) {
	case *assemblingSession:
		return Description{
			Phase:    PhaseAssembling,
			ID:       id,
			MapID:    s.assembly.MapID(),
			TeamSize: s.assembly.TeamSize(),
			Joined:   s.assembly.Joined(),
		}
	case *runningSession:
		snap := s.match.Snapshot()
		return Description{
			Phase:    PhaseRunning,
			ID:       id,
			MapID:    s.mapID,
			TeamSize: s.teamSize,
			Snapshot: &snap,
		}
	default:
		return Description{Phase: PhaseNotFound, ID: id}
	}
}

// Join 在写锁内完成加入；填满最后一个名额时原地把会话替换为对局中。
func (r *Registry) Join(ctx context.Context, id SessionID, req domain.JoinRequest) (Joined, error) {
	r.mu.Lock()
	st, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return Joined{}, ErrNoSuchSession.WithData("session_id", string(id))
	}
	s, ok := st.(*assemblingSession)
	if !ok {
		r.mu.Unlock()
		return Joined{}, ErrAlreadyRunning.WithData("session_id", string(id))
	}

	token, cid, err := s.assembly.Add(req)
	if err != nil {
		r.mu.Unlock()
		return Joined{}, err
	}
	r.tokens[token] = id

	out := Joined{Token: token, Character: cid}
	var snapshot *rules.Snapshot
	if s.assembly.CanBuild() {
		roster := s.assembly.Build()
		engine, err := r.engines(roster)
		if err != nil {
			// 撤回这次加入，会话仍停在组队阶段，名额可被重新占用
			s.assembly.Undo(token)
			delete(r.tokens, token)
			r.mu.Unlock()
			return Joined{}, Wrap(CodeInternalServer, "规则引擎构造失败", err).
				WithReason(ReasonEngineBuildFail).
				WithData("session_id", string(id))
		}
		match := domain.NewMatch(roster, engine)
		r.sessions[id] = &runningSession{match: match, mapID: roster.MapID(), teamSize: s.assembly.TeamSize()}
		snap := match.Snapshot()
		snapshot = &snap
		out.Started = true
	}
	r.mu.Unlock()

	r.log.WithContext(ctx).Info("session joined",
		zap.String("session_id", string(id)),
		zap.Uint64("character_id", cid.Raw()),
		zap.Bool("started", out.Started),
	)
	r.emit(ctx, Event{Kind: EventJoined, Session: id, Character: &cid, Detail: req.Name}, false)
	if out.Started {
		r.emit(ctx, Event{Kind: EventStarted, Session: id, Snapshot: snapshot}, true)
	}
	return out, nil
}

// SubmitAction 鉴权后把动作交给引擎，写锁覆盖“读回合持有者-执行”整个序列。
func (r *Registry) SubmitAction(ctx context.Context, id SessionID, token domain.LoginToken, action rules.Action) error {
	r.mu.Lock()
	st, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return ErrNoSuchSession.WithData("session_id", string(id))
	}
	s, ok := st.(*runningSession)
	if !ok {
		r.mu.Unlock()
		return ErrStillAssembling.WithData("session_id", string(id))
	}
	cid, ok := s.match.Roster().Lookup(token)
	if !ok {
		r.mu.Unlock()
		return ErrUnknownLogin.WithData("session_id", string(id))
	}
	err := s.match.Submit(cid, action)
	var snapshot rules.Snapshot
	if err == nil {
		snapshot = s.match.Snapshot()
	}
	r.mu.Unlock()

	if err != nil {
		r.emit(ctx, Event{Kind: EventActionRejected, Session: id, Character: &cid, Detail: err.Error()}, false)
		return err
	}
	r.emit(ctx, Event{Kind: EventActionApplied, Session: id, Character: &cid, Snapshot: &snapshot, Detail: snapshot.LastAction}, true)
	return nil
}

// Rejoin 用令牌找回角色，组队中与对局中都可用。
func (r *Registry) Rejoin(_ context.Context, id SessionID, token domain.LoginToken) (Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch s := r.sessions[id].(type) {
	case *assemblingSession:
		if cid, ok := s.assembly.Lookup(token); ok {
			return Membership{Character: cid, Phase: PhaseAssembling}, nil
		}
	case *runningSession:
		if cid, ok := s.match.Roster().Lookup(token); ok {
			return Membership{Character: cid, Phase: PhaseRunning}, nil
		}
	default:
		return Membership{}, ErrNoSuchSession.WithData("session_id", string(id))
	}
	return Membership{}, ErrUnknownLogin.WithData("session_id", string(id))
}

// Len 返回当前会话数。
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Definition 返回注册表使用的静态定义。
func (r *Registry) Definition() *gamedef.Definition {
	return r.def
}

// mintSessionID 调用方持有写锁。
func (r *Registry) mintSessionID() (SessionID, error) {
	for i := 0; i < maxMintAttempts; i++ {
		id := r.randSeq(IDLength)
		if r.taken(id) {
			continue
		}
		return SessionID(id), nil
	}
	return "", Wrap(CodeInternalServer, "会话 id 生成失败", nil).WithReason(ReasonIDSpaceExhausted)
}

// mintToken 作为 assembly 的令牌源，只在 Join 的写锁内被调用。
func (r *Registry) mintToken() (domain.LoginToken, error) {
	for i := 0; i < maxMintAttempts; i++ {
		tok := r.randSeq(IDLength)
		if r.taken(tok) {
			continue
		}
		return domain.LoginToken(tok), nil
	}
	return "", Wrap(CodeInternalServer, "登录令牌生成失败", nil).WithReason(ReasonIDSpaceExhausted)
}

func (r *Registry) taken(s string) bool {
	if _, ok := r.sessions[SessionID(s)]; ok {
		return true
	}
	_, ok := r.tokens[domain.LoginToken(s)]
	return ok
}

func (r *Registry) emit(ctx context.Context, ev Event, push bool) {
	ev.At = time.Now()
	r.journal.Append(ctx, ev)
	if push {
		r.notifier.Publish(ev.Session, ev)
	}
}
