package journal

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"Skirmish/internal/session/app"
	"Skirmish/internal/shared/infrastructure/db"
	mongox "Skirmish/internal/shared/infrastructure/mongo"
	"Skirmish/internal/shared/serverconfig"
	"Skirmish/internal/shared/utils"
	"Skirmish/modules/kit/logx"
)

const (
	DriverNone    = "none"
	DriverMemory  = "memory"
	DriverMySQL   = "mysql"
	DriverMongoDB = "mongodb"
)

// Sink 是注册表看到的审计出口，进程退出前需要 Close。
type Sink interface {
	app.Journal
	Close(ctx context.Context) error
}

type discard struct{}

func (discard) Append(context.Context, app.Event) {}
func (discard) Close(context.Context) error       { return nil }

// Open 按 journal.driver 选择后端。
func Open(ctx context.Context, cfg serverconfig.Config, l *zap.Logger) (Sink, error) {
	if l == nil {
		l = zap.NewNop()
	}
	opts := []WriterOption{
		WithFlushEvery(cfg.Journal.FlushInterval),
		WithBatchSize(cfg.Journal.BatchSize),
		WithSaveTimeout(cfg.Journal.SaveTimeout),
		WithLogger(logx.NewZapLogger(l.Named("journal"))),
	}
	ids := func() (int64, error) { return utils.NextSnowflakeID() }

	switch cfg.Journal.Driver {
	case "", DriverNone:
		return discard{}, nil
	case DriverMemory:
		return NewWriter(NewMemoryRepository(), ids, opts...), nil
	case DriverMySQL:
		gdb, err := db.Open(cfg.MySQL)
		if err != nil {
			return nil, ErrStoreUnavailable.WithData("driver", DriverMySQL).WithCause(err)
		}
		repo := NewGormRepository(gdb)
		if err := repo.Migrate(); err != nil {
			return nil, err
		}
		closer := func(context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
		return NewWriter(repo, ids, append(opts, WithCloser(closer))...), nil
	case DriverMongoDB:
		client, err := mongox.Open(ctx, cfg.MongoDB, l)
		if err != nil {
			return nil, ErrStoreUnavailable.WithData("driver", DriverMongoDB).WithCause(err)
		}
		repo := NewMongoRepository(client.Database(cfg.MongoDB.Database))
		return NewWriter(repo, ids, append(opts, WithCloser(client.Disconnect))...), nil
	default:
		return nil, fmt.Errorf("unknown journal driver %q", cfg.Journal.Driver)
	}
}
