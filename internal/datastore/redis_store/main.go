package redis_store

import (
	"context"

	"spotlight/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// Operational snapshots polled by the ops dashboard. These are
// best-effort mirrors; the source of truth stays in-process or in
// postgres.

func dbKeyLastSelfTestReport() string {
	return "pricing:selftest:last"
}

func dbKeyLastSweepReport() string {
	return "boost:sweep:last"
}

func SetLastSelfTestReport(ctx context.Context, cmd redis.Cmdable, report *models.SelfTestReport) error {
	b, err := msgpack.Marshal(report)
	if err != nil {
		return err
	}

	err = cmd.Set(ctx, dbKeyLastSelfTestReport(), b, 0).Err()
	if err != nil {
		return err
	}

	return nil
}

func GetLastSelfTestReport(ctx context.Context, cmd redis.Cmdable) (*models.SelfTestReport, error) {
	var v *models.SelfTestReport
	b, err := cmd.Get(ctx, dbKeyLastSelfTestReport()).Bytes()
	if err != nil {
		return nil, err
	}

	err = msgpack.Unmarshal(b, &v)
	return v, err
}

func SetLastSweepReport(ctx context.Context, cmd redis.Cmdable, report *models.SweepReport) error {
	b, err := msgpack.Marshal(report)
	if err != nil {
		return err
	}

	err = cmd.Set(ctx, dbKeyLastSweepReport(), b, 0).Err()
	if err != nil {
		return err
	}

	return nil
}

func GetLastSweepReport(ctx context.Context, cmd redis.Cmdable) (*models.SweepReport, error) {
	var v *models.SweepReport
	b, err := cmd.Get(ctx, dbKeyLastSweepReport()).Bytes()
	if err != nil {
		return nil, err
	}

	err = msgpack.Unmarshal(b, &v)
	return v, err
}
