package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

const jobTimeout = time.Minute

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	if loc == nil {
		loc = time.Local
	}
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@every 5m", a.SchedClearExpiredApprovals)
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@hourly", a.SchedClearStaleOtps)
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", a.SchedClearBroadcastLogs)
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// SchedClearExpiredApprovals removes approval codes past their expiry
func (a *Application) SchedClearExpiredApprovals() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	n, err := a.verification.PurgeExpiredApprovals(ctx)
	if err != nil {
		zap.L().Error("verification: purge expired approvals failed", zap.Error(err))
		return
	}
	if n > 0 {
		zap.L().Info("verification: purged expired approvals", zap.Int64("count", n))
	}
}

// SchedClearStaleOtps removes OTP rows older than the retention window
func (a *Application) SchedClearStaleOtps() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	retention := a.appConfig.Verification.OtpRetention
	if retention <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	n, err := a.verification.PurgeStaleOTPs(ctx, retention)
	if err != nil {
		zap.L().Error("verification: purge stale otps failed", zap.Error(err))
		return
	}
	if n > 0 {
		zap.L().Info("verification: purged stale otps", zap.Int64("count", n))
	}
}

// SchedClearBroadcastLogs enforces broadcast.log_retention_days
func (a *Application) SchedClearBroadcastLogs() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	n, err := a.broadcaster.PurgeLogs(ctx, a.appConfig.Broadcast.LogRetentionDays)
	if err != nil {
		zap.L().Error("broadcast: purge logs failed", zap.Error(err))
		return
	}
	if n > 0 {
		zap.L().Info("broadcast: purged old logs", zap.Int64("count", n))
	}
}
