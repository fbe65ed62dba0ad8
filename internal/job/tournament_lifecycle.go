package job

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
)

// Starter 把到点的赛事切到 started，由 TournamentService 实现
type Starter interface {
	StartDue(ctx context.Context, now time.Time, limit int) (int, error)
}

type TournamentLifecycleJob struct {
	starter   Starter
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewTournamentLifecycleJob(starter Starter, interval time.Duration) *TournamentLifecycleJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &TournamentLifecycleJob{
		starter:   starter,
		interval:  interval,
		batchSize: 100,
		now:       time.Now,
	}
}

// Start 注册定时任务，ctx 取消后停止调度
func (j *TournamentLifecycleJob) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("创建调度器失败: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(func() { j.runOnce(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("注册赛事开赛任务失败: %w", err)
	}

	sched.Start()
	log.WithField("interval", j.interval.String()).Info("[TournamentLifecycleJob] 赛事开赛任务启动")

	go func() {
		<-ctx.Done()
		if err := sched.Shutdown(); err != nil {
			log.WithError(err).Warn("[TournamentLifecycleJob] 调度器关闭异常")
		}
		log.Info("[TournamentLifecycleJob] 收到停止信号，任务退出")
	}()
	return nil
}

func (j *TournamentLifecycleJob) runOnce(ctx context.Context) int {
	started, err := j.starter.StartDue(ctx, j.now().UTC(), j.batchSize)
	if err != nil {
		log.WithError(err).Error("[TournamentLifecycleJob] 查询待开赛赛事失败")
		return 0
	}
	if started > 0 {
		log.WithField("count", started).Info("[TournamentLifecycleJob] 赛事已自动开赛")
	}
	return started
}
