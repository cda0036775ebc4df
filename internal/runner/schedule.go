package runner

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler drives RunCycle once a day at a configured wall-clock time in a
// configured timezone, grounded on the pack's cron.Runner wrapper: a thin
// layer over robfig/cron that owns the underlying *cron.Cron and exposes a
// job-func based API instead of cron's raw string spec everywhere.
type Scheduler struct {
	cron   *cron.Cron
	loc    *time.Location
	logger *zap.Logger
}

// NewScheduler constructs a Scheduler whose cron entries fire in timezone's
// wall-clock time.
func NewScheduler(logger *zap.Logger, timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		loc:    loc,
		logger: logger,
	}, nil
}

// ScheduleDaily registers job to run once a day at dailyTime ("HH:MM", 24h).
func (s *Scheduler) ScheduleDaily(dailyTime string, job func(now time.Time)) error {
	hour, minute, err := parseHHMM(dailyTime)
	if err != nil {
		return err
	}

	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	_, err = s.cron.AddFunc(spec, func() {
		job(time.Now().In(s.loc))
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}

	s.logger.Info("cycle-scheduled", zap.String("daily-time", dailyTime), zap.String("timezone", s.loc.String()))
	return nil
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for any in-flight job to finish, then stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func parseHHMM(v string) (hour, minute int, err error) {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid HH:MM time %q", v)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", v)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", v)
	}
	return hour, minute, nil
}
