package service

import (
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

// Poller runs a job at a fixed interval. A tick that arrives while the
// previous run is still going is skipped.
type Poller struct {
	interval  time.Duration
	job       func()
	scheduler *gocron.Scheduler
	log       *logrus.Entry
}

func NewPoller(interval time.Duration, job func(), logger *logrus.Logger) *Poller {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Poller{
		interval: interval,
		job:      job,
		log:      logger.WithField("component", "poller"),
	}
}

// Start schedules the job; the first run happens one interval from now.
// With a zero interval Start does nothing.
func (p *Poller) Start() error {
	if p.interval <= 0 || p.scheduler != nil {
		return nil
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if _, err := s.Every(p.interval).WaitForSchedule().Do(p.job); err != nil {
		return err
	}
	s.StartAsync()

	p.scheduler = s
	p.log.WithField("interval", p.interval).Debug("poller started")
	return nil
}

func (p *Poller) Stop() {
	if p.scheduler == nil {
		return
	}
	p.scheduler.Stop()
	p.scheduler = nil
}
