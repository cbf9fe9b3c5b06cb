// Package quota persists the daily video-generation budget. The ledger is
// a single sqlite row per calendar day; a day with no row reads as zero, so
// the counter lazily resets at midnight without any background process.
// Reserve and reconcile run inside transactions, which makes
// increment-and-check atomic across concurrent workers.
package quota

import (
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultDailyCapSeconds keeps preview-tier accounts inside their limits.
const DefaultDailyCapSeconds = 30

// Usage is one day's consumption record.
type Usage struct {
	ID          uint   `gorm:"primaryKey"`
	Day         string `gorm:"uniqueIndex;size:10"`
	SecondsUsed int
}

// ExceededError reports a pre-flight local quota rejection.
type ExceededError struct {
	Cap  int
	Used int
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf(
		"local quota exceeded: %ds of the %ds daily limit already used; retry tomorrow or raise the cap",
		e.Used, e.Cap,
	)
}

// Ledger is the persisted daily usage counter.
type Ledger struct {
	db  *gorm.DB
	cap int
	now func() time.Time
}

// Open opens (creating if absent) the ledger database at path.
func Open(path string, capSeconds int) (*Ledger, error) {
	if capSeconds <= 0 {
		capSeconds = DefaultDailyCapSeconds
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return nil, fmt.Errorf("open quota ledger: %w", err)
	}
	if err := db.AutoMigrate(&Usage{}); err != nil {
		return nil, fmt.Errorf("migrate quota ledger: %w", err)
	}
	return &Ledger{db: db, cap: capSeconds, now: time.Now}, nil
}

func (l *Ledger) Cap() int { return l.cap }

// Close releases the underlying sqlite handle.
func (l *Ledger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (l *Ledger) day() string { return l.now().Format("2006-01-02") }

// Used returns today's consumed seconds.
func (l *Ledger) Used() (int, error) {
	var u Usage
	err := l.db.Where("day = ?", l.day()).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return u.SecondsUsed, nil
}

// TryReserve grants min(want, remaining) seconds and records them against
// today's row in one transaction. It is the only mutation entry point for
// starting a generation; a zero grant returns *ExceededError.
func (l *Ledger) TryReserve(want int) (int, error) {
	granted := 0
	err := l.db.Transaction(func(tx *gorm.DB) error {
		u, err := l.today(tx)
		if err != nil {
			return err
		}
		g := l.cap - u.SecondsUsed
		if g > want {
			g = want
		}
		if g <= 0 {
			return &ExceededError{Cap: l.cap, Used: u.SecondsUsed}
		}
		u.SecondsUsed += g
		granted = g
		return tx.Save(u).Error
	})
	if err != nil {
		return 0, err
	}
	return granted, nil
}

// Reconcile settles a reservation once the generation finished: the row is
// adjusted so it reflects the seconds actually produced rather than the
// granted estimate. produced may exceed granted by one generation round;
// that bounded overshoot is accepted.
func (l *Ledger) Reconcile(granted, produced int) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		u, err := l.today(tx)
		if err != nil {
			return err
		}
		u.SecondsUsed += produced - granted
		if u.SecondsUsed < 0 {
			u.SecondsUsed = 0
		}
		return tx.Save(u).Error
	})
}

func (l *Ledger) today(tx *gorm.DB) (*Usage, error) {
	var u Usage
	err := tx.Where("day = ?", l.day()).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Usage{Day: l.day()}, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
