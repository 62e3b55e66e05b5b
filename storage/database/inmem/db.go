// Package inmemdb provides map-backed repositories for tests.
package inmemdb

import (
	"sync"

	"github.com/trezcool/matibabu/core/clinical"
	"github.com/trezcool/matibabu/core/cohort"
	"github.com/trezcool/matibabu/core/lab"
	"github.com/trezcool/matibabu/core/notification"
	"github.com/trezcool/matibabu/core/report"
	"github.com/trezcool/matibabu/core/schedule"
	"github.com/trezcool/matibabu/core/sysconfig"
	"github.com/trezcool/matibabu/core/user"
)

type DB struct {
	mutex sync.RWMutex

	users map[string]*user.User

	cohorts  map[string]*cohort.Cohort
	students map[string]*cohort.Student

	labDays     map[string]*lab.LabDay
	stations    map[string]*lab.Station
	scenarios   map[string]*lab.Scenario
	assessments map[string]*lab.Assessment

	shifts         map[string]*schedule.Shift
	signups        map[string]*schedule.Signup
	trades         map[string]*schedule.TradeRequest
	availabilities map[string]*schedule.Availability

	clinicalEntries map[string]*clinical.Entry

	notifications map[string]*notification.Notification
	alerts        map[string]*notification.SystemAlert
	announcements map[string]*notification.Announcement

	reportTemplates map[string]*report.Template

	settings map[string]*sysconfig.Setting
}

func NewDB() *DB {
	db := &DB{}
	db.Reset()
	return db
}

// Reset drops all stored records; existing repositories remain valid.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.users = make(map[string]*user.User)
	db.cohorts = make(map[string]*cohort.Cohort)
	db.students = make(map[string]*cohort.Student)
	db.labDays = make(map[string]*lab.LabDay)
	db.stations = make(map[string]*lab.Station)
	db.scenarios = make(map[string]*lab.Scenario)
	db.assessments = make(map[string]*lab.Assessment)
	db.shifts = make(map[string]*schedule.Shift)
	db.signups = make(map[string]*schedule.Signup)
	db.trades = make(map[string]*schedule.TradeRequest)
	db.availabilities = make(map[string]*schedule.Availability)
	db.clinicalEntries = make(map[string]*clinical.Entry)
	db.notifications = make(map[string]*notification.Notification)
	db.alerts = make(map[string]*notification.SystemAlert)
	db.announcements = make(map[string]*notification.Announcement)
	db.reportTemplates = make(map[string]*report.Template)
	db.settings = make(map[string]*sysconfig.Setting)
}
