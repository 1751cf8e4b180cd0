package store

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Kalpa111334/Hr-Management/internal/attendance"
	"github.com/Kalpa111334/Hr-Management/internal/models"
)

// AttendanceStore is the gorm-backed implementation of
// attendance.Store.
type AttendanceStore struct {
	DbConn *gorm.DB
	Debug  bool
}

func (s *AttendanceStore) conn() *gorm.DB {
	if s.Debug {
		return s.DbConn.Debug()
	}
	return s.DbConn
}

func (s *AttendanceStore) Create(rec *models.AttendanceRecord) error {
	ret := s.conn().Create(rec)
	return ret.Error
}

func (s *AttendanceStore) Update(id string, patch map[string]interface{}) error {
	ret := s.conn().Model(&models.AttendanceRecord{}).Where("id = ?", id).Updates(patch)
	if ret.Error != nil {
		return ret.Error
	}
	if ret.RowsAffected == 0 {
		return fmt.Errorf("attendance record %s not found", id)
	}

	return nil
}

func (s *AttendanceStore) FindMany(filter attendance.Filter) ([]models.AttendanceRecord, error) {
	q := s.conn().Order("created_at desc")
	if filter.UserId != "" {
		q = q.Where("user_id = ?", filter.UserId)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	recs := make([]models.AttendanceRecord, 0)
	ret := q.Find(&recs)
	if ret.Error != nil {
		return nil, ret.Error
	}

	return recs, nil
}

func (s *AttendanceStore) FindById(id string) (*models.AttendanceRecord, error) {
	rec := &models.AttendanceRecord{}
	ret := s.conn().First(rec, "id = ?", id)
	if ret.Error != nil {
		return nil, ret.Error
	}

	return rec, nil
}

// LocationStore reads the office-location directory.
type LocationStore struct {
	DbConn *gorm.DB
	Debug  bool
}

func (s *LocationStore) conn() *gorm.DB {
	if s.Debug {
		return s.DbConn.Debug()
	}
	return s.DbConn
}

func (s *LocationStore) FindAll() ([]models.OfficeLocation, error) {
	locs := make([]models.OfficeLocation, 0)
	ret := s.conn().Find(&locs)
	if ret.Error != nil {
		return nil, ret.Error
	}

	return locs, nil
}

func (s *LocationStore) FindById(id string) (*models.OfficeLocation, error) {
	loc := &models.OfficeLocation{}
	ret := s.conn().First(loc, "id = ?", id)
	if ret.Error != nil {
		return nil, ret.Error
	}

	return loc, nil
}

// PreferenceStore is the gorm-backed implementation of
// attendance.PreferenceStore.
type PreferenceStore struct {
	DbConn *gorm.DB
	Debug  bool
}

func (s *PreferenceStore) conn() *gorm.DB {
	if s.Debug {
		return s.DbConn.Debug()
	}
	return s.DbConn
}

func (s *PreferenceStore) Update(userId string, autoAttendanceEnabled bool) error {
	pref := &models.UserPreference{
		UserId:                userId,
		AutoAttendanceEnabled: autoAttendanceEnabled,
	}

	ret := s.conn().Save(pref)
	return ret.Error
}

func (s *PreferenceStore) Find(userId string) (*models.UserPreference, error) {
	pref := &models.UserPreference{}
	ret := s.conn().First(pref, "user_id = ?", userId)
	if ret.Error != nil {
		return nil, ret.Error
	}

	return pref, nil
}

// SnapshotStore upserts the single tracker snapshot row the API tier
// reads.
type SnapshotStore struct {
	DbConn *gorm.DB
	Debug  bool
}

func (s *SnapshotStore) conn() *gorm.DB {
	if s.Debug {
		return s.DbConn.Debug()
	}
	return s.DbConn
}

func (s *SnapshotStore) Save(snap *models.TrackerSnapshot) error {
	snap.Id = 1
	ret := s.conn().Save(snap)
	return ret.Error
}

func (s *SnapshotStore) Load() (*models.TrackerSnapshot, error) {
	snap := &models.TrackerSnapshot{}
	ret := s.conn().First(snap, "id = ?", 1)
	if ret.Error != nil {
		return nil, ret.Error
	}

	return snap, nil
}
