package attendapiserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"gorm.io/gorm"

	"github.com/Kalpa111334/Hr-Management/internal/attendance"
	"github.com/Kalpa111334/Hr-Management/internal/kvstore"
	"github.com/Kalpa111334/Hr-Management/internal/store"
)

type AttendApiServer struct {
	cfg    Config
	dbConn *gorm.DB

	attendanceStore *store.AttendanceStore
	locationStore   *store.LocationStore
	prefStore       *store.PreferenceStore
	snapshotStore   *store.SnapshotStore
	emergency       *attendance.EmergencyManager
}

/* Main */
func New(cfg Config) (*AttendApiServer, error) {
	var err error

	// Base Initialization
	s := &AttendApiServer{
		cfg: cfg,
	}

	// DB Conn Initialization
	s.dbConn, err = store.Open(cfg.Db)
	if err != nil {
		return nil, err
	}

	s.attendanceStore = &store.AttendanceStore{DbConn: s.dbConn, Debug: cfg.Db.Debug}
	s.locationStore = &store.LocationStore{DbConn: s.dbConn, Debug: cfg.Db.Debug}
	s.prefStore = &store.PreferenceStore{DbConn: s.dbConn, Debug: cfg.Db.Debug}
	s.snapshotStore = &store.SnapshotStore{DbConn: s.dbConn, Debug: cfg.Db.Debug}

	// Emergency state shares the tracker daemon's key/value file; the
	// tracker picks up changes on its next expiry tick.
	statePath := cfg.Tracking.StatePath
	if statePath == "" {
		statePath = "tracker_state.json"
	}
	kv, err := kvstore.Open(statePath)
	if err != nil {
		return nil, err
	}
	s.emergency = attendance.NewEmergencyManager(kv, &attendance.LogNotifier{}, nil)

	return s, nil
}

func (s *AttendApiServer) Run() error {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	if s.cfg.Http.BasicAuth {
		userdb := make(map[string]string)
		for _, v := range s.cfg.Http.Users {
			userdb[v.User] = v.Password
		}
		r.Use(middleware.BasicAuth(s.cfg.Http.ServerName, userdb))
	}

	r.Route("/location", func(r chi.Router) {
		r.Mount("/", s.apiLocationRouter())
	})

	r.Route("/attendance", func(r chi.Router) {
		r.Mount("/", s.apiAttendanceRouter())
	})

	r.Route("/preference", func(r chi.Router) {
		r.Mount("/", s.apiPreferenceRouter())
	})

	r.Route("/snapshot", func(r chi.Router) {
		r.Mount("/", s.apiSnapshotRouter())
	})

	r.Route("/emergency", func(r chi.Router) {
		r.Mount("/", s.apiEmergencyRouter())
	})

	// Start HTTP Handler
	err := http.ListenAndServe(s.cfg.Http.Listen, r)
	if err != nil {
		return err
	}

	return nil
}
