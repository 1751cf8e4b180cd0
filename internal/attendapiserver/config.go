package attendapiserver

import (
	"github.com/Kalpa111334/Hr-Management/internal/store"
)

// Config defines the configuration structure for the attendance API server
type Config struct {
	Db       store.Config `mapstructure:"db"`
	Tracking struct {
		StatePath       string `mapstructure:"state_path"`       // shared local key/value file
		SnapshotTimeout int    `mapstructure:"snapshot_timeout"` // seconds before the snapshot row counts as stale
	} `mapstructure:"tracking"`
	Http struct {
		ServerName string `mapstructure:"server_name"`
		Listen     string `mapstructure:"listen"`
		BasicAuth  bool   `mapstructure:"basic_auth"`
		Debug      bool   `mapstructure:"debug"`
		Users      []struct {
			User     string `mapstructure:"user"`
			Password string `mapstructure:"password"`
		} `mapstructure:"users"`
	} `mapstructure:"http"`
}
