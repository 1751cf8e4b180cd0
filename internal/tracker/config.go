package tracker

import (
	"github.com/Kalpa111334/Hr-Management/internal/store"
)

// Config defines the configuration structure for the tracking daemon
type Config struct {
	Db       store.Config `mapstructure:"db"`
	Provider struct {
		Endpoint string `mapstructure:"endpoint"`
		Apikey   string `mapstructure:"apikey"`
		Uri      string `mapstructure:"uri"`
		Interval int    `mapstructure:"interval"` // watch poll, seconds
		Debug    bool   `mapstructure:"debug"`
	} `mapstructure:"provider"`
	Tracking struct {
		UserId            string `mapstructure:"user_id"`
		LocationId        string `mapstructure:"location_id"`
		PollInterval      int    `mapstructure:"poll_interval"`       // seconds, default 60
		CheckInThreshold  int    `mapstructure:"check_in_threshold"`  // minutes, default 2
		CheckOutThreshold int    `mapstructure:"check_out_threshold"` // minutes, default 5
		StatePath         string `mapstructure:"state_path"`          // local key/value file
		HighAccuracy      bool   `mapstructure:"high_accuracy"`
		Debug             bool   `mapstructure:"debug"`
	} `mapstructure:"tracking"`
}
