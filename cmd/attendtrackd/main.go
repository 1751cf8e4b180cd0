package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Kalpa111334/Hr-Management/internal/tracker"
)

func main() {
	var err error
	var configFile string
	var config tracker.Config

	rootCmd := &cobra.Command{
		Use:   "attendtrackd",
		Short: "Geofence auto-attendance tracking daemon",
		// Main Entry Point
		Run: func(c *cobra.Command, args []string) {
			// Init
			t, err := tracker.New(config)
			if err != nil {
				log.Fatalf("Failed on init: %v", err)
			}

			err = t.Run()
			if err != nil {
				log.Fatalf("Failed on start: %v", err)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.json", "Path to configuration")

	// Default Values
	viper.SetDefault("db.driver", "mysql")
	viper.SetDefault("tracking.poll_interval", 60)
	viper.SetDefault("tracking.check_in_threshold", 2)
	viper.SetDefault("tracking.check_out_threshold", 5)
	viper.SetDefault("tracking.state_path", "tracker_state.json")
	viper.SetDefault("tracking.high_accuracy", true)

	// Read Configuration File Before Start
	cobra.OnInitialize(func() {
		// Secrets may come from a .env file next to the binary.
		err := godotenv.Load()
		if err == nil {
			log.Printf("Loaded .env file")
		}

		_, err = os.Stat(configFile)
		if os.IsNotExist(err) {
			envConfFile := os.Getenv("CONFIG_FILE")
			if envConfFile != "" {
				_, err := os.Stat(envConfFile)
				if os.IsNotExist(err) {
					log.Fatalf("Config file %s does not exist!", envConfFile)
				}

				configFile = envConfFile
			} else {
				log.Fatalf("Config file %s does not exist!", configFile)
			}
		}

		viper.SetConfigFile(configFile)
		viper.SetConfigType("json")
		viper.AutomaticEnv()
		err = viper.ReadInConfig()
		if err != nil {
			log.Fatalf("Failed to read config: %v", err)
		}

		err = viper.Unmarshal(&config)
		if err != nil {
			log.Fatalf("Failed to parse config: %v", err)
		}

		log.Printf("Loaded config file: %s", configFile)
	})

	// Launch (cobra.OnInitialize -> rootCmd.Run)
	err = rootCmd.Execute()
	if err != nil {
		log.Fatal(err)
	}
}
