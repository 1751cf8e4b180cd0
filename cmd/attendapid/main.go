package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Kalpa111334/Hr-Management/internal/attendapiserver"
)

func main() {
	var err error
	var configFile string
	var config attendapiserver.Config

	rootCmd := &cobra.Command{
		Use:   "attendapid",
		Short: "API server for attendance records, office locations and the live tracker snapshot",
		// Main Entry Point
		Run: func(c *cobra.Command, args []string) {
			// Init
			e, err := attendapiserver.New(config)
			if err != nil {
				log.Fatalf("Failed on init: %v", err)
			}

			err = e.Run()
			if err != nil {
				log.Fatalf("Failed on start: %v", err)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.json", "Path to configuration")

	// Defaults
	viper.SetDefault("db.driver", "mysql")
	viper.SetDefault("http.listen", ":8080")
	viper.SetDefault("http.server_name", "attendance")
	viper.SetDefault("tracking.state_path", "tracker_state.json")
	viper.SetDefault("tracking.snapshot_timeout", 120)

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
