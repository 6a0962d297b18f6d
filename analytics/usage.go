package analytics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/posthog/posthog-go"
)

const (
	BuildCommand   = "executed_build_command"
	QueryCommand   = "executed_query_command"
	ScanCommand    = "executed_scan_command"
	VersionCommand = "executed_version_command"
	ErrorBuild     = "error_building_snapshot"
	ErrorQuery     = "error_processing_query"
)

var (
	PublicKey     string
	enableMetrics bool
)

// Init enables or disables usage reporting for the process.
func Init(disableMetrics bool) {
	enableMetrics = !disableMetrics
}

func createEnvFile() {
	homeDir, err := os.UserHomeDir()
	envFile := filepath.Join(homeDir, ".codeprism", ".env")
	if err != nil {
		fmt.Println("Error getting user home directory:", err)
		return
	}
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(envFile), os.ModePerm); err != nil {
			fmt.Println("Error creating directory:", err)
			return
		}
		env := map[string]string{
			"uuid": uuid.New().String(),
		}
		err = godotenv.Write(env, envFile)
		if err != nil {
			fmt.Println("Error writing to .env file:", err)
		}
	}
}

// LoadEnvFile loads (creating if needed) the per-user analytics identity.
func LoadEnvFile() {
	createEnvFile()
	envFile := filepath.Join(os.Getenv("HOME"), ".codeprism", ".env")
	err := godotenv.Load(envFile)
	if err != nil {
		return
	}
}

// ReportEvent enqueues a usage event when reporting is enabled and a key
// was linked at build time.
func ReportEvent(event string) {
	if enableMetrics && PublicKey != "" {
		client, err := posthog.NewWithConfig(
			PublicKey,
			posthog.Config{
				Endpoint: "https://us.i.posthog.com",
			},
		)
		if err != nil {
			fmt.Println(err)
			return
		}
		err = client.Enqueue(posthog.Capture{
			DistinctId: os.Getenv("uuid"),
			Event:      event,
		})
		defer client.Close()
		if err != nil {
			fmt.Println(err)
			return
		}
	}
}
