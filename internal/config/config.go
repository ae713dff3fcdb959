package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the local data directory to store the daemon state
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// ExplorerURLKey is the endpoint of the remote RPC/indexer node
	ExplorerURLKey = "EXPLORER_URL"
	// WSPortKey is the port where the websocket IPC for the UI will listen on
	WSPortKey = "WS_PORT"
	// BatchSizeKey is the number of mint operations submitted per batch before waiting for confirmation
	BatchSizeKey = "BATCH_SIZE"
	// PollIntervalKey is the pause between two balance queries while waiting for a batch to settle
	PollIntervalKey = "POLL_INTERVAL"
	// PollTimeoutKey is the window after which an unconfirmed batch aborts its job
	PollTimeoutKey = "POLL_TIMEOUT"
	// SubmitRateKey is the max number of submissions per second toward the node
	SubmitRateKey = "SUBMIT_RATE"
)

var vip *viper.Viper

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("HALCYOND")
	vip.AutomaticEnv()

	defaultDatadir, _ := os.UserHomeDir()

	vip.SetDefault(DatadirKey, filepath.Join(defaultDatadir, ".halcyond"))
	vip.SetDefault(LogLevelKey, int(log.InfoLevel))
	vip.SetDefault(ExplorerURLKey, "http://localhost:16110")
	vip.SetDefault(WSPortKey, 18332)
	vip.SetDefault(BatchSizeKey, 3)
	vip.SetDefault(PollIntervalKey, 1500*time.Millisecond)
	vip.SetDefault(PollTimeoutKey, 2*time.Minute)
	vip.SetDefault(SubmitRateKey, 5)

	if err := initDatadir(); err != nil {
		log.WithError(err).Panic("failed to initialize datadir")
	}
}

// GetString reads a string key.
func GetString(key string) string {
	return vip.GetString(key)
}

// GetInt reads an int key.
func GetInt(key string) int {
	return vip.GetInt(key)
}

// GetDuration reads a duration key.
func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

// Validate checks the consistency of the provided configuration.
func Validate() error {
	if GetString(ExplorerURLKey) == "" {
		return fmt.Errorf("%s must not be empty", ExplorerURLKey)
	}
	if GetInt(BatchSizeKey) <= 0 {
		return fmt.Errorf("%s must be a positive integer", BatchSizeKey)
	}
	if GetDuration(PollIntervalKey) <= 0 || GetDuration(PollTimeoutKey) <= 0 {
		return fmt.Errorf(
			"%s and %s must be positive durations", PollIntervalKey, PollTimeoutKey,
		)
	}
	return nil
}

func initDatadir() error {
	datadir := GetString(DatadirKey)
	if _, err := os.Stat(datadir); os.IsNotExist(err) {
		return os.MkdirAll(datadir, 0700)
	}
	return nil
}
