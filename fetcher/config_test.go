package fetcher

import (
	"log"
	"testing"
	"time"
)

func TestConfigTimeoutDefaulting(t *testing.T) {
	if got := (Config{}).timeout(); got != DefaultTimeout {
		t.Errorf("timeout() = %v, want %v", got, DefaultTimeout)
	}
	if got := (Config{TimeoutDuration: 5 * time.Second}).timeout(); got != 5*time.Second {
		t.Errorf("timeout() = %v, want 5s", got)
	}
}

func TestConfigRetryDurationDefaulting(t *testing.T) {
	if got := (Config{}).retryDuration(); got != DefaultRetryDuration {
		t.Errorf("retryDuration() = %v, want %v", got, DefaultRetryDuration)
	}
	if got := (Config{RetryDuration: 3 * time.Second}).retryDuration(); got != 3*time.Second {
		t.Errorf("retryDuration() = %v, want 3s", got)
	}
}

func TestConfigNumThreadsDefaulting(t *testing.T) {
	if got := (Config{}).numThreads(); got != 1 {
		t.Errorf("numThreads() = %d, want 1", got)
	}
	if got := (Config{NumThreads: 0}).numThreads(); got != 1 {
		t.Errorf("numThreads() = %d, want 1", got)
	}
	if got := (Config{NumThreads: 8}).numThreads(); got != 8 {
		t.Errorf("numThreads() = %d, want 8", got)
	}
}

func TestConfigLoggerDefaulting(t *testing.T) {
	if got := (Config{}).logger(); got != log.Default() {
		t.Error("logger() should default to log.Default()")
	}
	custom := log.New(nil, "x", 0)
	if got := (Config{Logger: custom}).logger(); got != custom {
		t.Error("logger() should return the configured logger")
	}
}

func TestConfigHTTPClientDefaulting(t *testing.T) {
	if got := (Config{}).httpClient(); got == nil {
		t.Error("httpClient() should never return nil")
	}
	custom := &dispatchHTTPClient{}
	if got := (Config{HTTPClient: custom}).httpClient(); got != custom {
		t.Error("httpClient() should return the configured client")
	}
}
