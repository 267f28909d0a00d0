package cli

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables that provide flag defaults.
const (
	envPlatform  = "PT2RKNN_PLATFORM"
	envImageSize = "PT2RKNN_IMGSIZE"
	envPython    = "PT2RKNN_PYTHON"
	envOpset     = "PT2RKNN_OPSET"
	envLogLevel  = "PT2RKNN_LOG_LEVEL"
	envLogFormat = "PT2RKNN_LOG_FORMAT"
	envVerbose   = "PT2RKNN_VERBOSE"
)

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	s := strings.ToLower(v)
	return s == "1" || s == "true" || s == "yes"
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		_, err := fmt.Sscanf(v, "%d", &n)
		if err == nil {
			return n
		}
	}
	return def
}

func envSet(key string) bool { return key != "" && os.Getenv(key) != "" }
