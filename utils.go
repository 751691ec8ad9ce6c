package gocbcfg

import (
	"context"
	"net"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"slices"
)

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func hostFromHostPort(hostport string) (string, error) {
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		return "", err
	}

	// If this is an IPv6 address, we need to rewrap it in []
	if strings.Contains(host, ":") {
		return "[" + host + "]", nil
	}

	return host, nil
}

func getHostFromUri(uri string) (string, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", err
	}

	host := parsed.Hostname()
	if strings.Contains(host, ":") {
		return "[" + host + "]", nil
	}

	return host, nil
}

func filterStringsOut(strs []string, except []string) []string {
	out := make([]string, 0, len(strs))
	for _, str := range strs {
		if !slices.Contains(except, str) {
			out = append(out, str)
		}
	}
	return out
}

func contextSleep(ctx context.Context, period time.Duration) error {
	select {
	case <-time.After(period):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
