package gocbcfg

import (
	"os"
	"testing"
)

func LoadTestData(t *testing.T, path string) []byte {
	s, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err.Error())
	}

	return s
}

func LoadTestBucketConfig(t *testing.T, path string, origin string) *BucketConfig {
	raw := LoadTestData(t, path)

	config, err := ConfigParser{}.ParseConfig(raw, origin)
	if err != nil {
		t.Fatal(err.Error())
	}

	return config
}
