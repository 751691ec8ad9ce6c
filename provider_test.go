package gocbcfg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	loaderType LoaderType
	loadFn     func(ctx context.Context, seed string) (*BucketConfig, error)
}

func (l *fakeLoader) LoadConfig(
	ctx context.Context,
	seed string,
	bucketName, username, password string,
) (LoaderType, *BucketConfig, error) {
	config, err := l.loadFn(ctx, seed)
	if err != nil {
		return "", nil, err
	}
	return l.loaderType, config, nil
}

type fakeRefresher struct {
	configsCh  chan ProposedBucketConfigContext
	registerFn func(ctx context.Context, bucketName, username, password string) error
}

func newFakeRefresher() *fakeRefresher {
	return &fakeRefresher{
		configsCh: make(chan ProposedBucketConfigContext),
	}
}

func (r *fakeRefresher) Configs() <-chan ProposedBucketConfigContext {
	return r.configsCh
}

func (r *fakeRefresher) RegisterBucket(ctx context.Context, bucketName, username, password string) error {
	if r.registerFn == nil {
		return nil
	}
	return r.registerFn(ctx, bucketName, username, password)
}

func fakeBucketConfig(name string) *BucketConfig {
	return &BucketConfig{
		Type: BucketTypeCouchbase,
		Name: name,
		Rev:  RevUnversioned,
		Nodes: []NodeInfo{
			{
				Hostname: "127.0.0.1",
				Services: map[ServiceType]int{
					ServiceTypeMemd: 11210,
				},
			},
		},
	}
}

func staticLoader(loaderType LoaderType, bucketName string) *fakeLoader {
	return &fakeLoader{
		loaderType: loaderType,
		loadFn: func(ctx context.Context, seed string) (*BucketConfig, error) {
			return fakeBucketConfig(bucketName), nil
		},
	}
}

func revPlaceholderConfig(t *testing.T, rev int) []byte {
	raw := LoadTestData(t, "testdata/config_with_rev_placeholder.json")
	return bytes.Replace(raw, []byte("$REV"), []byte(fmt.Sprintf("%d", rev)), 1)
}

func TestProviderOpenBucket(t *testing.T) {
	refresher := newFakeRefresher()
	provider, err := NewConfigurationProvider(ProviderConfig{
		Loaders: []Loader{staticLoader(LoaderTypeCarrier, "bucket")},
		Refreshers: map[LoaderType]Refresher{
			LoaderTypeCarrier: refresher,
		},
	}, nil)
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	provider.SeedHosts([]string{"127.0.0.1:11210"}, true)

	config, err := provider.OpenBucket(context.Background(), OpenBucketOptions{
		BucketName: "bucket",
		Password:   "password",
	})
	require.NoError(t, err)

	assert.True(t, config.HasBucket("bucket"))
	assert.False(t, config.HasBucket("other"))
}

func TestProviderOpenBucketFallsBackToSecondLoader(t *testing.T) {
	errorLoader := &fakeLoader{
		loaderType: LoaderTypeCarrier,
		loadFn: func(ctx context.Context, seed string) (*BucketConfig, error) {
			return nil, errors.New("could not load config for some reason")
		},
	}

	refresher := newFakeRefresher()
	provider, err := NewConfigurationProvider(ProviderConfig{
		Loaders: []Loader{errorLoader, staticLoader(LoaderTypeHttp, "bucket")},
		Refreshers: map[LoaderType]Refresher{
			LoaderTypeCarrier: refresher,
			LoaderTypeHttp:    refresher,
		},
	}, nil)
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	provider.SeedHosts([]string{"127.0.0.1:11210"}, true)

	config, err := provider.OpenBucket(context.Background(), OpenBucketOptions{
		BucketName: "bucket",
		Password:   "password",
	})
	require.NoError(t, err)

	assert.True(t, config.HasBucket("bucket"))
	assert.False(t, config.HasBucket("other"))
}

func seedSelectiveLoader(loaderType LoaderType, goodSeed string) *fakeLoader {
	return &fakeLoader{
		loaderType: loaderType,
		loadFn: func(ctx context.Context, seed string) (*BucketConfig, error) {
			if seed != goodSeed {
				return nil, errors.New("could not load config for some reason")
			}
			return fakeBucketConfig(fmt.Sprintf("bucket-%s-%s", loaderType, seed)), nil
		},
	}
}

func TestProviderOpenBucketWithPartialSeedFailure(t *testing.T) {
	refresher := newFakeRefresher()
	provider, err := NewConfigurationProvider(ProviderConfig{
		Loaders: []Loader{
			seedSelectiveLoader(LoaderTypeCarrier, "5.6.7.8"),
			seedSelectiveLoader(LoaderTypeHttp, "5.6.7.8"),
		},
		Refreshers: map[LoaderType]Refresher{
			LoaderTypeCarrier: refresher,
			LoaderTypeHttp:    refresher,
		},
	}, nil)
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	provider.SeedHosts([]string{"1.2.3.4", "5.6.7.8"}, true)

	config, err := provider.OpenBucket(context.Background(), OpenBucketOptions{
		BucketName: "bucket",
		Password:   "password",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, config.NumBuckets())
	assert.True(t, config.HasBucket("bucket-carrier-5.6.7.8"))
}

func TestProviderOpenBucketWithOnlyHttpAvailable(t *testing.T) {
	errorLoader := &fakeLoader{
		loaderType: LoaderTypeCarrier,
		loadFn: func(ctx context.Context, seed string) (*BucketConfig, error) {
			return nil, errors.New("could not load config for some reason")
		},
	}

	refresher := newFakeRefresher()
	provider, err := NewConfigurationProvider(ProviderConfig{
		Loaders: []Loader{
			errorLoader,
			seedSelectiveLoader(LoaderTypeHttp, "5.6.7.8"),
		},
		Refreshers: map[LoaderType]Refresher{
			LoaderTypeCarrier: refresher,
			LoaderTypeHttp:    refresher,
		},
	}, nil)
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	provider.SeedHosts([]string{"1.2.3.4", "5.6.7.8"}, true)

	config, err := provider.OpenBucket(context.Background(), OpenBucketOptions{
		BucketName: "bucket",
		Password:   "password",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, config.NumBuckets())
	assert.True(t, config.HasBucket("bucket-http-5.6.7.8"))
}

func TestProviderOpenBucketWithNonRespondingSeed(t *testing.T) {
	hangingLoader := func(loaderType LoaderType) *fakeLoader {
		return &fakeLoader{
			loaderType: loaderType,
			loadFn: func(ctx context.Context, seed string) (*BucketConfig, error) {
				if seed != "5.6.7.8" {
					select {
					case <-time.After(1 * time.Minute):
						return nil, errors.New("could not load config for some reason")
					case <-ctx.Done():
						return nil, ctx.Err()
					}
				}
				return fakeBucketConfig(fmt.Sprintf("bucket-%s-%s", loaderType, seed)), nil
			},
		}
	}

	refresher := newFakeRefresher()
	provider, err := NewConfigurationProvider(ProviderConfig{
		Loaders: []Loader{
			hangingLoader(LoaderTypeCarrier),
			hangingLoader(LoaderTypeHttp),
		},
		Refreshers: map[LoaderType]Refresher{
			LoaderTypeCarrier: refresher,
			LoaderTypeHttp:    refresher,
		},
	}, nil)
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	provider.SeedHosts([]string{"1.2.3.4", "5.6.7.8"}, true)

	// the non-responding seed must not delay selection of the good one
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	config, err := provider.OpenBucket(ctx, OpenBucketOptions{
		BucketName: "bucket",
		Password:   "password",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, config.NumBuckets())
	assert.True(t, config.HasBucket("bucket-carrier-5.6.7.8"))
}

func TestProviderOpenBucketFailsWhenNoConfigLoaded(t *testing.T) {
	errorLoader := &fakeLoader{
		loaderType: LoaderTypeCarrier,
		loadFn: func(ctx context.Context, seed string) (*BucketConfig, error) {
			return nil, errors.New("could not load config for some reason")
		},
	}

	refresher := newFakeRefresher()
	provider, err := NewConfigurationProvider(ProviderConfig{
		Loaders: []Loader{errorLoader},
		Refreshers: map[LoaderType]Refresher{
			LoaderTypeCarrier: refresher,
		},
	}, nil)
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	provider.SeedHosts([]string{"127.0.0.1:11210"}, true)

	_, err = provider.OpenBucket(context.Background(), OpenBucketOptions{
		BucketName: "bucket",
		Password:   "password",
	})
	require.Error(t, err)

	var configErr ConfigurationError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "Could not open bucket.", configErr.Error())

	var allFailedErr BootstrapAllFailedError
	assert.ErrorAs(t, err, &allFailedErr)
}

func TestProviderOpenBucketFailsWithoutSeeds(t *testing.T) {
	refresher := newFakeRefresher()
	provider, err := NewConfigurationProvider(ProviderConfig{
		Loaders: []Loader{staticLoader(LoaderTypeCarrier, "bucket")},
		Refreshers: map[LoaderType]Refresher{
			LoaderTypeCarrier: refresher,
		},
	}, nil)
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	_, err = provider.OpenBucket(context.Background(), OpenBucketOptions{
		BucketName: "bucket",
		Password:   "password",
	})
	assert.ErrorIs(t, err, ErrNoSeedHosts)
}

func TestProviderOpenBucketFailsWithoutRefresher(t *testing.T) {
	provider, err := NewConfigurationProvider(ProviderConfig{
		Loaders: []Loader{staticLoader(LoaderTypeCarrier, "bucket")},
	}, nil)
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	provider.SeedHosts([]string{"127.0.0.1:11210"}, true)

	_, err = provider.OpenBucket(context.Background(), OpenBucketOptions{
		BucketName: "bucket",
		Password:   "password",
	})
	assert.ErrorIs(t, err, ErrNoRefresher)
}

func TestProviderOpenBucketFailsWhenRegisterFails(t *testing.T) {
	registerErr := errors.New("registration exploded")

	refresher := newFakeRefresher()
	refresher.registerFn = func(ctx context.Context, bucketName, username, password string) error {
		return registerErr
	}

	provider, err := NewConfigurationProvider(ProviderConfig{
		Loaders: []Loader{staticLoader(LoaderTypeCarrier, "bucket")},
		Refreshers: map[LoaderType]Refresher{
			LoaderTypeCarrier: refresher,
		},
	}, nil)
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	provider.SeedHosts([]string{"127.0.0.1:11210"}, true)

	_, err = provider.OpenBucket(context.Background(), OpenBucketOptions{
		BucketName: "bucket",
		Password:   "password",
	})
	assert.ErrorIs(t, err, registerErr)
}

func TestProviderEmitsNewClusterConfig(t *testing.T) {
	refresher := newFakeRefresher()
	provider, err := NewConfigurationProvider(ProviderConfig{
		Loaders: []Loader{staticLoader(LoaderTypeCarrier, "bucket")},
		Refreshers: map[LoaderType]Refresher{
			LoaderTypeCarrier: refresher,
		},
	}, nil)
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	configCh := provider.Configs(context.Background())

	provider.SeedHosts([]string{"127.0.0.1:11210"}, true)

	config, err := provider.OpenBucket(context.Background(), OpenBucketOptions{
		BucketName: "bucket",
		Password:   "password",
	})
	require.NoError(t, err)
	assert.True(t, config.HasBucket("bucket"))

	select {
	case emitted := <-configCh:
		assert.Equal(t, config, emitted)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cluster config emission")
	}
}

func TestProviderAcceptsProposedConfigIfNoneExists(t *testing.T) {
	provider, err := NewConfigurationProvider(ProviderConfig{}, nil)
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	provider.SeedHosts([]string{"127.0.0.1"}, true)
	assert.Equal(t, 0, provider.Config().NumBuckets())

	provider.ProposeBucketConfig(ProposedBucketConfigContext{
		BucketName: "default",
		Config:     revPlaceholderConfig(t, 1),
	})

	require.Equal(t, 1, provider.Config().NumBuckets())
	assert.Equal(t, int64(1), provider.Config().BucketConfig("default").Rev)
}

func TestProviderAcceptsProposedConfigIfNewer(t *testing.T) {
	provider, err := NewConfigurationProvider(ProviderConfig{}, nil)
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	provider.SeedHosts([]string{"127.0.0.1"}, true)

	provider.ProposeBucketConfig(ProposedBucketConfigContext{
		BucketName: "default",
		Config:     revPlaceholderConfig(t, 1),
	})
	require.Equal(t, 1, provider.Config().NumBuckets())
	assert.Equal(t, int64(1), provider.Config().BucketConfig("default").Rev)

	provider.ProposeBucketConfig(ProposedBucketConfigContext{
		BucketName: "default",
		Config:     revPlaceholderConfig(t, 2),
	})
	require.Equal(t, 1, provider.Config().NumBuckets())
	assert.Equal(t, int64(2), provider.Config().BucketConfig("default").Rev)
}

func TestProviderIgnoresInvalidProposedConfig(t *testing.T) {
	provider, err := NewConfigurationProvider(ProviderConfig{}, nil)
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	provider.SeedHosts([]string{"127.0.0.1"}, true)

	// the placeholder was never substituted, this payload is invalid
	invalidRaw := LoadTestData(t, "testdata/config_with_rev_placeholder.json")

	provider.ProposeBucketConfig(ProposedBucketConfigContext{
		BucketName: "default",
		Config:     invalidRaw,
	})
	assert.Equal(t, 0, provider.Config().NumBuckets())

	provider.ProposeBucketConfig(ProposedBucketConfigContext{
		BucketName: "default",
		Config:     revPlaceholderConfig(t, 1),
	})
	require.Equal(t, 1, provider.Config().NumBuckets())
	assert.Equal(t, int64(1), provider.Config().BucketConfig("default").Rev)

	provider.ProposeBucketConfig(ProposedBucketConfigContext{
		BucketName: "default",
		Config:     invalidRaw,
	})
	require.Equal(t, 1, provider.Config().NumBuckets())
	assert.Equal(t, int64(1), provider.Config().BucketConfig("default").Rev)

	provider.ProposeBucketConfig(ProposedBucketConfigContext{
		BucketName: "default",
		Config:     revPlaceholderConfig(t, 2),
	})
	require.Equal(t, 1, provider.Config().NumBuckets())
	assert.Equal(t, int64(2), provider.Config().BucketConfig("default").Rev)
}

func TestProviderIgnoresOlderProposedConfig(t *testing.T) {
	provider, err := NewConfigurationProvider(ProviderConfig{}, nil)
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	provider.SeedHosts([]string{"127.0.0.1"}, true)

	provider.ProposeBucketConfig(ProposedBucketConfigContext{
		BucketName: "default",
		Config:     revPlaceholderConfig(t, 2),
	})
	require.Equal(t, 1, provider.Config().NumBuckets())
	assert.Equal(t, int64(2), provider.Config().BucketConfig("default").Rev)

	provider.ProposeBucketConfig(ProposedBucketConfigContext{
		BucketName: "default",
		Config:     revPlaceholderConfig(t, 1),
	})
	require.Equal(t, 1, provider.Config().NumBuckets())
	assert.Equal(t, int64(2), provider.Config().BucketConfig("default").Rev)
}

func TestProviderIgnoresSameRevProposedConfig(t *testing.T) {
	provider, err := NewConfigurationProvider(ProviderConfig{}, nil)
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	provider.SeedHosts([]string{"127.0.0.1"}, true)

	configCh := provider.Configs(context.Background())

	var emissions []*ClusterConfig
	var emissionsLock sync.Mutex
	go func() {
		for config := range configCh {
			emissionsLock.Lock()
			emissions = append(emissions, config)
			emissionsLock.Unlock()
		}
	}()

	provider.ProposeBucketConfig(ProposedBucketConfigContext{
		BucketName: "default",
		Config:     revPlaceholderConfig(t, 1),
	})
	assert.Equal(t, int64(1), provider.Config().BucketConfig("default").Rev)

	provider.ProposeBucketConfig(ProposedBucketConfigContext{
		BucketName: "default",
		Config:     revPlaceholderConfig(t, 1),
	})
	assert.Equal(t, int64(1), provider.Config().BucketConfig("default").Rev)

	provider.ProposeBucketConfig(ProposedBucketConfigContext{
		BucketName: "default",
		Config:     revPlaceholderConfig(t, 2),
	})
	assert.Equal(t, int64(2), provider.Config().BucketConfig("default").Rev)

	// only the two accepted configs are emitted
	require.Eventually(t, func() bool {
		emissionsLock.Lock()
		defer emissionsLock.Unlock()
		return len(emissions) == 2
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)

	emissionsLock.Lock()
	defer emissionsLock.Unlock()
	require.Len(t, emissions, 2)
	assert.Equal(t, int64(1), emissions[0].BucketConfig("default").Rev)
	assert.Equal(t, int64(2), emissions[1].BucketConfig("default").Rev)
}

func TestProviderEmittedRevsAreMonotonic(t *testing.T) {
	provider, err := NewConfigurationProvider(ProviderConfig{}, nil)
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	provider.SeedHosts([]string{"127.0.0.1"}, true)

	configCh := provider.Configs(context.Background())

	doneCh := make(chan []int64, 1)
	go func() {
		var revs []int64
		for config := range configCh {
			revs = append(revs, config.BucketConfig("default").Rev)
		}
		doneCh <- revs
	}()

	rawTemplate := LoadTestData(t, "testdata/config_with_rev_placeholder.json")

	revs := rand.Perm(30)
	var wg sync.WaitGroup
	for _, rev := range revs {
		wg.Add(1)
		go func(rev int) {
			defer wg.Done()
			raw := bytes.Replace(rawTemplate, []byte("$REV"), []byte(fmt.Sprintf("%d", rev+1)), 1)
			provider.ProposeBucketConfig(ProposedBucketConfigContext{
				BucketName: "default",
				Config:     raw,
			})
		}(rev)
	}
	wg.Wait()

	assert.Equal(t, int64(30), provider.Config().BucketConfig("default").Rev)

	_ = provider.Close()

	select {
	case observed := <-doneCh:
		require.NotEmpty(t, observed)
		for i := 1; i < len(observed); i++ {
			assert.Greater(t, observed[i], observed[i-1])
		}
		assert.Equal(t, int64(30), observed[len(observed)-1])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config stream to close")
	}
}

func TestProviderForcePickServerDefault(t *testing.T) {
	provider, err := NewConfigurationProvider(ProviderConfig{}, &ProviderOptions{
		NetworkResolution: NetworkResolutionDefault,
	})
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	assert.Equal(t, 0, provider.Config().NumBuckets())

	provider.ProposeBucketConfig(ProposedBucketConfigContext{
		BucketName: "bucket",
		Config:     LoadTestData(t, "testdata/bucket_config_with_external.json"),
	})

	require.Equal(t, 1, provider.Config().NumBuckets())
	assert.Equal(t, "", provider.Config().BucketConfig("default").UseAlternateNetwork)
}

func TestProviderForcePickExternal(t *testing.T) {
	provider, err := NewConfigurationProvider(ProviderConfig{}, &ProviderOptions{
		NetworkResolution: NetworkResolutionExternal,
	})
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	assert.Equal(t, 0, provider.Config().NumBuckets())

	provider.ProposeBucketConfig(ProposedBucketConfigContext{
		BucketName: "bucket",
		Config:     LoadTestData(t, "testdata/bucket_config_with_external.json"),
	})

	require.Equal(t, 1, provider.Config().NumBuckets())
	assert.Equal(t, "external", provider.Config().BucketConfig("default").UseAlternateNetwork)
}

func TestProviderAutoPickExternal(t *testing.T) {
	provider, err := NewConfigurationProvider(ProviderConfig{}, &ProviderOptions{
		NetworkResolution: NetworkResolutionAuto,
	})
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	provider.SeedHosts([]string{"192.168.132.234"}, true)
	assert.Equal(t, 0, provider.Config().NumBuckets())

	provider.ProposeBucketConfig(ProposedBucketConfigContext{
		BucketName: "bucket",
		Config:     LoadTestData(t, "testdata/bucket_config_with_external.json"),
	})

	require.Equal(t, 1, provider.Config().NumBuckets())
	assert.Equal(t, "external", provider.Config().BucketConfig("default").UseAlternateNetwork)
}

func TestProviderAutoPickServerDefault(t *testing.T) {
	provider, err := NewConfigurationProvider(ProviderConfig{}, &ProviderOptions{
		NetworkResolution: NetworkResolutionAuto,
	})
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	provider.SeedHosts([]string{"172.17.0.3"}, true)
	assert.Equal(t, 0, provider.Config().NumBuckets())

	provider.ProposeBucketConfig(ProposedBucketConfigContext{
		BucketName: "bucket",
		Config:     LoadTestData(t, "testdata/bucket_config_with_external.json"),
	})

	require.Equal(t, 1, provider.Config().NumBuckets())
	assert.Equal(t, "", provider.Config().BucketConfig("default").UseAlternateNetwork)
}

func TestProviderRoutesRefresherConfigs(t *testing.T) {
	refresher := newFakeRefresher()
	provider, err := NewConfigurationProvider(ProviderConfig{
		Loaders: []Loader{staticLoader(LoaderTypeCarrier, "bucket")},
		Refreshers: map[LoaderType]Refresher{
			LoaderTypeCarrier: refresher,
		},
	}, nil)
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	provider.SeedHosts([]string{"127.0.0.1:11210"}, true)

	refresher.configsCh <- ProposedBucketConfigContext{
		BucketName: "default",
		Config:     revPlaceholderConfig(t, 5),
		Origin:     "127.0.0.1",
	}

	require.Eventually(t, func() bool {
		bucketConfig := provider.Config().BucketConfig("default")
		return bucketConfig != nil && bucketConfig.Rev == 5
	}, 2*time.Second, 10*time.Millisecond)
}

func TestProviderSharesConcurrentBootstraps(t *testing.T) {
	var loadCalls int32

	slowLoader := &fakeLoader{
		loaderType: LoaderTypeCarrier,
		loadFn: func(ctx context.Context, seed string) (*BucketConfig, error) {
			atomic.AddInt32(&loadCalls, 1)
			time.Sleep(50 * time.Millisecond)
			return fakeBucketConfig("bucket"), nil
		},
	}

	refresher := newFakeRefresher()
	provider, err := NewConfigurationProvider(ProviderConfig{
		Loaders: []Loader{slowLoader},
		Refreshers: map[LoaderType]Refresher{
			LoaderTypeCarrier: refresher,
		},
	}, nil)
	require.NoError(t, err)
	defer func() {
		_ = provider.Close()
	}()

	provider.SeedHosts([]string{"127.0.0.1:11210"}, true)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			config, err := provider.OpenBucket(context.Background(), OpenBucketOptions{
				BucketName: "bucket",
				Password:   "password",
			})
			assert.NoError(t, err)
			assert.True(t, config.HasBucket("bucket"))
		}()
	}
	wg.Wait()

	// concurrent opens of the same bucket share one in-flight bootstrap
	assert.Equal(t, int32(1), atomic.LoadInt32(&loadCalls))
}
