package gocbcfg

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"maps"
	"slices"
)

type ProviderConfig struct {
	// Loaders are the bootstrap strategies, tried in order.
	Loaders []Loader

	// Refreshers map each loader type to the refresher which takes over
	// once a bucket bootstrapped through that loader.
	Refreshers map[LoaderType]Refresher
}

type ProviderOptions struct {
	Logger            *zap.Logger
	NetworkResolution NetworkResolution
}

type OpenBucketOptions struct {
	BucketName string

	// Username is optional; older servers authenticate buckets by name and
	// password only, in which case the bucket name is used.
	Username string
	Password string
}

// ConfigurationProvider is the in-process authority for the current cluster
// configuration. It bootstraps buckets through its loaders, keeps the
// per-bucket state revision-monotonic as refreshers and other producers
// propose new configurations, and publishes every accepted change.
type ConfigurationProvider struct {
	logger     *zap.Logger
	providerID string
	resolver   networkResolver
	loaders    []Loader
	refreshers map[LoaderType]Refresher
	publisher  *configPublisher

	lock              sync.Mutex
	seeds             []string
	directlyConnected bool
	closed            bool

	currentConfig atomic.Pointer[ClusterConfig]
	bootstraps    singleflight.Group
	routeWg       sync.WaitGroup
	closeCh       chan struct{}
}

func NewConfigurationProvider(config ProviderConfig, opts *ProviderOptions) (*ConfigurationProvider, error) {
	if opts == nil {
		opts = &ProviderOptions{}
	}

	providerID := uuid.NewString()[:8]

	p := &ConfigurationProvider{
		logger: loggerOrNop(opts.Logger).With(
			zap.String("providerId", providerID)),
		providerID: providerID,
		resolver: networkResolver{
			resolution: opts.NetworkResolution,
		},
		loaders:    slices.Clone(config.Loaders),
		refreshers: maps.Clone(config.Refreshers),
		publisher:  newConfigPublisher(),
		closeCh:    make(chan struct{}),
	}
	p.currentConfig.Store(NewClusterConfig())

	// the same refresher is commonly registered under several loader types,
	// but its proposal stream must only be consumed once to keep ordering
	routedRefreshers := make(map[Refresher]struct{})
	for _, refresher := range p.refreshers {
		if _, ok := routedRefreshers[refresher]; ok {
			continue
		}
		routedRefreshers[refresher] = struct{}{}

		p.routeWg.Add(1)
		go p.routeThread(refresher)
	}

	return p, nil
}

// SeedHosts sets the seed addresses used for bootstrap and for auto network
// resolution, replacing any previous set.
func (p *ConfigurationProvider) SeedHosts(seeds []string, directlyConnected bool) {
	p.lock.Lock()
	p.seeds = slices.Clone(seeds)
	p.directlyConnected = directlyConnected
	p.lock.Unlock()

	p.logger.Debug("seed hosts updated",
		zap.Strings("seeds", seeds),
		zap.Bool("directlyConnected", directlyConnected))
}

// Config returns the current ClusterConfig snapshot.
func (p *ConfigurationProvider) Config() *ClusterConfig {
	return p.currentConfig.Load()
}

// Configs returns a stream of ClusterConfig snapshots, one per accepted
// change. There is no replay; subscribers only observe changes accepted
// after they subscribed. The channel closes when the context is cancelled or
// the provider shuts down.
func (p *ConfigurationProvider) Configs(ctx context.Context) <-chan *ClusterConfig {
	return p.publisher.Subscribe(ctx)
}

// OpenBucket bootstraps the named bucket and returns the ClusterConfig that
// contains it. Concurrent calls for the same bucket share one in-flight
// bootstrap. Cancelling the context abandons any outstanding loader
// attempts.
func (p *ConfigurationProvider) OpenBucket(ctx context.Context, opts OpenBucketOptions) (*ClusterConfig, error) {
	res, err, _ := p.bootstraps.Do(opts.BucketName, func() (interface{}, error) {
		return p.openBucket(ctx, opts)
	})
	if err != nil {
		return nil, err
	}
	return res.(*ClusterConfig), nil
}

// ProposeBucketConfig routes an externally received configuration payload
// into config acceptance. Invalid, unversioned, and stale payloads are
// ignored without emitting anything.
func (p *ConfigurationProvider) ProposeBucketConfig(proposed ProposedBucketConfigContext) {
	config, err := ConfigParser{}.ParseConfig(proposed.Config, proposed.Origin)
	if err != nil {
		ignoredConfigs.Add(context.Background(), 1)
		p.logger.Debug("ignoring unparseable proposed config",
			zap.Error(err),
			zap.String("bucketName", proposed.BucketName),
			zap.String("origin", proposed.Origin))
		return
	}

	if !config.IsVersioned() {
		ignoredConfigs.Add(context.Background(), 1)
		p.logger.Debug("ignoring proposed config without a revision",
			zap.String("bucketName", proposed.BucketName))
		return
	}

	p.acceptConfig(config)
}

// Close shuts the provider down. Refresher routing stops and all config
// subscriptions are closed.
func (p *ConfigurationProvider) Close() error {
	p.lock.Lock()
	if p.closed {
		p.lock.Unlock()
		return nil
	}
	p.closed = true
	p.lock.Unlock()

	close(p.closeCh)
	p.routeWg.Wait()
	p.publisher.Close()

	return nil
}

func (p *ConfigurationProvider) routeThread(refresher Refresher) {
	defer p.routeWg.Done()

	configCh := refresher.Configs()
	for {
		select {
		case proposed, ok := <-configCh:
			if !ok {
				return
			}
			p.ProposeBucketConfig(proposed)
		case <-p.closeCh:
			return
		}
	}
}

func (p *ConfigurationProvider) openBucket(ctx context.Context, opts OpenBucketOptions) (*ClusterConfig, error) {
	p.lock.Lock()
	seeds := slices.Clone(p.seeds)
	closed := p.closed
	p.lock.Unlock()

	if closed {
		return nil, newOpenBucketError(ErrProviderClosed)
	}
	if len(seeds) == 0 {
		return nil, newOpenBucketError(ErrNoSeedHosts)
	}

	username := opts.Username
	if username == "" {
		username = opts.BucketName
	}

	attemptErrs := make(map[string]error)
	for _, loader := range p.loaders {
		loaderType, config, seedErrs := p.raceSeeds(ctx, loader, seeds, opts.BucketName, username, opts.Password)
		if config == nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			for seed, err := range seedErrs {
				attemptErrs[seed] = err
			}
			continue
		}

		refresher, ok := p.refreshers[loaderType]
		if !ok {
			return nil, newOpenBucketError(noRefresherError{LoaderType: loaderType})
		}

		if err := refresher.RegisterBucket(ctx, opts.BucketName, username, opts.Password); err != nil {
			return nil, newOpenBucketError(err)
		}

		clusterConfig, accepted := p.acceptConfig(config)
		if clusterConfig == nil || !clusterConfig.HasBucket(config.Name) {
			return nil, newOpenBucketError(ErrProviderClosed)
		}

		p.logger.Debug("bucket opened",
			zap.String("bucketName", config.Name),
			zap.String("loaderType", string(loaderType)),
			zap.Bool("acceptedNewConfig", accepted))

		return clusterConfig, nil
	}

	return nil, newOpenBucketError(BootstrapAllFailedError{
		Errors: attemptErrs,
	})
}

type loaderAttempt struct {
	seed       string
	loaderType LoaderType
	config     *BucketConfig
	err        error
}

// raceSeeds tries one loader against every seed concurrently and returns the
// first success. Outstanding attempts are cancelled once a winner is
// selected; attempts which never complete are abandoned to their goroutines,
// which exit through the buffered result channel.
func (p *ConfigurationProvider) raceSeeds(
	ctx context.Context,
	loader Loader,
	seeds []string,
	bucketName, username, password string,
) (LoaderType, *BucketConfig, map[string]error) {
	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	resultCh := make(chan loaderAttempt, len(seeds))
	for _, seed := range seeds {
		bootstrapAttempts.Add(attemptCtx, 1)

		go func(seed string) {
			loaderType, config, err := loader.LoadConfig(attemptCtx, seed, bucketName, username, password)
			resultCh <- loaderAttempt{
				seed:       seed,
				loaderType: loaderType,
				config:     config,
				err:        err,
			}
		}(seed)
	}

	attemptErrs := make(map[string]error)
	for range seeds {
		select {
		case res := <-resultCh:
			if res.err != nil {
				p.logger.Debug("loader attempt failed",
					zap.String("seed", res.seed),
					zap.String("bucketName", bucketName),
					zap.Error(res.err))
				attemptErrs[res.seed] = res.err
				continue
			}

			return res.loaderType, res.config, nil
		case <-ctx.Done():
			return "", nil, attemptErrs
		}
	}

	return "", nil, attemptErrs
}

// acceptConfig merges one parsed config into the current state. It accepts
// when the bucket has no prior config or the proposal carries a strictly
// newer revision, publishing the resulting snapshot. Delivery to subscribers
// happens outside the critical section.
func (p *ConfigurationProvider) acceptConfig(config *BucketConfig) (*ClusterConfig, bool) {
	p.lock.Lock()

	if p.closed {
		p.lock.Unlock()
		return nil, false
	}

	current := p.currentConfig.Load()
	oldConfig := current.BucketConfig(config.Name)
	if oldConfig != nil && config.Compare(oldConfig) <= 0 {
		p.lock.Unlock()

		ignoredConfigs.Add(context.Background(), 1)
		p.logger.Debug("ignoring stale proposed config",
			zap.String("bucketName", config.Name),
			zap.Int64("proposedRev", config.Rev),
			zap.Int64("currentRev", oldConfig.Rev))
		return current, false
	}

	config = config.withAlternateNetwork(p.resolver.resolve(config, p.seeds))

	newConfig := current.withBucketConfig(config)
	p.currentConfig.Store(newConfig)
	p.publisher.Publish(newConfig)
	p.lock.Unlock()

	acceptedConfigs.Add(context.Background(), 1)
	p.logger.Debug("accepted bucket config",
		zap.String("bucketName", config.Name),
		zap.Int64("rev", config.Rev),
		zap.String("useAlternateNetwork", config.UseAlternateNetwork))

	return newConfig, true
}
