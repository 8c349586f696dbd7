package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"golang.org/x/sync/errgroup"
)

// Container is the explicit service registry owned by process bootstrap.
// It has two legal lifecycle states, uninitialized and initialized, and
// rejects state-incompatible calls. Registry access is mutex-guarded, but
// container-level lifecycle calls must still be serialized by the caller:
// a concurrent second InitializeAll is rejected, not queued.
type Container struct {
	observer

	mu            sync.RWMutex
	services      map[string]ServiceRegistration
	stages        [][]string
	started       map[string]struct{}
	initAttempted bool
	initialized   bool
}

type ContainerOption func(*Container)

func WithContainerLogger(logger Logger) ContainerOption {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithContainerMetrics(recorder MetricsRecorder) ContainerOption {
	return func(c *Container) {
		if recorder != nil {
			c.metrics = recorder
		}
	}
}

func NewContainer(opts ...ContainerOption) *Container {
	c := &Container{
		observer: observer{
			logger:  glog.Nop(),
			metrics: NopMetricsRecorder{},
		},
		services: map[string]ServiceRegistration{},
		started:  map[string]struct{}{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Register adds a service under its unique name. Duplicate names fail with
// ErrServiceAlreadyRegistered before any state is mutated. Registration is
// rejected once initialization has been attempted.
func (c *Container) Register(reg ServiceRegistration) error {
	if c == nil {
		return fmt.Errorf("core: container is nil")
	}
	if reg.Service == nil {
		return fmt.Errorf("core: service is required")
	}
	name := strings.TrimSpace(reg.Service.Name())
	if name == "" {
		return fmt.Errorf("core: service name is required")
	}
	deps, err := normalizeDependencies(name, reg.DependsOn)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initAttempted {
		return fmt.Errorf("%w: cannot register %q", ErrContainerAlreadyInitialized, name)
	}
	if _, exists := c.services[name]; exists {
		return fmt.Errorf("%w: %s", ErrServiceAlreadyRegistered, name)
	}
	c.services[name] = ServiceRegistration{Service: reg.Service, DependsOn: deps}
	return nil
}

// RegisterService is the common-case Register wrapper.
func (c *Container) RegisterService(svc Service, dependsOn ...string) error {
	return c.Register(ServiceRegistration{Service: svc, DependsOn: dependsOn})
}

// Get returns the shared service instance registered under name. A missing
// name fails with ErrServiceNotRegistered; nothing is ever auto-registered.
func (c *Container) Get(name string) (Service, error) {
	if c == nil {
		return nil, fmt.Errorf("core: container is nil")
	}
	name = strings.TrimSpace(name)
	c.mu.RLock()
	defer c.mu.RUnlock()
	reg, ok := c.services[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotRegistered, name)
	}
	return reg.Service, nil
}

func (c *Container) Has(name string) bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.services[strings.TrimSpace(name)]
	return ok
}

// Names returns registered service names sorted for deterministic iteration.
func (c *Container) Names() []string {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.namesLocked()
}

func (c *Container) namesLocked() []string {
	names := make([]string, 0, len(c.services))
	for name := range c.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Container) Initialized() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}

// Locator exposes the read-only view handed to plugin execution contexts.
func (c *Container) Locator() ServiceLocator {
	return c
}

// Clear resets the registry. It is a composition-time helper only and is
// rejected once initialization has been attempted.
func (c *Container) Clear() error {
	if c == nil {
		return fmt.Errorf("core: container is nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initAttempted {
		return fmt.Errorf("%w: clear rejected", ErrContainerAlreadyInitialized)
	}
	c.services = map[string]ServiceRegistration{}
	return nil
}

// InitializeAll starts every registered service in dependency order. The
// dependency graph is resolved into stages before any service runs; unknown
// or cyclic dependencies fail the call without side effects. Within a stage
// services initialize concurrently with fail-fast join semantics: the first
// failure aborts the call annotated with the failing service name, and the
// container is left partially initialized. Callers must treat that as fatal
// to process boot; a second InitializeAll is always rejected.
func (c *Container) InitializeAll(ctx context.Context) (err error) {
	if c == nil {
		return fmt.Errorf("core: container is nil")
	}

	c.mu.Lock()
	if c.initAttempted {
		c.mu.Unlock()
		return ErrContainerAlreadyInitialized
	}
	stages, stageErr := c.resolveStagesLocked()
	if stageErr != nil {
		c.mu.Unlock()
		return stageErr
	}
	c.initAttempted = true
	c.stages = stages
	total := len(c.services)
	c.mu.Unlock()

	startedAt := time.Now().UTC()
	fields := map[string]any{"services": total, "stages": len(stages)}
	defer func() {
		c.observeOperation(ctx, startedAt, "container_initialize", err, fields)
	}()

	for _, stage := range stages {
		targets := make(map[string]Service, len(stage))
		for _, name := range stage {
			svc, getErr := c.Get(name)
			if getErr != nil {
				err = getErr
				return err
			}
			targets[name] = svc
		}
		group, groupCtx := errgroup.WithContext(ctx)
		for _, name := range stage {
			svc := targets[name]
			group.Go(func() error {
				if groupCtx.Err() != nil {
					return groupCtx.Err()
				}
				if initErr := safeInitialize(groupCtx, svc); initErr != nil {
					return goerrors.Wrap(
						initErr,
						goerrors.CategoryOperation,
						fmt.Sprintf("core: initialize service %q failed", name),
					).
						WithTextCode(PlatformErrorInitFailed).
						WithMetadata(map[string]any{"service": name})
				}
				c.markStarted(name)
				return nil
			})
		}
		if waitErr := group.Wait(); waitErr != nil {
			err = waitErr
			return err
		}
	}

	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()
	return nil
}

// ShutdownAll stops every started service in reverse dependency order,
// concurrently within each stage. Failures are collected and logged, never
// escalated: one misbehaving service cannot block the shutdown of the rest.
func (c *Container) ShutdownAll(ctx context.Context) []LifecycleResult {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	stages := c.stages
	pending := make(map[string]Service, len(c.started))
	for name := range c.started {
		if reg, ok := c.services[name]; ok {
			pending[name] = reg.Service
		}
	}
	c.started = map[string]struct{}{}
	c.initialized = false
	c.mu.Unlock()

	startedAt := time.Now().UTC()
	results := make([]LifecycleResult, 0, len(pending))
	var failures int

	for i := len(stages) - 1; i >= 0; i-- {
		stage := stages[i]
		stageResults := make([]LifecycleResult, len(stage))
		var wg sync.WaitGroup
		for idx, name := range stage {
			svc, ok := pending[name]
			if !ok {
				stageResults[idx] = LifecycleResult{Service: ""}
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				opStarted := time.Now().UTC()
				shutdownErr := safeShutdown(ctx, svc)
				stageResults[idx] = LifecycleResult{
					Service:  name,
					Err:      shutdownErr,
					Duration: time.Since(opStarted),
				}
			}()
		}
		wg.Wait()
		for _, result := range stageResults {
			if result.Service == "" {
				continue
			}
			if result.Err != nil {
				failures++
				c.logError(ctx, "service shutdown failed", map[string]any{
					"service": result.Service,
					"error":   result.Err.Error(),
				})
			}
			results = append(results, result)
		}
	}

	var err error
	if failures > 0 {
		err = fmt.Errorf("core: %d service shutdown failure(s)", failures)
	}
	c.observeOperation(ctx, startedAt, "container_shutdown", err, map[string]any{
		"services": len(results),
		"failures": failures,
	})
	return results
}

// HealthCheckAll probes every registered service concurrently and returns
// exactly one entry per service keyed by name. A failing or panicking check
// degrades its own entry to unhealthy instead of failing the scan.
func (c *Container) HealthCheckAll(ctx context.Context) (map[string]HealthStatus, error) {
	if c == nil {
		return nil, fmt.Errorf("core: container is nil")
	}
	c.mu.RLock()
	if !c.initialized {
		c.mu.RUnlock()
		return nil, ErrContainerNotInitialized
	}
	targets := make(map[string]Service, len(c.services))
	for name, reg := range c.services {
		targets[name] = reg.Service
	}
	c.mu.RUnlock()

	results := make(map[string]HealthStatus, len(targets))
	var resultsMu sync.Mutex
	var wg sync.WaitGroup
	for name, svc := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, checkErr := safeHealthCheck(ctx, svc)
			if checkErr != nil {
				status = HealthStatus{Healthy: false, Message: checkErr.Error()}
			}
			resultsMu.Lock()
			results[name] = status
			resultsMu.Unlock()
		}()
	}
	wg.Wait()
	return results, nil
}

func (c *Container) markStarted(name string) {
	c.mu.Lock()
	c.started[name] = struct{}{}
	c.mu.Unlock()
}

// resolveStagesLocked layers the dependency graph: each stage holds the
// services whose dependencies are satisfied by earlier stages. Names within
// a stage are sorted so failures reproduce deterministically.
func (c *Container) resolveStagesLocked() ([][]string, error) {
	for name, reg := range c.services {
		for _, dep := range reg.DependsOn {
			if _, ok := c.services[dep]; !ok {
				return nil, fmt.Errorf("core: service %q depends on unregistered service %q", name, dep)
			}
		}
	}

	resolved := map[string]struct{}{}
	stages := [][]string{}
	names := c.namesLocked()
	remaining := len(names)

	for remaining > 0 {
		stage := []string{}
		for _, name := range names {
			if _, done := resolved[name]; done {
				continue
			}
			ready := true
			for _, dep := range c.services[name].DependsOn {
				if _, done := resolved[dep]; !done {
					ready = false
					break
				}
			}
			if ready {
				stage = append(stage, name)
			}
		}
		if len(stage) == 0 {
			unresolved := make([]string, 0, remaining)
			for _, name := range names {
				if _, done := resolved[name]; !done {
					unresolved = append(unresolved, name)
				}
			}
			return nil, fmt.Errorf("core: dependency cycle detected among services: %s", strings.Join(unresolved, ", "))
		}
		for _, name := range stage {
			resolved[name] = struct{}{}
		}
		remaining -= len(stage)
		stages = append(stages, stage)
	}
	return stages, nil
}

func normalizeDependencies(name string, deps []string) ([]string, error) {
	if len(deps) == 0 {
		return nil, nil
	}
	seen := map[string]struct{}{}
	out := make([]string, 0, len(deps))
	for _, dep := range deps {
		dep = strings.TrimSpace(dep)
		if dep == "" {
			continue
		}
		if dep == name {
			return nil, fmt.Errorf("core: service %q depends on itself", name)
		}
		if _, dup := seen[dep]; dup {
			continue
		}
		seen[dep] = struct{}{}
		out = append(out, dep)
	}
	sort.Strings(out)
	return out, nil
}

func safeInitialize(ctx context.Context, svc Service) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return svc.Initialize(ctx)
}

func safeShutdown(ctx context.Context, svc Service) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return svc.Shutdown(ctx)
}

func safeHealthCheck(ctx context.Context, svc Service) (status HealthStatus, err error) {
	defer func() {
		if r := recover(); r != nil {
			status = HealthStatus{}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return svc.HealthCheck(ctx)
}

var _ ServiceLocator = (*Container)(nil)
