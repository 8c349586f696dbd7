package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type eventLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *eventLog) add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

func (l *eventLog) index(entry string) int {
	for idx, candidate := range l.list() {
		if candidate == entry {
			return idx
		}
	}
	return -1
}

type scriptedService struct {
	name        string
	log         *eventLog
	initErr     error
	shutdownErr error
	healthErr   error
	health      HealthStatus
	panicHealth bool
	initDelay   time.Duration
}

func (s *scriptedService) Name() string { return s.name }

func (s *scriptedService) Initialize(context.Context) error {
	if s.initDelay > 0 {
		time.Sleep(s.initDelay)
	}
	if s.log != nil {
		s.log.add("init:" + s.name)
	}
	return s.initErr
}

func (s *scriptedService) Shutdown(context.Context) error {
	if s.log != nil {
		s.log.add("shutdown:" + s.name)
	}
	return s.shutdownErr
}

func (s *scriptedService) HealthCheck(context.Context) (HealthStatus, error) {
	if s.panicHealth {
		panic("health check exploded")
	}
	if s.log != nil {
		s.log.add("health:" + s.name)
	}
	if s.healthErr != nil {
		return HealthStatus{}, s.healthErr
	}
	if s.health == (HealthStatus{}) {
		return HealthStatus{Healthy: true}, nil
	}
	return s.health, nil
}

type memoryPluginStore struct {
	mu      sync.Mutex
	records map[string]PluginInstance
	saveErr error
}

func newMemoryPluginStore() *memoryPluginStore {
	return &memoryPluginStore{records: map[string]PluginInstance{}}
}

func (s *memoryPluginStore) GetPlugin(_ context.Context, id string) (PluginInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return PluginInstance{}, fmt.Errorf("%w: %s", ErrPluginNotFound, id)
	}
	return record.Clone(), nil
}

func (s *memoryPluginStore) GetPluginByName(_ context.Context, name string) (PluginInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.records {
		if record.Manifest.Name == name {
			return record.Clone(), nil
		}
	}
	return PluginInstance{}, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
}

func (s *memoryPluginStore) ListPlugins(context.Context) ([]PluginInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PluginInstance, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record.Clone())
	}
	return out, nil
}

func (s *memoryPluginStore) SavePlugin(_ context.Context, instance PluginInstance) (PluginInstance, error) {
	if s.saveErr != nil {
		return PluginInstance{}, s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[instance.ID] = instance.Clone()
	return instance, nil
}

func (s *memoryPluginStore) DeletePlugin(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("%w: %s", ErrPluginNotFound, id)
	}
	delete(s.records, id)
	return nil
}

type memoryKVStore struct {
	mu     sync.Mutex
	values map[string]map[string]any
}

func newMemoryKVStore() *memoryKVStore {
	return &memoryKVStore{values: map[string]map[string]any{}}
}

func (s *memoryKVStore) GetValue(_ context.Context, pluginID, key string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[pluginID][key]
	if !ok {
		return nil, nil
	}
	return value, nil
}

func (s *memoryKVStore) SetValue(_ context.Context, pluginID, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.values[pluginID]
	if !ok {
		bucket = map[string]any{}
		s.values[pluginID] = bucket
	}
	bucket[key] = value
	return nil
}

func (s *memoryKVStore) DeleteValue(_ context.Context, pluginID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values[pluginID], key)
	return nil
}

func (s *memoryKVStore) HasValue(_ context.Context, pluginID, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[pluginID][key]
	return ok, nil
}

func (s *memoryKVStore) ListKeys(_ context.Context, pluginID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.values[pluginID]))
	for key := range s.values[pluginID] {
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *memoryKVStore) ClearValues(_ context.Context, pluginID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, pluginID)
	return nil
}

type memoryActivityStore struct {
	mu      sync.Mutex
	records []ActivityRecord
}

func newMemoryActivityStore() *memoryActivityStore {
	return &memoryActivityStore{}
}

func (s *memoryActivityStore) Append(_ context.Context, record ActivityRecord) (ActivityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = fmt.Sprintf("act_%d", len(s.records)+1)
	}
	s.records = append(s.records, record)
	return record, nil
}

func (s *memoryActivityStore) List(_ context.Context, filter ActivityFilter) (ActivityPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := []ActivityRecord{}
	for _, record := range s.records {
		if filter.PluginID != "" && record.PluginID != filter.PluginID {
			continue
		}
		if filter.Operation != "" && record.Operation != filter.Operation {
			continue
		}
		items = append(items, record)
	}
	return ActivityPage{Items: items, Total: len(items)}, nil
}

type recordingLifecycleHook struct {
	name   string
	mu     sync.Mutex
	events []LifecycleEvent
	err    error
	panics bool
}

func (h *recordingLifecycleHook) Name() string { return h.name }

func (h *recordingLifecycleHook) OnEvent(_ context.Context, event LifecycleEvent) error {
	if h.panics {
		panic("lifecycle hook exploded")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingLifecycleHook) seen() []LifecycleEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]LifecycleEvent(nil), h.events...)
}

type staticIdentityResolver struct {
	identity Identity
	err      error
}

func (r staticIdentityResolver) Resolve(context.Context, map[string]any) (Identity, error) {
	if r.err != nil {
		return Identity{}, r.err
	}
	return r.identity, nil
}

type recordingAPIClient struct {
	mu    sync.Mutex
	calls []string
}

func (c *recordingAPIClient) record(method, url string) (APIResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, method+" "+url)
	return APIResponse{StatusCode: 200}, nil
}

func (c *recordingAPIClient) Get(_ context.Context, url string, _ map[string]string) (APIResponse, error) {
	return c.record("GET", url)
}

func (c *recordingAPIClient) Post(_ context.Context, url string, _ []byte, _ map[string]string) (APIResponse, error) {
	return c.record("POST", url)
}

func (c *recordingAPIClient) Put(_ context.Context, url string, _ []byte, _ map[string]string) (APIResponse, error) {
	return c.record("PUT", url)
}

func (c *recordingAPIClient) Delete(_ context.Context, url string, _ map[string]string) (APIResponse, error) {
	return c.record("DELETE", url)
}

func validManifest() PluginManifest {
	return PluginManifest{
		Name:         "address-validator",
		Version:      "1.2.0",
		DisplayName:  "Address Validator",
		Description:  "Validates and normalizes mailing addresses.",
		Author:       "Platform Team",
		Capabilities: []Capability{CapabilityContentView, CapabilityContentEdit},
		Entrypoint:   "index.js",
	}
}
