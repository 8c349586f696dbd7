package adapters_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/goliatone/go-command"
	job "github.com/goliatone/go-job"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-platform/adapters/gocommand"
	"github.com/goliatone/go-platform/adapters/gojob"
	"github.com/goliatone/go-platform/adapters/gologger"
	platformcommand "github.com/goliatone/go-platform/command"
	"github.com/goliatone/go-platform/core"
	"github.com/goliatone/go-platform/identity"
	"github.com/goliatone/go-platform/inbound"
)

func TestRuntimeCompatibility_GoJobGoCommandGoLogger(t *testing.T) {
	ctx := context.Background()

	logger := &compatLogger{}
	provider := &compatProvider{logger: logger}

	_, _, jobProvider, jobLogger := gologger.ResolveForJob("platform", provider, nil)
	if jobProvider == nil || jobLogger == nil {
		t.Fatalf("expected go-job logger bridges")
	}

	enqueueProbe := &compatEnqueuer{}
	enqueueAdapter := gojob.NewEnqueuerAdapter(enqueueProbe)
	if err := enqueueAdapter.Enqueue(ctx, &core.JobExecutionMessage{
		JobID:          gojob.JobIDHealthSweep,
		Parameters:     map[string]any{"failing": []any{"content-service"}},
		IdempotencyKey: "idem_1",
		DedupPolicy:    "drop",
	}); err != nil {
		t.Fatalf("enqueue via gojob adapter: %v", err)
	}
	if enqueueProbe.last == nil || enqueueProbe.last.JobID != gojob.JobIDHealthSweep {
		t.Fatalf("expected go-job message mapping through enqueuer adapter")
	}

	queueRegistry := jobqueuecommand.NewRegistry()
	commandAdapter := gocommand.NewRegistryAdapter(command.NewRegistry())
	if err := commandAdapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if err := commandAdapter.RegisterCommand(command.CommandFunc[compatMessage](func(context.Context, compatMessage) error {
		return nil
	})); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := commandAdapter.Initialize(); err != nil {
		t.Fatalf("initialize command registry: %v", err)
	}
	if _, ok := queueRegistry.Get("platform.compat.command"); !ok {
		t.Fatalf("expected command resolver hook to mirror command into go-job queue registry")
	}
}

func TestRuntimeCompatibility_InboundDispatchThroughCommandWrappers(t *testing.T) {
	svc := &compatLifecycleService{}
	adapter := gocommand.NewRegistryAdapter(command.NewRegistry())

	activateSub, err := gocommand.RegisterAndSubscribe(adapter, platformcommand.NewActivatePluginCommand(svc))
	if err != nil {
		t.Fatalf("register activate wrapper: %v", err)
	}
	defer activateSub.Unsubscribe()

	deactivateSub, err := gocommand.RegisterAndSubscribe(adapter, platformcommand.NewDeactivatePluginCommand(svc))
	if err != nil {
		t.Fatalf("register deactivate wrapper: %v", err)
	}
	defer deactivateSub.Unsubscribe()

	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize adapter: %v", err)
	}

	resolver := identity.NewResolver(identity.Config{Directory: identity.StaticDirectory{
		"admin_1": {UserID: "admin_1", Role: core.RoleAdmin},
	}})
	authorizer, err := core.NewAuthorizer(resolver)
	if err != nil {
		t.Fatalf("new authorizer: %v", err)
	}
	dispatcher, err := inbound.NewDispatcher(authorizer)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}

	activateHandler := inbound.HandlerFunc{
		Name: "plugin.activate",
		Fn: func(ctx context.Context, req inbound.Request, _ core.PermissionContext) (inbound.Result, error) {
			if err := gocommand.Dispatch(ctx, platformcommand.ActivatePluginMessage{
				PluginID: payloadString(req.Payload, "plugin_id"),
			}); err != nil {
				return inbound.Result{}, err
			}
			return inbound.Result{StatusCode: 202}, nil
		},
	}
	deactivateHandler := inbound.HandlerFunc{
		Name: "plugin.deactivate",
		Fn: func(ctx context.Context, req inbound.Request, _ core.PermissionContext) (inbound.Result, error) {
			if err := gocommand.Dispatch(ctx, platformcommand.DeactivatePluginMessage{
				PluginID: payloadString(req.Payload, "plugin_id"),
			}); err != nil {
				return inbound.Result{}, err
			}
			return inbound.Result{StatusCode: 202}, nil
		},
	}
	guard := core.RequireCapability(core.CapabilityPluginManage)
	if err := dispatcher.Register(activateHandler, guard); err != nil {
		t.Fatalf("register activate inbound handler: %v", err)
	}
	if err := dispatcher.Register(deactivateHandler, guard); err != nil {
		t.Fatalf("register deactivate inbound handler: %v", err)
	}

	attrs := map[string]any{"user_id": "admin_1"}
	result, err := dispatcher.Dispatch(context.Background(), inbound.Request{
		Operation: "plugin.activate",
		Attrs:     attrs,
		Payload:   map[string]any{"plugin_id": "plg_compat"},
	})
	if err != nil {
		t.Fatalf("dispatch activate operation: %v", err)
	}
	if result.StatusCode != 202 {
		t.Fatalf("expected accepted status, got %d", result.StatusCode)
	}
	if svc.activateCalls != 1 || svc.lastPluginID != "plg_compat" {
		t.Fatalf("expected activate wrapper invocation through inbound dispatch")
	}

	if _, err := dispatcher.Dispatch(context.Background(), inbound.Request{
		Operation: "plugin.deactivate",
		Attrs:     attrs,
		Payload:   map[string]any{"plugin_id": "plg_compat"},
	}); err != nil {
		t.Fatalf("dispatch deactivate operation: %v", err)
	}
	if svc.deactivateCalls != 1 {
		t.Fatalf("expected deactivate wrapper invocation through inbound dispatch")
	}
}

type compatMessage struct{}

func (compatMessage) Type() string { return "platform.compat.command" }

type compatEnqueuer struct {
	last *job.ExecutionMessage
}

func (e *compatEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	e.last = msg
	return nil
}

type compatProvider struct {
	logger glog.Logger
}

func (p *compatProvider) GetLogger(string) glog.Logger {
	if p == nil || p.logger == nil {
		return glog.Nop()
	}
	return p.logger
}

type compatLogger struct{}

func (compatLogger) Trace(string, ...any)                    {}
func (compatLogger) Debug(string, ...any)                    {}
func (compatLogger) Info(string, ...any)                     {}
func (compatLogger) Warn(string, ...any)                     {}
func (compatLogger) Error(string, ...any)                    {}
func (compatLogger) Fatal(string, ...any)                    {}
func (compatLogger) WithContext(context.Context) glog.Logger { return compatLogger{} }

type compatLifecycleService struct {
	activateCalls   int
	deactivateCalls int
	lastPluginID    string
}

func (s *compatLifecycleService) Install(context.Context, []byte) (core.PluginInstance, error) {
	return core.PluginInstance{}, nil
}

func (s *compatLifecycleService) Activate(_ context.Context, id string) (core.PluginInstance, error) {
	s.activateCalls++
	s.lastPluginID = id
	return core.PluginInstance{ID: id, Status: core.StatusActive}, nil
}

func (s *compatLifecycleService) Deactivate(_ context.Context, id string) (core.PluginInstance, error) {
	s.deactivateCalls++
	s.lastPluginID = id
	return core.PluginInstance{ID: id, Status: core.StatusInactive}, nil
}

func (s *compatLifecycleService) Uninstall(context.Context, string) error {
	return nil
}

func (s *compatLifecycleService) Update(_ context.Context, id string, _ []byte) (core.PluginInstance, error) {
	return core.PluginInstance{ID: id}, nil
}

func (s *compatLifecycleService) Configure(_ context.Context, id string, _ map[string]any) (core.PluginInstance, error) {
	return core.PluginInstance{ID: id}, nil
}

func payloadString(payload map[string]any, key string) string {
	if len(payload) == 0 {
		return ""
	}
	raw, ok := payload[key]
	if !ok {
		return ""
	}
	return fmt.Sprint(raw)
}
