package sqlstore_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-platform/core"
	platformmigrations "github.com/goliatone/go-platform/migrations"
	sqlstore "github.com/goliatone/go-platform/store/sql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "go-platform-tests"
}

func TestMigrationSmokeApplySQLite(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	var tableName string
	if err := client.DB().NewRaw(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
		"plugin_instances",
	).Scan(context.Background(), &tableName); err != nil {
		t.Fatalf("query sqlite master: %v", err)
	}
	if tableName != "plugin_instances" {
		t.Fatalf("expected plugin_instances table, got %q", tableName)
	}
}

func TestPluginStore_SaveGetListDelete(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}

	store := factory.PluginStore()
	if store == nil {
		t.Fatalf("expected plugin store from factory")
	}

	instance := core.PluginInstance{
		ID: "plg_hello",
		Manifest: core.PluginManifest{
			Name:         "hello-world",
			Version:      "1.0.0",
			Capabilities: []core.Capability{core.CapabilityContentView},
		},
		Status:      core.StatusInstalled,
		InstalledAt: time.Now().UTC(),
		Config:      map[string]any{"greeting": "hello"},
	}

	saved, err := store.SavePlugin(ctx, instance)
	if err != nil {
		t.Fatalf("save plugin: %v", err)
	}
	if saved.Manifest.Name != "hello-world" {
		t.Fatalf("expected manifest round-trip, got %q", saved.Manifest.Name)
	}

	loaded, err := store.GetPlugin(ctx, "plg_hello")
	if err != nil {
		t.Fatalf("get plugin: %v", err)
	}
	if loaded.Status != core.StatusInstalled {
		t.Fatalf("expected installed status, got %q", loaded.Status)
	}
	if loaded.Config["greeting"] != "hello" {
		t.Fatalf("expected config round-trip, got %#v", loaded.Config)
	}
	if len(loaded.Manifest.Capabilities) != 1 || loaded.Manifest.Capabilities[0] != core.CapabilityContentView {
		t.Fatalf("expected capabilities round-trip, got %#v", loaded.Manifest.Capabilities)
	}

	byName, err := store.GetPluginByName(ctx, "hello-world")
	if err != nil {
		t.Fatalf("get plugin by name: %v", err)
	}
	if byName.ID != "plg_hello" {
		t.Fatalf("expected id plg_hello, got %q", byName.ID)
	}

	activatedAt := time.Now().UTC()
	loaded.Status = core.StatusActive
	loaded.ActivatedAt = &activatedAt
	if _, err := store.SavePlugin(ctx, loaded); err != nil {
		t.Fatalf("update plugin: %v", err)
	}
	updated, err := store.GetPlugin(ctx, "plg_hello")
	if err != nil {
		t.Fatalf("get updated plugin: %v", err)
	}
	if updated.Status != core.StatusActive {
		t.Fatalf("expected active status after update, got %q", updated.Status)
	}
	if updated.ActivatedAt == nil {
		t.Fatalf("expected activated timestamp after update")
	}

	all, err := store.ListPlugins(ctx)
	if err != nil {
		t.Fatalf("list plugins: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(all))
	}

	if err := store.DeletePlugin(ctx, "plg_hello"); err != nil {
		t.Fatalf("delete plugin: %v", err)
	}
	if _, err := store.GetPlugin(ctx, "plg_hello"); !errors.Is(err, core.ErrPluginNotFound) {
		t.Fatalf("expected plugin not found after delete, got %v", err)
	}
	if err := store.DeletePlugin(ctx, "plg_hello"); !errors.Is(err, core.ErrPluginNotFound) {
		t.Fatalf("expected plugin not found for double delete, got %v", err)
	}
}

func TestPluginStore_MissingLookupsWrapNotFound(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	store := factory.PluginStore()

	if _, err := store.GetPlugin(ctx, "plg_missing"); !errors.Is(err, core.ErrPluginNotFound) {
		t.Fatalf("expected not found by id, got %v", err)
	}
	if _, err := store.GetPluginByName(ctx, "never-installed"); !errors.Is(err, core.ErrPluginNotFound) {
		t.Fatalf("expected not found by name, got %v", err)
	}
}

func TestPluginKVStore_ValueLifecycle(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	kv := factory.PluginKVStore()

	if err := kv.SetValue(ctx, "plg_1", "greeting", "hello"); err != nil {
		t.Fatalf("set string value: %v", err)
	}
	if err := kv.SetValue(ctx, "plg_1", "settings", map[string]any{"retries": float64(3)}); err != nil {
		t.Fatalf("set map value: %v", err)
	}
	if err := kv.SetValue(ctx, "plg_2", "greeting", "hola"); err != nil {
		t.Fatalf("set other-plugin value: %v", err)
	}

	value, err := kv.GetValue(ctx, "plg_1", "greeting")
	if err != nil {
		t.Fatalf("get value: %v", err)
	}
	if value != "hello" {
		t.Fatalf("expected hello, got %#v", value)
	}

	if err := kv.SetValue(ctx, "plg_1", "greeting", "bonjour"); err != nil {
		t.Fatalf("overwrite value: %v", err)
	}
	value, err = kv.GetValue(ctx, "plg_1", "greeting")
	if err != nil {
		t.Fatalf("get overwritten value: %v", err)
	}
	if value != "bonjour" {
		t.Fatalf("expected bonjour after overwrite, got %#v", value)
	}

	settings, err := kv.GetValue(ctx, "plg_1", "settings")
	if err != nil {
		t.Fatalf("get map value: %v", err)
	}
	decoded, ok := settings.(map[string]any)
	if !ok || decoded["retries"] != float64(3) {
		t.Fatalf("expected structured value round-trip, got %#v", settings)
	}

	keys, err := kv.ListKeys(ctx, "plg_1")
	if err != nil {
		t.Fatalf("list keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "greeting" || keys[1] != "settings" {
		t.Fatalf("expected sorted plugin keys, got %#v", keys)
	}

	has, err := kv.HasValue(ctx, "plg_2", "greeting")
	if err != nil {
		t.Fatalf("has value: %v", err)
	}
	if !has {
		t.Fatalf("expected plg_2 greeting to exist")
	}

	if err := kv.DeleteValue(ctx, "plg_1", "greeting"); err != nil {
		t.Fatalf("delete value: %v", err)
	}
	has, err = kv.HasValue(ctx, "plg_1", "greeting")
	if err != nil {
		t.Fatalf("has deleted value: %v", err)
	}
	if has {
		t.Fatalf("expected deleted key to be gone")
	}

	if err := kv.ClearValues(ctx, "plg_1"); err != nil {
		t.Fatalf("clear values: %v", err)
	}
	keys, err = kv.ListKeys(ctx, "plg_1")
	if err != nil {
		t.Fatalf("list keys after clear: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected no keys after clear, got %#v", keys)
	}

	// Other plugin namespaces survive a clear.
	has, err = kv.HasValue(ctx, "plg_2", "greeting")
	if err != nil {
		t.Fatalf("has other-plugin value: %v", err)
	}
	if !has {
		t.Fatalf("expected plg_2 values to survive plg_1 clear")
	}
}

func TestActivityStore_AppendListAndPrune(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	activity := factory.ActivityStore()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		operation := "install"
		if i%2 == 1 {
			operation = "activate"
		}
		if _, err := activity.Append(ctx, core.ActivityRecord{
			PluginID:  "plg_audit",
			Operation: operation,
			Status:    "ok",
			Detail:    fmt.Sprintf("step %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("append record %d: %v", i, err)
		}
	}
	appended, err := activity.Append(ctx, core.ActivityRecord{
		PluginID:  "plg_other",
		Operation: "install",
		Status:    "error",
		Detail:    "manifest rejected",
	})
	if err != nil {
		t.Fatalf("append other-plugin record: %v", err)
	}
	if appended.ID == "" {
		t.Fatalf("expected generated activity id")
	}

	page, err := activity.List(ctx, core.ActivityFilter{PluginID: "plg_audit"})
	if err != nil {
		t.Fatalf("list by plugin: %v", err)
	}
	if page.Total != 5 || len(page.Items) != 5 {
		t.Fatalf("expected 5 plugin records, got total=%d items=%d", page.Total, len(page.Items))
	}
	for i := 1; i < len(page.Items); i++ {
		if page.Items[i-1].CreatedAt.Before(page.Items[i].CreatedAt) {
			t.Fatalf("expected newest-first ordering")
		}
	}

	page, err = activity.List(ctx, core.ActivityFilter{PluginID: "plg_audit", Operation: "activate"})
	if err != nil {
		t.Fatalf("list by operation: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 activate records, got %d", page.Total)
	}

	page, err = activity.List(ctx, core.ActivityFilter{PluginID: "plg_audit", Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("list paginated: %v", err)
	}
	if len(page.Items) != 2 || page.Total != 5 {
		t.Fatalf("expected page of 2 with total 5, got items=%d total=%d", len(page.Items), page.Total)
	}

	pruner, ok := activity.(interface {
		Prune(ctx context.Context, ttl time.Duration, rowCap int) (int, error)
	})
	if !ok {
		t.Fatalf("expected activity store to support pruning")
	}
	deleted, err := pruner.Prune(ctx, 0, 2)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 4 {
		t.Fatalf("expected 4 pruned rows, got %d", deleted)
	}
	page, err = activity.List(ctx, core.ActivityFilter{})
	if err != nil {
		t.Fatalf("list after prune: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 rows after prune, got %d", page.Total)
	}
}

func newSQLiteClient(t *testing.T) (*persistence.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:platform-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := testPersistenceConfig{
		driver: "sqlite3",
		server: dsn,
	}
	client, err := persistence.New(cfg, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}

	ctx := context.Background()
	_, err = platformmigrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != platformmigrations.DialectSQLite {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, platformmigrations.WithValidationTargets(platformmigrations.DialectSQLite))
	if err != nil {
		_ = client.Close()
		t.Fatalf("register migrations: %v", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		t.Fatalf("migrate: %v", err)
	}

	return client, func() {
		_ = client.Close()
	}
}
