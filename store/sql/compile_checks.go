package sqlstore

import "github.com/goliatone/go-platform/core"

var (
	_ core.PluginStore            = (*PluginStore)(nil)
	_ core.PluginStore            = (*CachedPluginStore)(nil)
	_ core.PluginKVStore          = (*PluginKVStore)(nil)
	_ core.ActivityStore          = (*ActivityStore)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
