package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[InstallPluginMessage]    = (*InstallPluginCommand)(nil)
	_ gocmd.Commander[ActivatePluginMessage]   = (*ActivatePluginCommand)(nil)
	_ gocmd.Commander[DeactivatePluginMessage] = (*DeactivatePluginCommand)(nil)
	_ gocmd.Commander[UninstallPluginMessage]  = (*UninstallPluginCommand)(nil)
	_ gocmd.Commander[UpdatePluginMessage]     = (*UpdatePluginCommand)(nil)
	_ gocmd.Commander[ConfigurePluginMessage]  = (*ConfigurePluginCommand)(nil)
)
