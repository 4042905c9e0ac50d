// Package playback provides Player backends that are not a remote web API.
package playback

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ayusman/handtune/internal/plugin"
)

// Plugin actions understood by playback plugins.
const (
	ActionPlay       = "play"
	ActionPause      = "pause"
	ActionNext       = "next"
	ActionPrevious   = "previous"
	ActionSearchPlay = "search-play"
	ActionLike       = "like"
	ActionVolumeUp   = "volume-up"
	ActionVolumeDown = "volume-down"
)

// PluginPlayer controls playback by running a plugin executable per command.
type PluginPlayer struct {
	plugin   *plugin.Plugin
	executor *plugin.Executor
}

// NewPluginPlayer discovers plugins in manager and binds the one named name.
func NewPluginPlayer(manager *plugin.Manager, executor *plugin.Executor, name string) (*PluginPlayer, error) {
	if err := manager.Discover(); err != nil {
		return nil, fmt.Errorf("discover plugins: %w", err)
	}

	p, err := manager.Get(name)
	if err != nil {
		return nil, fmt.Errorf("playback plugin %q in %s: %w", name, manager.PluginDir(), err)
	}

	return &PluginPlayer{plugin: p, executor: executor}, nil
}

// Name returns the bound plugin's name.
func (p *PluginPlayer) Name() string {
	return p.plugin.Manifest.Name
}

func (p *PluginPlayer) Play(ctx context.Context) error {
	return p.run(ctx, ActionPlay, nil)
}

func (p *PluginPlayer) Pause(ctx context.Context) error {
	return p.run(ctx, ActionPause, nil)
}

func (p *PluginPlayer) Next(ctx context.Context) error {
	return p.run(ctx, ActionNext, nil)
}

func (p *PluginPlayer) Previous(ctx context.Context) error {
	return p.run(ctx, ActionPrevious, nil)
}

func (p *PluginPlayer) SearchAndPlay(ctx context.Context, query string) error {
	return p.run(ctx, ActionSearchPlay, map[string]string{"query": query})
}

func (p *PluginPlayer) Like(ctx context.Context) error {
	return p.run(ctx, ActionLike, nil)
}

func (p *PluginPlayer) VolumeUp(ctx context.Context, step int) error {
	return p.run(ctx, ActionVolumeUp, map[string]string{"step": strconv.Itoa(step)})
}

func (p *PluginPlayer) VolumeDown(ctx context.Context, step int) error {
	return p.run(ctx, ActionVolumeDown, map[string]string{"step": strconv.Itoa(step)})
}

func (p *PluginPlayer) run(ctx context.Context, action string, params map[string]string) error {
	resp, err := p.executor.Execute(ctx, p.plugin, &plugin.Request{
		Action: action,
		Params: params,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("plugin %s %s: %s", p.plugin.Manifest.Name, action, resp.Error)
	}
	return nil
}
