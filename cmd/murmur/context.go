package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"murmur/internal/activity"
	"murmur/internal/api"
	"murmur/internal/config"
	"murmur/internal/queue"
	"murmur/internal/queueaccess"
	"murmur/internal/scanner"
)

type commandContext struct {
	apiFlag    *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(apiFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) apiAddress() string {
	if c.apiFlag != nil && strings.TrimSpace(*c.apiFlag) != "" {
		return strings.TrimSpace(*c.apiFlag)
	}
	if cfg, err := c.ensureConfig(); err == nil {
		return cfg.Paths.APIBind
	}
	return ""
}

// withAccess runs fn against the daemon when it answers and against the
// database otherwise.
func (c *commandContext) withAccess(cmd *cobra.Command, fn func(context.Context, queueaccess.Session) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	session, err := queueaccess.OpenWithFallback(ctx,
		func() (*api.Client, error) { return api.NewClient(c.apiAddress()) },
		func() (*api.Service, func() error, error) { return openLocalService(cfg) },
	)
	if err != nil {
		return err
	}
	defer session.Close()
	return fn(ctx, session)
}

func openLocalService(cfg *config.Config) (*api.Service, func() error, error) {
	store, err := queue.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	recorder := activity.NewRecorder(store, nil)
	sc := scanner.New(cfg.Scanner, store, recorder, nil)
	return api.NewService(store, sc, recorder, cfg.Transcription.Model), store.Close, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
