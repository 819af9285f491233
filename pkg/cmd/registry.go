// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks/condition"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks/custom"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks/database"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks/email"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks/llm"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks/transaction"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks/transform"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks/wallet"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/blocks/webhook"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/registry"
)

// NewRegistry creates a block registry with all native block factories
// registered.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.RegisterBlock(condition.NewFactory())
	reg.RegisterBlock(custom.NewFactory())
	reg.RegisterBlock(database.NewFactory())
	reg.RegisterBlock(email.NewFactory())
	reg.RegisterBlock(llm.NewFactory())
	reg.RegisterBlock(transaction.NewFactory())
	reg.RegisterBlock(transform.NewFactory())
	reg.RegisterBlock(wallet.NewFactory())
	reg.RegisterBlock(webhook.NewFactory())

	return reg
}
