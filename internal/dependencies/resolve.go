// Package dependencies resolves the shared collaborators commands need when
// a builder does not inject its own: the gateway executor and vendor credentials.
package dependencies

import (
	"context"

	"go.uber.org/zap"

	"github.com/dovetail-dev/dovetail/internal/credentials"
	"github.com/dovetail-dev/dovetail/internal/execshell"
	"github.com/dovetail-dev/dovetail/internal/outcome"
	"github.com/dovetail-dev/dovetail/internal/vendorcli"
)

// ResolveExecutor returns the provided executor or constructs a shell-backed
// gateway reporting lifecycle events to observer.
func ResolveExecutor(existing vendorcli.CommandExecutor, logger *zap.Logger, observer execshell.CommandEventObserver) (vendorcli.CommandExecutor, error) {
	if existing != nil {
		return existing, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var options []execshell.ExecutorOption
	if observer != nil {
		options = append(options, execshell.WithCommandEventObserver(observer))
	}
	shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), options...)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveCredentialResolver returns the provided resolver or one backed by
// the process environment, the filesystem and the system keyring.
func ResolveCredentialResolver(existing credentials.Resolver) credentials.Resolver {
	if existing != nil {
		return existing
	}
	return credentials.NewResolver(credentials.Dependencies{})
}

// ResolveCredential resolves the configured credential for vendor. Invalid
// source declarations are configuration errors.
func ResolveCredential(executionContext context.Context, resolver credentials.Resolver, configurations credentials.VendorConfigurations, vendor credentials.Vendor) (credentials.Credential, error) {
	spec, specError := configurations.For(vendor).Spec(vendor)
	if specError != nil {
		return credentials.Credential{}, outcome.Configuration(specError)
	}
	return ResolveCredentialResolver(resolver).Resolve(executionContext, spec)
}
