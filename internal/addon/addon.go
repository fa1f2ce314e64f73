// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package addon

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/crashdump/internal/ctxlog"
	"github.com/matt-FFFFFF/crashdump/internal/runbatch"
)

// ErrAddonHalted is set on an addon result when one of its actions failed.
var ErrAddonHalted = errors.New("addon halted after a failed action")

// Action is one step of an addon.
type Action struct {
	Name    string     // Action name as written in the addon file
	Kind    ActionKind // Strategy used to run the action
	Command string     // Command template
}

// Addon is a named, ordered list of actions.
type Addon struct {
	Name    string
	Actions []Action
	Source  string // File the addon was defined in, for messages
}

// ActionSpec is an unvalidated action name and command pair.
type ActionSpec struct {
	Name    string
	Command string
}

// New validates the actions and returns the addon.
// Every action must name a known kind and its command must be accepted by the strategy of that kind.
func New(name, source string, actions []ActionSpec) (*Addon, error) {
	a := &Addon{
		Name:    name,
		Source:  source,
		Actions: make([]Action, 0, len(actions)),
	}

	var result *multierror.Error

	for _, spec := range actions {
		kind, err := ParseActionKind(spec.Name)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("addon %q: %w", name, err))
			continue
		}

		if err := strategies[kind].Validate(spec.Command); err != nil {
			result = multierror.Append(result, fmt.Errorf("addon %q action %q: %w", name, spec.Name, err))
			continue
		}

		a.Actions = append(a.Actions, Action{Name: spec.Name, Kind: kind, Command: spec.Command})
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	return a, nil
}

// Run executes the actions in order and returns a result tree of addon, action and invocation.
// Every action kind is checked before anything runs, an unknown kind is returned as ErrUnknownAction.
// When an action fails the remaining ones are recorded as skipped.
// Errors are only returned for configuration problems, execution failures are reported in the result.
func (a *Addon) Run(ctx context.Context, env *Env) (*runbatch.Result, error) {
	logger := ctxlog.Logger(ctx).With("addon", a.Name)

	for _, act := range a.Actions {
		if _, ok := strategies[act.Kind]; !ok {
			return nil, fmt.Errorf("%w: %q in addon %q", ErrUnknownAction, act.Name, a.Name)
		}
	}

	children := make(runbatch.Results, 0, len(a.Actions))

	for i, act := range a.Actions {
		logger.Info("running action", "action", act.Name, "command", act.Command)

		res, err := strategies[act.Kind].Run(ctx, env, a, act)
		if err != nil {
			return nil, fmt.Errorf("addon %q action %q: %w", a.Name, act.Name, err)
		}

		children = append(children, res)

		if res.Status != runbatch.ResultStatusError {
			continue
		}

		logger.Warn("addon failed", "action", act.Name, "skipped", len(a.Actions)-i-1)

		for _, rest := range a.Actions[i+1:] {
			children = append(children, &runbatch.Result{
				Label:  a.label(rest),
				Error:  runbatch.ErrSkipOnError,
				Status: runbatch.ResultStatusSkipped,
			})
		}

		break
	}

	res := runbatch.Group(a.Name, children)
	if res.Status == runbatch.ResultStatusError {
		res.Error = ErrAddonHalted
	}

	return res, nil
}

// NeedsRoot reports whether the addon may only run with root authorization.
func (a *Addon) NeedsRoot() bool {
	for _, act := range a.Actions {
		if NeedsRoot(act.Name) || ContainsSudo(act.Command) {
			return true
		}
	}

	return false
}

func (a *Addon) label(act Action) string {
	return a.Name + "/" + act.Name
}
