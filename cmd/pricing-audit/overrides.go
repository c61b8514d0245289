package main

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/arooba/pricing-engine/internal/settings"
	pkgerrors "github.com/arooba/pricing-engine/pkg/errors"
	"github.com/arooba/pricing-engine/pkg/validators"
)

type overrideStore interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key, field, value string) error
	HDel(ctx context.Context, key string, fields ...string) error
}

// setOverride writes one admin override given as field=value.
func setOverride(ctx context.Context, store overrideStore, key string, base settings.Snapshot, assignment string) error {
	field, value, ok := strings.Cut(assignment, "=")
	field, value = strings.TrimSpace(field), strings.TrimSpace(value)
	if !ok || field == "" {
		return pkgerrors.Invalid("set-override", "must look like field=value")
	}
	return setOverrides(ctx, store, key, base, map[string]string{field: value})
}

// setOverridesFromFile reads a single {"fields": {...}} document and stores
// every field in it.
func setOverridesFromFile(ctx context.Context, store overrideStore, key string, base settings.Snapshot, r io.Reader) (int, error) {
	var payload overridesRequest
	if err := validators.DecodeJSON(r, &payload); err != nil {
		return 0, err
	}
	if err := setOverrides(ctx, store, key, base, payload.Fields); err != nil {
		return 0, err
	}
	return len(payload.Fields), nil
}

// setOverrides checks that the stored overrides plus the new fields still
// produce valid settings, then writes the new fields. Nothing is written when
// any field is rejected.
func setOverrides(ctx context.Context, store overrideStore, key string, base settings.Snapshot, updates map[string]string) error {
	current, err := store.HGetAll(ctx, key)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read pricing overrides")
	}
	fields := make(map[string]string, len(current)+len(updates))
	for k, v := range current {
		fields[k] = v
	}
	for k, v := range updates {
		fields[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	next, err := settings.ApplyOverrides(base, fields)
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}

	names := make([]string, 0, len(updates))
	for k := range updates {
		names = append(names, strings.TrimSpace(k))
	}
	sort.Strings(names)
	for _, name := range names {
		if err := store.HSet(ctx, key, name, fields[name]); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write pricing override")
		}
	}
	return nil
}

func clearOverride(ctx context.Context, store overrideStore, key, field string) error {
	field = strings.TrimSpace(field)
	if field == "" {
		return pkgerrors.Invalid("clear-override", "is required")
	}
	if err := store.HDel(ctx, key, field); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear pricing override")
	}
	return nil
}
