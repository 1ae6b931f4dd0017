// Package rest implements the repositories on top of the hosted data API. Row-level
// security on the hosted store decides what the caller in the context may read or write.
package rest

import (
	"context"
	"fmt"
	"time"

	"gigmarket/internal/baas"
	"gigmarket/internal/repository"
)

const defaultListLimit = 50

func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if baas.IsNotFound(err) {
		return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func decodeList[T any](resp *baas.Response) ([]T, error) {
	var rows []T
	if err := resp.JSON(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func decodeFirst[T any](resp *baas.Response, what string) (*T, error) {
	rows, err := decodeList[T](resp)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", what, repository.ErrNotFound)
	}
	return &rows[0], nil
}

func getByID[T any](ctx context.Context, client *baas.Client, table, id string) (*T, error) {
	resp, err := client.From(table).Select("*").Eq("id", id).Limit(1).Execute(ctx)
	if err != nil {
		return nil, translate(err, "get "+table)
	}
	return decodeFirst[T](resp, "get "+table)
}

func insertOne[T any](ctx context.Context, client *baas.Client, table string, row *T) error {
	resp, err := client.From(table).ExecuteInsert(ctx, row)
	if err != nil {
		return translate(err, "insert "+table)
	}
	stored, err := decodeFirst[T](resp, "insert "+table)
	if err != nil {
		return err
	}
	*row = *stored
	return nil
}

func updateByID[T any](ctx context.Context, client *baas.Client, table, id string, patch any) (*T, error) {
	resp, err := client.From(table).Eq("id", id).ExecuteUpdate(ctx, patch)
	if err != nil {
		return nil, translate(err, "update "+table)
	}
	return decodeFirst[T](resp, "update "+table)
}

type statusPatch[S any] struct {
	Status    S         `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newStatusPatch[S any](status S) statusPatch[S] {
	return statusPatch[S]{Status: status, UpdatedAt: time.Now().UTC()}
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
