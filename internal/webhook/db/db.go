package db

import (
	"context"
	"strings"

	"github.com/uptrace/bun"

	"petzi-webhook/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// CreateTables bootstraps the schema at startup. The ticket number uniqueness
// constraint is part of the model definition.
func (d *DB) CreateTables(ctx context.Context) error {
	for _, model := range []interface{}{
		(*models.Ticket)(nil),
		(*models.WebhookRequest)(nil),
	} {
		if _, err := d.Bun.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// InsertTicket persists a ticket, treating a redelivered ticket number as a
// no-op: created is false and err nil when the number is already recorded.
func (d *DB) InsertTicket(ctx context.Context, ticket *models.Ticket) (bool, error) {
	exists, err := d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("number = ?", ticket.Number).
		Exists(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if _, err := d.Bun.NewInsert().Model(ticket).Exec(ctx); err != nil {
		// A concurrent redelivery can trip the unique constraint between the
		// existence check and the insert; same outcome as a duplicate.
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d *DB) InsertRequest(ctx context.Context, request *models.WebhookRequest) error {
	_, err := d.Bun.NewInsert().Model(request).Exec(ctx)
	return err
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value") // postgres
}
