package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createExtension,
		createUsersTable,
		createUserRolesTable,
		createEventsTable,
		createPassesTable,
		createWaitingListTable,
		createTicketsTable,
		createWaitingListIndexes,
		createTicketIndexes,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createExtension = `
CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    user_id VARCHAR(255) PRIMARY KEY,
    email VARCHAR(255) NOT NULL DEFAULT '',
    name VARCHAR(255) NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createUserRolesTable = `
CREATE TABLE IF NOT EXISTS user_roles (
    user_id VARCHAR(255) NOT NULL,
    role VARCHAR(50) NOT NULL,
    granted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, role)
);`

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    name VARCHAR(500) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    location VARCHAR(500) NOT NULL DEFAULT '',
    event_date TIMESTAMPTZ NOT NULL,
    price BIGINT NOT NULL DEFAULT 0,
    total_tickets INTEGER NOT NULL,
    user_id VARCHAR(255) NOT NULL,
    is_cancelled BOOLEAN NOT NULL DEFAULT FALSE,
    image_storage_id VARCHAR(255),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (total_tickets >= 0)
);`

const createPassesTable = `
CREATE TABLE IF NOT EXISTS passes (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    name VARCHAR(255) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    price BIGINT NOT NULL DEFAULT 0,
    total_quantity INTEGER NOT NULL,
    sold_quantity INTEGER NOT NULL DEFAULT 0,
    benefits TEXT[] NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (sold_quantity >= 0),
    CHECK (sold_quantity <= total_quantity)
);`

const createWaitingListTable = `
CREATE TABLE IF NOT EXISTS waiting_list (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    user_id VARCHAR(255) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'waiting',
    offer_expires_at TIMESTAMPTZ,
    pass_id UUID REFERENCES passes(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (status IN ('waiting', 'offered', 'purchased', 'expired'))
);`

const createTicketsTable = `
CREATE TABLE IF NOT EXISTS tickets (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    user_id VARCHAR(255) NOT NULL,
    pass_id UUID REFERENCES passes(id),
    status VARCHAR(20) NOT NULL DEFAULT 'valid',
    payment_intent_id VARCHAR(255) NOT NULL,
    amount BIGINT NOT NULL DEFAULT 0,
    purchased_at TIMESTAMPTZ NOT NULL,
    scanned_at TIMESTAMPTZ,

    CHECK (status IN ('valid', 'used', 'refunded'))
);`

const createWaitingListIndexes = `
CREATE INDEX IF NOT EXISTS waiting_list_user_event_idx ON waiting_list (user_id, event_id);
CREATE INDEX IF NOT EXISTS waiting_list_event_status_idx ON waiting_list (event_id, status);
-- One live (waiting or offered) entry per user per event
CREATE UNIQUE INDEX IF NOT EXISTS waiting_list_active_entry_idx
    ON waiting_list (user_id, event_id)
    WHERE status IN ('waiting', 'offered');`

const createTicketIndexes = `
CREATE INDEX IF NOT EXISTS tickets_user_idx ON tickets (user_id);
CREATE INDEX IF NOT EXISTS tickets_event_idx ON tickets (event_id);
CREATE INDEX IF NOT EXISTS tickets_user_event_idx ON tickets (user_id, event_id);
CREATE INDEX IF NOT EXISTS tickets_payment_intent_idx ON tickets (payment_intent_id);`
