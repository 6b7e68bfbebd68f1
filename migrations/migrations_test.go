package migrations

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaDeclaresTables(t *testing.T) {
	for _, table := range []string{
		"products", "users", "user_roles", "orders", "order_items", "site_settings", "contact_messages",
	} {
		assert.Regexp(t, regexp.MustCompile(`CREATE TABLE IF NOT EXISTS `+table+` \(`), Schema)
	}
}

func TestOrderItemsKeepLinePosition(t *testing.T) {
	assert.Regexp(t, `(?s)CREATE TABLE IF NOT EXISTS order_items \(.*position\s+INTEGER NOT NULL`, Schema)
	assert.Contains(t, Schema, "ALTER TABLE order_items ADD COLUMN IF NOT EXISTS position")
}
