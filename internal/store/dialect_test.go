package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMysqlPlaceholderIsPositional(t *testing.T) {
	d := mysqlDialect()
	assert.Equal(t, "?", d.placeholder(1))
	assert.Equal(t, "?", d.placeholder(5))
}

func TestPostgresPlaceholderIsNumbered(t *testing.T) {
	d := postgresDialect()
	assert.Equal(t, "$1", d.placeholder(1))
	assert.Equal(t, "$5", d.placeholder(5))
}

func TestDialectForUnknownType(t *testing.T) {
	_, err := dialectFor("sqlite")
	assert.Error(t, err)
}

func TestDialectForDefaultsToMysql(t *testing.T) {
	d, err := dialectFor("")
	assert.NoError(t, err)
	assert.Equal(t, "mysql", d.name)
}

func TestHeaderEquality(t *testing.T) {
	a := Header{SchemaVersion: 1, SampleRate: 11025, WindowSize: 4096, HopSize: 2048, HotHashCap: 200}
	b := a
	assert.Equal(t, a, b)

	b.HopSize = 1024
	assert.NotEqual(t, a, b)
}
