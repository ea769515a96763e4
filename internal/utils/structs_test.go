package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taggedRow struct {
	ID       string  `db:"id"`
	Name     *string `db:"name"`
	Joined   string  `db:"joined" write:"-"`
	Ignored  string  `db:"-"`
	Untagged string
	hidden   string `db:"hidden"`
}

func TestStructTagValues(t *testing.T) {
	columns := StructTagValues(taggedRow{})
	assert.Equal(t, []string{"id", "name", "joined"}, columns)

	assert.Equal(t, columns, StructTagValues(&taggedRow{}))
	assert.Panics(t, func() { StructTagValues("nope") })
}

func TestStructToMapSkipsReadOnlyColumns(t *testing.T) {
	row := &taggedRow{ID: "abc", Name: StringPtr("Budi"), Joined: "x", hidden: "y"}

	m := StructToMap(row)
	require.Len(t, m, 2)
	assert.Equal(t, "abc", m["id"])
	assert.Equal(t, row.Name, m["name"])
	assert.NotContains(t, m, "joined")
}

func TestWritableTagValues(t *testing.T) {
	assert.Equal(t, []string{"id", "name"}, WritableTagValues(taggedRow{}))
}

func TestPrefixed(t *testing.T) {
	assert.Equal(t, []string{"w.nik", "w.nama_warga"}, Prefixed("w", []string{"nik", "nama_warga"}))
}

func TestNilIfEmpty(t *testing.T) {
	assert.Nil(t, NilIfEmpty("   "))
	assert.Equal(t, "x", *NilIfEmpty(" x "))
}

func TestNanoID(t *testing.T) {
	assert.Len(t, NanoID(), NanoidSize)
	assert.Len(t, NanoIDSize(8), 8)
	assert.NotEqual(t, NanoID(), NanoID())
}
