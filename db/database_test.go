package db

import (
	"bytes"
	"strings"
	"testing"

	"shopcatalog/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestLoggerSkipsRecordNotFound(t *testing.T) {
	conn, err := OpenMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	t.Cleanup(func() { Close(conn) })

	var buf bytes.Buffer
	session := conn.Session(&gorm.Session{Logger: newLogger(&buf)})

	err = session.First(&models.Category{}, 999).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	err = session.Table("no_such_table").Count(new(int64)).Error
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "no_such_table")
}

func TestOpenCreatesFile(t *testing.T) {
	path := t.TempDir() + "/data/shop.db"
	conn, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { Close(conn) })

	assert.FileExists(t, path)
	assert.True(t, conn.Migrator().HasTable(&models.Product{}))
}
