package drive_test

import (
	"context"
	"testing"

	"github.com/andresuchdata/autotransfer/backend-go/internal/drive"
	"github.com/stretchr/testify/assert"
)

func TestParseRef(t *testing.T) {
	id, ok := drive.ParseRef("drive://1AbC")
	assert.True(t, ok)
	assert.Equal(t, "1AbC", id)

	_, ok = drive.ParseRef("drive://")
	assert.False(t, ok)

	_, ok = drive.ParseRef("./inventory.xlsx")
	assert.False(t, ok)
}

func TestReadableAndLocalName(t *testing.T) {
	sheet := &drive.File{Name: "在库库存", MimeType: "application/vnd.google-apps.spreadsheet"}
	assert.True(t, drive.Readable(sheet))
	assert.Equal(t, "在库库存.xlsx", drive.LocalName(sheet))

	xls := &drive.File{Name: "库存.XLS", MimeType: "application/vnd.ms-excel"}
	assert.True(t, drive.Readable(xls))
	assert.Equal(t, "库存.XLS", drive.LocalName(xls))

	assert.False(t, drive.Readable(&drive.File{Name: "notes.pdf", MimeType: "application/pdf"}))
}

func TestNewService_InvalidCredentials(t *testing.T) {
	_, err := drive.NewService(context.Background(), "{not json")
	assert.Error(t, err)
}
