package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softvape/shop-bot/internal/domain"
	"github.com/softvape/shop-bot/pkg/e"
)

func TestParse(t *testing.T) {
	data := []byte("category,name,cost,quantity,image_path,description\n" +
		"Одноразки,Elf Bar BC5000 Манго,1500,5,images/elfbar.jpg,Вкус манго\n" +
		"Жидкости,Pod Salt 20mg Манго,800,25,,\n")

	products, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "Одноразки", products[0].Category)
	assert.Equal(t, "Elf Bar BC5000 Манго", products[0].Name)
	assert.Equal(t, 1500.0, products[0].Cost)
	assert.Equal(t, 5, products[0].Quantity)
	assert.Equal(t, "images/elfbar.jpg", products[0].ImagePath)
	assert.Equal(t, "Вкус манго", products[0].Description)

	assert.Equal(t, "Pod Salt 20mg Манго", products[1].Name)
	assert.Empty(t, products[1].ImagePath)
}

// Хвостовые необязательные колонки могут отсутствовать в строке.
func TestParseShortRows(t *testing.T) {
	data := []byte("category,name,cost,quantity,image_path,description\n" +
		"Жидкости,Husky,950,12\n")

	products, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Empty(t, products[0].ImagePath)
	assert.Empty(t, products[0].Description)
}

func TestParseMissingRequiredColumn(t *testing.T) {
	data := []byte("category,name,cost\nЖидкости,Husky,950\n")

	_, err := Parse(data)
	require.ErrorIs(t, err, e.ErrMissingImportColumn)
}

// Одна битая строка отклоняет импорт целиком.
func TestParseMalformedNumberRejectsWholeImport(t *testing.T) {
	data := []byte("category,name,cost,quantity,image_path,description\n" +
		"Жидкости,Husky,950,12,,\n" +
		"Жидкости,Битый,не цена,3,,\n")

	_, err := Parse(data)
	require.ErrorIs(t, err, e.ErrMalformedImport)

	data = []byte("category,name,cost,quantity,image_path,description\n" +
		"Жидкости,Битый,950,много,,\n")

	_, err = Parse(data)
	require.ErrorIs(t, err, e.ErrMalformedImport)
}

func TestParseEmptyImport(t *testing.T) {
	data := []byte("category,name,cost,quantity,image_path,description\n")

	_, err := Parse(data)
	require.ErrorIs(t, err, e.ErrEmptyImport)
}

func TestSerializeRoundTrip(t *testing.T) {
	original := []domain.Product{
		*domain.NewProduct("Одноразки", "Elf Bar", 1000.5, 10, "images/elfbar.jpg", "Классика"),
		*domain.NewProduct("Жидкости", "Pod Salt 20mg Манго", 800, 25, "", ""),
	}

	data, err := Serialize(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), "category,name,cost,quantity,image_path,description")

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestBackupObjectName(t *testing.T) {
	at := time.Date(2025, 6, 15, 12, 30, 45, 0, time.UTC)
	assert.Equal(t, "backup_products_20250615_123045.csv", BackupObjectName(at))
}
