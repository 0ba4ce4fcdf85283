// Package catalog реализует табличный формат обмена каталогом:
// шесть именованных колонок category,name,cost,quantity,image_path,description.
// Формат используется и для импорта товаров, и для резервных копий.
package catalog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/softvape/shop-bot/internal/domain"
	"github.com/softvape/shop-bot/pkg/e"
)

var header = []string{"category", "name", "cost", "quantity", "image_path", "description"}

// Parse читает CSV с товарами. Любая ошибка разбора числового поля
// отклоняет импорт целиком: частично применённых импортов не бывает.
func Parse(data []byte) ([]domain.Product, error) {
	const op = "catalog.Parse"

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // строки могут не содержать хвостовых необязательных колонок

	headers, err := reader.Read()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	index := headerIndex(headers)
	for _, required := range []string{"category", "name", "cost", "quantity"} {
		if _, ok := index[required]; !ok {
			return nil, e.Wrap(fmt.Sprintf("%s: %q", op, required), e.ErrMissingImportColumn)
		}
	}

	var products []domain.Product
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, e.Wrap(op, err)
		}

		product, err := parseRow(record, index)
		if err != nil {
			return nil, e.Wrap(fmt.Sprintf("%s: line %d", op, line), err)
		}

		products = append(products, *product)
	}

	if len(products) == 0 {
		return nil, e.Wrap(op, e.ErrEmptyImport)
	}

	return products, nil
}

// Serialize записывает товары в CSV с тем же шестиколоночным заголовком.
func Serialize(products []domain.Product) ([]byte, error) {
	const op = "catalog.Serialize"

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(header); err != nil {
		return nil, e.Wrap(op, err)
	}

	for _, p := range products {
		record := []string{
			p.Category,
			p.Name,
			strconv.FormatFloat(p.Cost, 'f', -1, 64),
			strconv.Itoa(p.Quantity),
			p.ImagePath,
			p.Description,
		}
		if err := writer.Write(record); err != nil {
			return nil, e.Wrap(op, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, e.Wrap(op, err)
	}

	return buf.Bytes(), nil
}

// BackupObjectName возвращает имя файла резервной копии каталога
// в формате backup_products_<YYYYMMDD_HHMMSS>.csv.
func BackupObjectName(at time.Time) string {
	return fmt.Sprintf("backup_products_%s.csv", at.Format("20060102_150405"))
}

func headerIndex(headers []string) map[string]int {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}
	return index
}

func parseRow(record []string, index map[string]int) (*domain.Product, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	cost, err := strconv.ParseFloat(field("cost"), 64)
	if err != nil {
		return nil, e.Wrap(fmt.Sprintf("cost %q", field("cost")), e.ErrMalformedImport)
	}

	quantity, err := strconv.Atoi(field("quantity"))
	if err != nil {
		return nil, e.Wrap(fmt.Sprintf("quantity %q", field("quantity")), e.ErrMalformedImport)
	}

	return domain.NewProduct(
		field("category"),
		field("name"),
		cost,
		quantity,
		field("image_path"),
		field("description"),
	), nil
}
