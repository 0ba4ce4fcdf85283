package domain

// Product описывает товар каталога. Имя товара — уникальный ключ.
type Product struct {
	Category    string
	Name        string
	Cost        float64 // Цена за единицу в рублях
	Quantity    int     // Остаток на складе, не может быть отрицательным
	ImagePath   string
	Description string
}

func NewProduct(category, name string, cost float64, quantity int, imagePath, description string) *Product {
	return &Product{
		Category:    category,
		Name:        name,
		Cost:        cost,
		Quantity:    quantity,
		ImagePath:   imagePath,
		Description: description,
	}
}

// InStock сообщает, доступен ли товар для заказа.
func (p *Product) InStock() bool {
	return p.Quantity > 0
}
