package converter

import (
	"encoding/json"

	"github.com/softvape/shop-bot/internal/domain"
	"github.com/softvape/shop-bot/internal/usecase"
	"github.com/softvape/shop-bot/pkg/e"
)

// ProductConverter преобразует сущности Product между domain и моделью PostgreSQL.
type ProductConverter interface {
	ToModel(entity *domain.Product) *ProductModel
	ToEntity(model *ProductModel) *domain.Product
}

// OrderConverter преобразует сущности Order между domain и моделью PostgreSQL.
// Снимок корзины сериализуется в JSON, поэтому преобразование может вернуть ошибку.
type OrderConverter interface {
	ToModel(entity *domain.Order) (*OrderModel, error)
	ToEntity(model *OrderModel) (*domain.Order, error)
}

// OutboxEventConverter преобразует записи исходящих событий между usecase
// и моделью PostgreSQL.
type OutboxEventConverter interface {
	ToModel(entity *usecase.OutboxEvent) *OutboxEventModel
	ToEntity(model *OutboxEventModel) *usecase.OutboxEvent
	ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent
}

type productConverter struct{}

func NewProductConverter() ProductConverter { return productConverter{} }

func (productConverter) ToModel(entity *domain.Product) *ProductModel {
	return &ProductModel{
		Category:    entity.Category,
		Name:        entity.Name,
		Cost:        entity.Cost,
		Quantity:    entity.Quantity,
		ImagePath:   entity.ImagePath,
		Description: entity.Description,
	}
}

func (productConverter) ToEntity(model *ProductModel) *domain.Product {
	return &domain.Product{
		Category:    model.Category,
		Name:        model.Name,
		Cost:        model.Cost,
		Quantity:    model.Quantity,
		ImagePath:   model.ImagePath,
		Description: model.Description,
	}
}

type orderConverter struct{}

func NewOrderConverter() OrderConverter { return orderConverter{} }

func (orderConverter) ToModel(entity *domain.Order) (*OrderModel, error) {
	const op = "OrderConverter.ToModel"

	data, err := json.Marshal(entity.Items)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &OrderModel{
		ID:         entity.ID,
		UserID:     entity.UserID,
		UserName:   entity.UserName,
		OrderData:  data,
		TotalPrice: entity.TotalPrice,
		Location:   entity.Location,
		Comment:    entity.Comment,
		Status:     string(entity.Status),
		CreatedAt:  entity.CreatedAt,
	}, nil
}

func (orderConverter) ToEntity(model *OrderModel) (*domain.Order, error) {
	const op = "OrderConverter.ToEntity"

	items := make(domain.CartItems)
	if len(model.OrderData) > 0 {
		if err := json.Unmarshal(model.OrderData, &items); err != nil {
			return nil, e.Wrap(op, err)
		}
	}

	return &domain.Order{
		ID:         model.ID,
		UserID:     model.UserID,
		UserName:   model.UserName,
		Items:      items,
		TotalPrice: model.TotalPrice,
		Location:   model.Location,
		Comment:    model.Comment,
		Status:     domain.OrderStatus(model.Status),
		CreatedAt:  model.CreatedAt,
	}, nil
}

type outboxEventConverter struct{}

func NewOutboxEventConverter() OutboxEventConverter { return outboxEventConverter{} }

func (outboxEventConverter) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   entity.EventType,
		OrderID:     entity.OrderID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (outboxEventConverter) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   model.EventType,
		OrderID:     model.OrderID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c outboxEventConverter) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	result := make([]*usecase.OutboxEvent, 0, len(models))
	for _, model := range models {
		result = append(result, c.ToEntity(model))
	}
	return result
}
