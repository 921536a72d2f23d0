package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
	"github.com/rakeshreddymandala/humaneq-hr/internal/repository"
)

// TemplateCatalog finds a template among company templates first, then
// admin templates.
type TemplateCatalog struct {
	Company CompanyTemplateStore
	Admin   AdminTemplateStore
}

// Find returns the template with id or ErrTemplateNotFound.
func (c TemplateCatalog) Find(ctx context.Context, id primitive.ObjectID) (*model.Template, error) {
	if c.Company != nil {
		t, err := c.Company.GetByID(ctx, id)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	if c.Admin != nil {
		a, err := c.Admin.GetByID(ctx, id)
		if err == nil {
			return a.AsTemplate(), nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrTemplateNotFound
}
