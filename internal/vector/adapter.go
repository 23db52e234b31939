package vector

import (
	"context"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// Class binds the chunk schema to one Weaviate class name.
type Class struct {
	client SchemaClient
	name   string
}

func NewClass(client *weaviate.Client, name string) *Class {
	return &Class{client: schemaAPI{client}, name: name}
}

func (c *Class) Name() string { return c.name }

func (c *Class) Exists(ctx context.Context) (bool, error) {
	return c.client.ClassExists(ctx, c.name)
}

func (c *Class) EnsureSchema(ctx context.Context) error {
	return EnsureSchema(ctx, c.client, c.name)
}

// Reset drops every object in the class.
func (c *Class) Reset(ctx context.Context) error {
	return ResetClass(ctx, c.client, c.name)
}

type schemaAPI struct {
	c *weaviate.Client
}

func (a schemaAPI) ClassExists(ctx context.Context, name string) (bool, error) {
	return a.c.Schema().ClassExistenceChecker().WithClassName(name).Do(ctx)
}

func (a schemaAPI) CreateClass(ctx context.Context, class *models.Class) error {
	return a.c.Schema().ClassCreator().WithClass(class).Do(ctx)
}

func (a schemaAPI) GetClass(ctx context.Context, name string) (*models.Class, error) {
	return a.c.Schema().ClassGetter().WithClassName(name).Do(ctx)
}

func (a schemaAPI) AddProperty(ctx context.Context, name string, property *models.Property) error {
	return a.c.Schema().PropertyCreator().WithClassName(name).WithProperty(property).Do(ctx)
}

func (a schemaAPI) DeleteClass(ctx context.Context, name string) error {
	return a.c.Schema().ClassDeleter().WithClassName(name).Do(ctx)
}
