package vector

import (
	"context"

	"github.com/weaviate/weaviate/entities/models"
)

// SchemaClient defines the interface for Weaviate schema operations
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
	DeleteClass(ctx context.Context, className string) error
}

func chunkProperties() []*models.Property {
	return []*models.Property{
		{
			Name:     "content",
			DataType: []string{"text"},
		},
		{
			Name:     "chunkId",
			DataType: []string{"string"},
		},
		{
			Name:     "chunkIndex",
			DataType: []string{"int"},
		},
	}
}

// EnsureSchema creates the chunk class with caller-supplied vectors, or
// backfills properties missing from an older class.
func EnsureSchema(ctx context.Context, client SchemaClient, className string) error {
	exists, err := client.ClassExists(ctx, className)
	if err != nil {
		return err
	}

	properties := chunkProperties()

	if !exists {
		class := &models.Class{
			Class:       className,
			Description: "A chunk of ingested study material",
			Vectorizer:  "none",
			Properties:  properties,
		}
		return client.CreateClass(ctx, class)
	}

	class, err := client.GetClass(ctx, className)
	if err != nil {
		return err
	}

	existingProps := make(map[string]bool)
	for _, p := range class.Properties {
		existingProps[p.Name] = true
	}

	for _, p := range properties {
		if !existingProps[p.Name] {
			if err := client.AddProperty(ctx, className, p); err != nil {
				return err
			}
		}
	}

	return nil
}

// ResetClass drops className when present and recreates it empty.
func ResetClass(ctx context.Context, client SchemaClient, className string) error {
	exists, err := client.ClassExists(ctx, className)
	if err != nil {
		return err
	}
	if exists {
		if err := client.DeleteClass(ctx, className); err != nil {
			return err
		}
	}
	return EnsureSchema(ctx, client, className)
}
