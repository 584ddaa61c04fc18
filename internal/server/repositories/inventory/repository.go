package inventory

import (
	"context"

	"github.com/dmitrijs2005/csemotors/internal/server/models"
)

type Repository interface {
	Classifications(ctx context.Context) ([]models.Classification, error)
	ClassificationByID(ctx context.Context, id int64) (*models.Classification, error)
	AddClassification(ctx context.Context, name string) (*models.Classification, error)
	VehiclesByClassification(ctx context.Context, classificationID int64) ([]models.Vehicle, error)
	VehicleByID(ctx context.Context, id int64) (*models.Vehicle, error)
	AddVehicle(ctx context.Context, v *models.Vehicle) (*models.Vehicle, error)
}
