package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/csemotors/internal/common"
	"github.com/dmitrijs2005/csemotors/internal/dbx"
	"github.com/dmitrijs2005/csemotors/internal/server/models"
	"github.com/dmitrijs2005/csemotors/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/csemotors/internal/server/storage"
)

// ImagePresigner issues upload URLs for vehicle images.
type ImagePresigner interface {
	PresignVehicleImage(ctx context.Context, filename, contentType string) (*storage.ImageUpload, error)
}

// InventoryService serves the vehicle catalog.
type InventoryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	presigner   ImagePresigner
}

func NewInventoryService(db *sql.DB, m repomanager.RepositoryManager, presigner ImagePresigner) *InventoryService {
	return &InventoryService{db: db, repomanager: m, presigner: presigner}
}

// Classifications lists every classification ordered by name.
func (s *InventoryService) Classifications(ctx context.Context) ([]models.Classification, error) {
	out, err := s.repomanager.Inventory(s.db).Classifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing classifications: %w", err)
	}
	return out, nil
}

// VehiclesByClassification returns the classification and its vehicles.
// An unknown classification yields common.ErrorNotFound.
func (s *InventoryService) VehiclesByClassification(ctx context.Context, id int64) (*models.Classification, []models.Vehicle, error) {
	repo := s.repomanager.Inventory(s.db)

	c, err := repo.ClassificationByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("error finding classification: %w", err)
	}
	vehicles, err := repo.VehiclesByClassification(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("error listing vehicles: %w", err)
	}
	return c, vehicles, nil
}

func (s *InventoryService) Vehicle(ctx context.Context, id int64) (*models.Vehicle, error) {
	v, err := s.repomanager.Inventory(s.db).VehicleByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error finding vehicle: %w", err)
	}
	return v, nil
}

func (s *InventoryService) AddClassification(ctx context.Context, name string) (*models.Classification, error) {
	c, err := s.repomanager.Inventory(s.db).AddClassification(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("error adding classification: %w", err)
	}
	return c, nil
}

// AddVehicle fills default image paths, then checks the classification and
// inserts the vehicle in one transaction. A missing classification yields
// common.ErrorValidation.
func (s *InventoryService) AddVehicle(ctx context.Context, v *models.Vehicle) (*models.Vehicle, error) {
	if v.Image == "" {
		v.Image = models.DefaultVehicleImage
	}
	if v.Thumbnail == "" {
		v.Thumbnail = models.DefaultVehicleThumbnail
	}

	var added *models.Vehicle
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Inventory(tx)

		c, err := repo.ClassificationByID(ctx, v.ClassificationID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%w: unknown classification %d", common.ErrorValidation, v.ClassificationID)
			}
			return err
		}
		v.ClassificationName = c.Name

		added, err = repo.AddVehicle(ctx, v)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error adding vehicle: %w", err)
	}
	return added, nil
}

// ImageUploadURL presigns a direct upload for a vehicle image.
func (s *InventoryService) ImageUploadURL(ctx context.Context, filename, contentType string) (*storage.ImageUpload, error) {
	if s.presigner == nil {
		return nil, fmt.Errorf("%w: image uploads are not configured", common.ErrorInternal)
	}
	return s.presigner.PresignVehicleImage(ctx, filename, contentType)
}
