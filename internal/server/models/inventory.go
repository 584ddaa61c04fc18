package models

// Classification groups vehicles in the catalog navigation.
type Classification struct {
	ID   int64  `json:"classification_id"`
	Name string `json:"classification_name"`
}

// Vehicle is one inventory item. ClassificationName is filled by joins.
type Vehicle struct {
	ID                 int64   `json:"inv_id"`
	Make               string  `json:"inv_make"`
	Model              string  `json:"inv_model"`
	Description        string  `json:"inv_description"`
	Image              string  `json:"inv_image"`
	Thumbnail          string  `json:"inv_thumbnail"`
	Price              float64 `json:"inv_price"`
	Year               int     `json:"inv_year"`
	Miles              int     `json:"inv_miles"`
	Color              string  `json:"inv_color"`
	ClassificationID   int64   `json:"classification_id"`
	ClassificationName string  `json:"classification_name,omitempty"`
}

const (
	DefaultVehicleImage     = "/images/vehicles/no-image.png"
	DefaultVehicleThumbnail = "/images/vehicles/no-image-tn.png"
)
