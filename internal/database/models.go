package database

import "time"

// Partition is a partidas row.
type Partition struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	PartitionNumber string    `gorm:"column:nro_partida"`
	Name            string    `gorm:"column:nombre"`
	RegisteredAt    time.Time `gorm:"column:fecha_registro;type:date"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (Partition) TableName() string { return "partidas" }

// CatalogItem is a catalogo_items row as inserted by the resolver. grupo and
// abreviatura keep their column defaults.
type CatalogItem struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name         string    `gorm:"column:nombre"`
	RegisteredAt time.Time `gorm:"column:fecha_registro;type:date"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (CatalogItem) TableName() string { return "catalogo_items" }

// MeasureUnit is a unidad_medidas row.
type MeasureUnit struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name         string    `gorm:"column:nombre"`
	Abbreviation string    `gorm:"column:abreviatura"`
	RegisteredAt time.Time `gorm:"column:fecha_registro;type:date"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (MeasureUnit) TableName() string { return "unidad_medidas" }

type intakeRow struct {
	ID          int64  `gorm:"column:id"`
	WarehouseID *int64 `gorm:"column:almacen_id"`
}

type intakeDetailRow struct {
	ID          int64  `gorm:"column:id"`
	IntakeID    int64  `gorm:"column:ingreso_id"`
	WarehouseID *int64 `gorm:"column:almacen_id"`
	PartitionID *int64 `gorm:"column:partida_id"`
	ItemID      *int64 `gorm:"column:item_id"`
}

type catalogNameRow struct {
	ID   int64  `gorm:"column:id"`
	Name string `gorm:"column:nombre"`
}
