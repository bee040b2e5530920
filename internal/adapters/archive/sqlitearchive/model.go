package sqlitearchive

type catalogColumn struct {
	Position int    `gorm:"primaryKey;autoIncrement:false"`
	Name     string `gorm:"uniqueIndex;not null"`
}

func (catalogColumn) TableName() string { return "catalog_columns" }

type catalogRow struct {
	Position int    `gorm:"primaryKey;autoIncrement:false"`
	Cells    string `gorm:"not null"`
}

func (catalogRow) TableName() string { return "catalog_rows" }

type columnAttr struct {
	Name        string `gorm:"primaryKey"`
	Description string
}

func (columnAttr) TableName() string { return "column_attrs" }

// observation is one epoch of one band. Missing values are stored as NULL.
type observation struct {
	ID        uint   `gorm:"primaryKey"`
	Key       string `gorm:"column:lc_key;index:idx_obs_key_band_epoch,priority:1;not null"`
	Band      string `gorm:"index:idx_obs_key_band_epoch,priority:2;not null"`
	Epoch     int    `gorm:"index:idx_obs_key_band_epoch,priority:3;not null"`
	MJD       *float64
	PSFMag    *float64
	PSFMagErr *float64
}

func (observation) TableName() string { return "observations" }

var models = []any{
	&catalogColumn{},
	&catalogRow{},
	&columnAttr{},
	&observation{},
}
