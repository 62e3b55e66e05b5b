package sysconfig

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/matibabu/core"
)

// well-known setting keys
const (
	KeyProgramName           = "program_name"
	KeyMaxShiftTradesPerWeek = "max_shift_trades_per_week"
	KeyCertExpiryThresholds  = "cert_expiry_thresholds"
	KeyDefaultLabCapacity    = "default_lab_capacity"
	KeyMaintenanceMode       = "maintenance_mode"
)

// Setting is a single key/value configuration entry. Values are stored
// as strings; callers coerce them at the point of use.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedBy string    `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type UpsertSetting struct {
	Key   string `json:"key" validate:"required,alphanum_"`
	Value string `json:"value" validate:"required"`
}

func (us *UpsertSetting) Validate(validate *validator.Validate) error {
	us.Key = core.CleanString(us.Key, true /* lower */)
	us.Value = core.CleanString(us.Value)
	return validate.Struct(us)
}
