package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/gwd-records-api/internal/models"
)

// registerSiteValidations installs the closed-set checks used by SiteDetail tags.
func registerSiteValidations(v *validator.Validate) {
	_ = v.RegisterValidation("workstatus", func(fl validator.FieldLevel) bool {
		return models.WorkStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("sitepurpose", func(fl validator.FieldLevel) bool {
		return models.SitePurpose(fl.Field().String()).Valid()
	})
}
