package grievance

import (
	"strings"

	errors "github.com/frahmantamala/grievance-portal/internal"
	"github.com/frahmantamala/grievance-portal/internal/core/common/validation"
)

type SubmitDTO struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Location        string `json:"location"`
	Authority       string `json:"authority"`
	ReporterName    string `json:"reporterName"`
	ReporterContact string `json:"reporterContact"`
	Photo           string `json:"photo,omitempty"`
}

func (d *SubmitDTO) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Location = strings.TrimSpace(d.Location)
	d.Authority = strings.TrimSpace(d.Authority)
	d.ReporterName = strings.TrimSpace(d.ReporterName)
	d.ReporterContact = strings.TrimSpace(d.ReporterContact)
}

func (d SubmitDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("title", d.Title).Required().MaxLength(200)
	v.Field("description", d.Description).MaxLength(5000)
	v.Field("location", d.Location).MaxLength(500)
	v.Field("authority", d.Authority).Required().MaxLength(100)
	v.Field("reporterName", d.ReporterName).Custom(func(value interface{}) *errors.AppError {
		return validation.ValidatePersonName("reporterName", value.(string))
	})
	v.Field("reporterContact", d.ReporterContact).Custom(func(value interface{}) *errors.AppError {
		return validation.ValidateContact("reporterContact", value.(string))
	})
	v.Field("photo", d.Photo).Custom(func(value interface{}) *errors.AppError {
		if p, _ := value.(string); p != "" && !strings.HasPrefix(p, "data:") {
			return errors.NewValidationFieldError("photo", "photo must be a data URI", errors.ErrCodeInvalidFormat)
		}
		return nil
	})
	return v.Validate()
}

type StatusUpdateDTO struct {
	Status string `json:"status"`
}

type NoteDTO struct {
	Note string `json:"note"`
}

// ClearConfirmation carries the two affirmative answers required before every
// grievance is deleted.
type ClearConfirmation struct {
	First  bool `json:"confirm"`
	Second bool `json:"confirmAgain"`
}

func (c ClearConfirmation) Confirmed() bool {
	return c.First && c.Second
}

type GrievancesResponse struct {
	Grievances []Grievance `json:"grievances"`
	Count      int         `json:"count"`
}

type SubmitResponse struct {
	Grievance *Grievance `json:"grievance"`
	Key       string     `json:"key"`
}

type ClearResponse struct {
	Removed int `json:"removed"`
}
