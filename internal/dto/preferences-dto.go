package dto

type PreferencesDTO struct {
	LastVisitedID string   `json:"lastVisitedId,omitempty"`
	VisibleFields []string `json:"visibleFields,omitempty"`
}

type UpdatePreferencesDTO struct {
	LastVisitedID *string  `json:"lastVisitedId,omitempty" validate:"omitempty,max=128"`
	VisibleFields []string `json:"visibleFields,omitempty" validate:"omitempty,dive,required"`
}
