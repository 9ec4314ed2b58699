package dto

import "fieldservice-admin/pkg/restclient"

type DraftPayloadDTO struct {
	Payload map[string]interface{} `json:"payload" validate:"required"`
}

type DraftSelectionDTO struct {
	IDs []restclient.ID `json:"ids" validate:"dive,required"`
}

// InlineAssociationDTO — поля ассоциации, созданной во вложенном окне формы.
type InlineAssociationDTO struct {
	Payload map[string]interface{} `json:"payload" validate:"required"`
}
